// Package reference allocates the identifiers the transfer core depends
// on: transaction references, session ids, smipay tags and support ticket
// numbers. Allocation is optimistic: propose a candidate, re-check it
// against the store, retry a bounded number of times, then fall back to a
// timestamp-salted value that cannot realistically collide.
package reference

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	txnRefPrefix  = "R-"
	tagPrefix     = "smi"
	tagRandomLen  = 8
	ticketPrefix  = "TCK"
	defaultBudget = 3
)

// HistoryChecker reports whether a transaction reference is already taken.
type HistoryChecker interface {
	ReferenceExists(ctx context.Context, reference string) (bool, error)
}

// TagChecker reports whether a smipay tag is already registered.
type TagChecker interface {
	TagExists(ctx context.Context, tag string) (bool, error)
}

// TicketChecker exposes the ticket-number state the generator needs.
type TicketChecker interface {
	MaxSequenceForYear(ctx context.Context, year int) (int, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}

type Generator struct {
	history HistoryChecker
	users   TagChecker
	tickets TicketChecker

	maxAttempts int
	now         func() time.Time
}

func NewGenerator(history HistoryChecker, users TagChecker, tickets TicketChecker) *Generator {
	return &Generator{
		history:     history,
		users:       users,
		tickets:     tickets,
		maxAttempts: defaultBudget,
		now:         time.Now,
	}
}

// TransactionReference allocates a globally unique reference of the form
// R-<ULID>. After the retry budget it appends the current unix-nano
// timestamp, trading aesthetics for a hard uniqueness guarantee.
func (g *Generator) TransactionReference(ctx context.Context) (string, error) {
	var candidate string
	for i := 0; i < g.maxAttempts; i++ {
		candidate = txnRefPrefix + g.ulid()
		exists, err := g.history.ReferenceExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s-%d", candidate, g.now().UnixNano()), nil
}

// SessionID returns a correlation id for the two halves of a transfer. It
// is deliberately not checked against the store: session ids are hints,
// not keys, and a collision is tolerable.
func (g *Generator) SessionID() string {
	t := g.now()
	return fmt.Sprintf("sess-id-%s-%s-%s",
		t.Format("20060102"), t.Format("150405"), randAlnum(8))
}

// SmipayTag allocates a unique lowercase tag: "smi" plus 8 random
// alphanumerics. Fallback appends a timestamp fragment and one random
// digit.
func (g *Generator) SmipayTag(ctx context.Context) (string, error) {
	var candidate string
	for i := 0; i < g.maxAttempts; i++ {
		candidate = tagPrefix + randAlnum(tagRandomLen)
		exists, err := g.users.TagExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s%d%s", candidate, g.now().Unix()%100000, randDigits(1)), nil
}

// TicketNumber continues the TCK-<year>-<seq> sequence from the highest
// number already issued this year, incrementing past collisions.
func (g *Generator) TicketNumber(ctx context.Context) (string, error) {
	year := g.now().Year()
	seq, err := g.tickets.MaxSequenceForYear(ctx, year)
	if err != nil {
		return "", err
	}
	var candidate string
	for i := 0; i < g.maxAttempts; i++ {
		seq++
		candidate = fmt.Sprintf("%s-%d-%06d", ticketPrefix, year, seq)
		exists, err := g.tickets.NumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s-%d", candidate, g.now().Unix()%1000000), nil
}

func (g *Generator) ulid() string {
	return ulid.MustNew(ulid.Timestamp(g.now()), ulid.Monotonic(rand.Reader, 0)).String()
}

const alnum = "abcdefghijklmnopqrstuvwxyz0123456789"

func randAlnum(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(alnum))))
		b[i] = alnum[idx.Int64()]
	}
	return string(b)
}

func randDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, _ := rand.Int(rand.Reader, big.NewInt(10))
		b[i] = byte('0' + idx.Int64())
	}
	return string(b)
}
