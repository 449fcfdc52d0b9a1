package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/smipay/smipay-backend/internal/apperr"
)

// TransactionCounter is the slice of the transactions repository the guard
// needs: a count of the user's persisted rows inside the window.
type TransactionCounter interface {
	CountRecentByUser(ctx context.Context, userID string, types []string, since time.Time) (int, error)
}

type Config struct {
	UserWindow   time.Duration
	UserMax      int
	SourceWindow time.Duration
	SourceMax    int
}

// Guard admits or rejects a sensitive request. The per-user window is
// scoped to the configured set of sensitive transaction types rather than
// one type or all rows: unrelated credits must not eat a user's budget,
// and rotating endpoints must not reset it.
type Guard struct {
	trx   TransactionCounter
	src   Counter
	cfg   Config
	types []string
	now   func() time.Time
}

func NewGuard(trx TransactionCounter, src Counter, cfg Config, types []string) *Guard {
	return &Guard{trx: trx, src: src, cfg: cfg, types: types, now: time.Now}
}

// Allow returns nil when the request may proceed, or a rate-limit error.
// Both checks must pass. Source-counter backend failures fail open so a
// Redis outage does not freeze money movement.
func (g *Guard) Allow(ctx context.Context, userID, source string) error {
	since := g.now().Add(-g.cfg.UserWindow)
	n, err := g.trx.CountRecentByUser(ctx, userID, g.types, since)
	if err != nil {
		return apperr.Internal(err)
	}
	if n >= g.cfg.UserMax {
		return apperr.RateLimited("rate limit exceeded, slow down and try again later")
	}

	if source != "" {
		hits, err := g.src.Hit(ctx, source, g.cfg.SourceWindow)
		if err != nil {
			slog.Warn("source rate counter unavailable", "err", err)
			return nil
		}
		if hits > g.cfg.SourceMax {
			return apperr.RateLimited("rate limit exceeded, slow down and try again later")
		}
	}
	return nil
}
