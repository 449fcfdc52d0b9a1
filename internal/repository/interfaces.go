package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/smipay/smipay-backend/internal/models"
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	// GetByTag matches case-insensitively against the stored tag.
	GetByTag(ctx context.Context, tag string) (models.User, error)
	TagExists(ctx context.Context, tag string) (bool, error)
}

type Wallets interface {
	Create(ctx context.Context, userID string) (models.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (models.Wallet, error)

	// GetForUpdate locks the wallet row for the remainder of tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, userID string) (models.Wallet, error)
	// ApplyDebit subtracts amount from the balance and grows the
	// all-time-withdrawn counter; ApplyCredit is the mirror image.
	ApplyDebit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (models.Wallet, error)
	ApplyCredit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (models.Wallet, error)
}

type Transactions interface {
	Insert(ctx context.Context, tx pgx.Tx, h models.TransactionHistory) (models.TransactionHistory, error)
	GetByReference(ctx context.Context, reference string) (models.TransactionHistory, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	// CountRecentByUser counts the user's rows of the given types created
	// at or after since. Feeds the per-user fixed-window rate limit.
	CountRecentByUser(ctx context.Context, userID string, types []string, since time.Time) (int, error)
}

type Tickets interface {
	Create(ctx context.Context, t models.SupportTicket) (models.SupportTicket, error)
	// MaxSequenceForYear returns the highest ticket sequence already issued
	// for the year, 0 when none exist.
	MaxSequenceForYear(ctx context.Context, year int) (int, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Store runs fn inside one database transaction: commit on nil, rollback on
// error. Every read and write of a transfer goes through the pgx.Tx handed
// to fn.
type Store interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}
