package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smipay/smipay-backend/internal/models"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

const historyColumns = `id, user_id, amount, transaction_type, credit_debit,
       description, status, currency, payment_method, payment_channel,
       reference, balance_before, balance_after, session_id, metadata, created_at`

func (r *transactionsRepo) Insert(ctx context.Context, tx pgx.Tx, h models.TransactionHistory) (models.TransactionHistory, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	err := tx.QueryRow(ctx,
		`INSERT INTO transaction_history(
		    id, user_id, amount, transaction_type, credit_debit, description,
		    status, currency, payment_method, payment_channel, reference,
		    balance_before, balance_after, session_id, metadata
		 ) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		 RETURNING `+historyColumns,
		h.ID, h.UserID, h.Amount, h.TransactionType, h.CreditDebit, h.Description,
		h.Status, h.Currency, h.PaymentMethod, h.PaymentChannel, h.Reference,
		h.BalanceBefore, h.BalanceAfter, h.SessionID, h.Metadata,
	).Scan(&h.ID, &h.UserID, &h.Amount, &h.TransactionType, &h.CreditDebit,
		&h.Description, &h.Status, &h.Currency, &h.PaymentMethod, &h.PaymentChannel,
		&h.Reference, &h.BalanceBefore, &h.BalanceAfter, &h.SessionID, &h.Metadata,
		&h.CreatedAt)
	return h, err
}

func (r *transactionsRepo) GetByReference(ctx context.Context, reference string) (models.TransactionHistory, error) {
	var h models.TransactionHistory
	err := r.pool.QueryRow(ctx,
		`SELECT `+historyColumns+` FROM transaction_history WHERE reference=$1`,
		reference,
	).Scan(&h.ID, &h.UserID, &h.Amount, &h.TransactionType, &h.CreditDebit,
		&h.Description, &h.Status, &h.Currency, &h.PaymentMethod, &h.PaymentChannel,
		&h.Reference, &h.BalanceBefore, &h.BalanceAfter, &h.SessionID, &h.Metadata,
		&h.CreatedAt)
	return h, err
}

func (r *transactionsRepo) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transaction_history WHERE reference=$1)`,
		reference,
	).Scan(&exists)
	return exists, err
}

func (r *transactionsRepo) CountRecentByUser(ctx context.Context, userID string, types []string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transaction_history
		  WHERE user_id=$1 AND transaction_type = ANY($2) AND created_at >= $3`,
		userID, types, since,
	).Scan(&n)
	return n, err
}
