package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smipay/smipay-backend/internal/models"
)

type walletsRepo struct{ pool *pgxpool.Pool }

const walletColumns = `id, user_id, current_balance, all_time_funding,
       all_time_withdrawn, active, updated_at`

func (r *walletsRepo) Create(ctx context.Context, userID string) (models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx,
		`INSERT INTO wallets(id, user_id) VALUES($1,$2)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING `+walletColumns,
		uuid.NewString(), userID,
	).Scan(&w.ID, &w.UserID, &w.CurrentBalance, &w.AllTimeFunding,
		&w.AllTimeWithdrawn, &w.Active, &w.UpdatedAt)
	return w, err
}

func (r *walletsRepo) GetByUserID(ctx context.Context, userID string) (models.Wallet, error) {
	var w models.Wallet
	err := r.pool.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id=$1`, userID,
	).Scan(&w.ID, &w.UserID, &w.CurrentBalance, &w.AllTimeFunding,
		&w.AllTimeWithdrawn, &w.Active, &w.UpdatedAt)
	return w, err
}

func (r *walletsRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID string) (models.Wallet, error) {
	var w models.Wallet
	err := tx.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id=$1 FOR UPDATE`, userID,
	).Scan(&w.ID, &w.UserID, &w.CurrentBalance, &w.AllTimeFunding,
		&w.AllTimeWithdrawn, &w.Active, &w.UpdatedAt)
	return w, err
}

func (r *walletsRepo) ApplyDebit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (models.Wallet, error) {
	var w models.Wallet
	err := tx.QueryRow(ctx,
		`UPDATE wallets
		    SET current_balance = current_balance - $2,
		        all_time_withdrawn = all_time_withdrawn + $2,
		        updated_at = now()
		  WHERE user_id = $1
		  RETURNING `+walletColumns,
		userID, amount,
	).Scan(&w.ID, &w.UserID, &w.CurrentBalance, &w.AllTimeFunding,
		&w.AllTimeWithdrawn, &w.Active, &w.UpdatedAt)
	return w, err
}

func (r *walletsRepo) ApplyCredit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (models.Wallet, error) {
	var w models.Wallet
	err := tx.QueryRow(ctx,
		`UPDATE wallets
		    SET current_balance = current_balance + $2,
		        all_time_funding = all_time_funding + $2,
		        updated_at = now()
		  WHERE user_id = $1
		  RETURNING `+walletColumns,
		userID, amount,
	).Scan(&w.ID, &w.UserID, &w.CurrentBalance, &w.AllTimeFunding,
		&w.AllTimeWithdrawn, &w.Active, &w.UpdatedAt)
	return w, err
}
