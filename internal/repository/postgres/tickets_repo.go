package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smipay/smipay-backend/internal/models"
)

type ticketsRepo struct{ pool *pgxpool.Pool }

func (r *ticketsRepo) Create(ctx context.Context, t models.SupportTicket) (models.SupportTicket, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO support_tickets(id, user_id, number, subject, message, status)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING id, user_id, number, subject, message, status, created_at`,
		t.ID, t.UserID, t.Number, t.Subject, t.Message, t.Status,
	).Scan(&t.ID, &t.UserID, &t.Number, &t.Subject, &t.Message, &t.Status, &t.CreatedAt)
	return t, err
}

// MaxSequenceForYear parses the zero-padded tail of TCK-<year>-<seq>
// numbers issued this year. Fallback-suffixed numbers sort into the regex
// miss and are ignored, which is fine: the sequence only needs to move
// forward.
func (r *ticketsRepo) MaxSequenceForYear(ctx context.Context, year int) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX((substring(number from '^TCK-\d{4}-(\d{6})$'))::int), 0)
		   FROM support_tickets
		  WHERE number LIKE 'TCK-' || $1::text || '-%'`,
		year,
	).Scan(&max)
	return max, err
}

func (r *ticketsRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM support_tickets WHERE number=$1)`, number,
	).Scan(&exists)
	return exists, err
}
