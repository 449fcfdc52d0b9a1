package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smipay/smipay-backend/internal/models"
)

type usersRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, first_name, last_name, email, password_hash, smipay_tag,
       profile_image, is_email_verified, is_phone_verified, created_at, updated_at`

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users(id, first_name, last_name, email, password_hash, smipay_tag)
		 VALUES($1,$2,$3,$4,$5,$6)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.SmipayTag,
	)
	if err != nil {
		return models.User{}, err
	}
	return r.GetByID(ctx, u.ID)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.SmipayTag,
		&u.ProfileImage, &u.IsEmailVerified, &u.IsPhoneVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1`, email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.SmipayTag,
		&u.ProfileImage, &u.IsEmailVerified, &u.IsPhoneVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) GetByTag(ctx context.Context, tag string) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(smipay_tag)=lower($1)`, tag,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.SmipayTag,
		&u.ProfileImage, &u.IsEmailVerified, &u.IsPhoneVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *usersRepo) TagExists(ctx context.Context, tag string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(smipay_tag)=lower($1))`, tag,
	).Scan(&exists)
	return exists, err
}
