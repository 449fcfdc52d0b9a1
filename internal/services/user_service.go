package services

import (
	"context"
	"strings"

	"github.com/smipay/smipay-backend/internal/apperr"
	"github.com/smipay/smipay-backend/internal/auth"
	"github.com/smipay/smipay-backend/internal/models"
	"github.com/smipay/smipay-backend/internal/reference"
	repo "github.com/smipay/smipay-backend/internal/repository"
)

type UserService struct {
	users   repo.Users
	wallets repo.Wallets
	refs    *reference.Generator
}

func NewUserService(users repo.Users, wallets repo.Wallets, refs *reference.Generator) *UserService {
	return &UserService{users: users, wallets: wallets, refs: refs}
}

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Register creates a user with a hashed password, an auto-generated unique
// smipay tag, and a zero-balance wallet. Token issuance stays with the
// identity collaborator.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	u := models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
	}
	if err := u.Validate(); err != nil {
		return models.User{}, apperr.Validation(err.Error())
	}
	if len(req.Password) < 8 {
		return models.User{}, apperr.Validation("password must be at least 8 characters")
	}

	if _, err := s.users.GetByEmail(ctx, u.Email); err == nil {
		return models.User{}, apperr.Conflict("an account with that email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	u.PasswordHash = hash

	tag, err := s.refs.SmipayTag(ctx)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	u.SmipayTag = &tag

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	if _, err := s.wallets.Create(ctx, created.ID); err != nil {
		return models.User{}, apperr.Internal(err)
	}
	return created, nil
}
