package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/smipay/smipay-backend/internal/apperr"
	"github.com/smipay/smipay-backend/internal/auth"
	"github.com/smipay/smipay-backend/internal/models"
	repo "github.com/smipay/smipay-backend/internal/repository"
)

type WalletService struct {
	wallets repo.Wallets
}

func NewWalletService(wallets repo.Wallets) *WalletService {
	return &WalletService{wallets: wallets}
}

func (s *WalletService) Current(ctx context.Context, caller auth.Identity) (models.Wallet, error) {
	w, err := s.wallets.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, apperr.Conflict("wallet not set up, contact support")
	}
	if err != nil {
		return models.Wallet{}, apperr.Internal(err)
	}
	return w, nil
}
