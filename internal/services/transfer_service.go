package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/smipay/smipay-backend/internal/apperr"
	"github.com/smipay/smipay-backend/internal/auth"
	"github.com/smipay/smipay-backend/internal/metrics"
	"github.com/smipay/smipay-backend/internal/models"
	"github.com/smipay/smipay-backend/internal/reference"
	repo "github.com/smipay/smipay-backend/internal/repository"
	"github.com/smipay/smipay-backend/internal/worker"
)

// recipientRefSuffix derives the credit-side reference from the debit-side
// one, so either half of a transfer can be located from the other without
// a join.
const recipientRefSuffix = "-R"

type TransferService struct {
	users   repo.Users
	wallets repo.Wallets
	trx     repo.Transactions
	audit   repo.AuditLogs
	store   repo.Store
	refs    *reference.Generator
	wp      *worker.Pool
}

func NewTransferService(
	users repo.Users,
	wallets repo.Wallets,
	trx repo.Transactions,
	audit repo.AuditLogs,
	store repo.Store,
	refs *reference.Generator,
	wp *worker.Pool,
) *TransferService {
	return &TransferService{
		users: users, wallets: wallets, trx: trx,
		audit: audit, store: store, refs: refs, wp: wp,
	}
}

type SendMoneyRequest struct {
	RecipientTag string `json:"recipient_tag"`
	Amount       int64  `json:"amount"`
	Narration    string `json:"narration"`
}

type TransferReceipt struct {
	TransactionID string             `json:"transaction_id"`
	Reference     string             `json:"reference"`
	Amount        int64              `json:"amount"`
	Currency      string             `json:"currency"`
	Recipient     models.UserSummary `json:"recipient"`
	NewBalance    int64              `json:"new_balance"`
	Status        string             `json:"status"`
}

// ResolveTag looks a user up by smipay tag and returns the public
// projection. The caller's own tag resolves to a validation failure, not a
// lookup miss: a user may not target themselves as a payee.
func (s *TransferService) ResolveTag(ctx context.Context, caller auth.Identity, tag string) (models.UserSummary, error) {
	normalized := models.NormalizeTag(tag)
	if normalized == "" {
		return models.UserSummary{}, apperr.Validation("smipay tag is required")
	}

	u, err := s.users.GetByTag(ctx, normalized)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserSummary{}, apperr.NotFound("no user with that smipay tag")
	}
	if err != nil {
		return models.UserSummary{}, apperr.Internal(err)
	}
	if u.ID == caller.UserID {
		return models.UserSummary{}, apperr.Validation("you cannot send money to yourself")
	}
	return u.Summary(), nil
}

// SendMoney executes a peer-to-peer transfer. Validation short-circuits
// before any mutation; the balance updates and both history rows commit as
// one unit or not at all.
func (s *TransferService) SendMoney(ctx context.Context, caller auth.Identity, req SendMoneyRequest) (TransferReceipt, error) {
	senderWallet, err := s.wallets.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return TransferReceipt{}, apperr.Conflict("wallet not set up, contact support")
	}
	if err != nil {
		return TransferReceipt{}, apperr.Internal(err)
	}
	if !senderWallet.Active {
		return TransferReceipt{}, apperr.Conflict("wallet is disabled, contact support")
	}

	sender, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return TransferReceipt{}, apperr.Internal(err)
	}
	if sender.SmipayTag == nil || *sender.SmipayTag == "" {
		return TransferReceipt{}, apperr.Validation("set up your smipay tag before sending money")
	}

	if req.Amount <= 0 {
		return TransferReceipt{}, apperr.Validation("amount must be greater than zero")
	}

	recipientTag := models.NormalizeTag(req.RecipientTag)
	if recipientTag == models.NormalizeTag(*sender.SmipayTag) {
		return TransferReceipt{}, apperr.Validation("you cannot send money to yourself")
	}

	if senderWallet.CurrentBalance < req.Amount {
		shortfall := req.Amount - senderWallet.CurrentBalance
		return TransferReceipt{}, apperr.Conflict(
			fmt.Sprintf("insufficient funds: you need %d more to complete this transfer", shortfall))
	}

	recipient, err := s.users.GetByTag(ctx, recipientTag)
	if errors.Is(err, pgx.ErrNoRows) {
		return TransferReceipt{}, apperr.NotFound("no user with that smipay tag")
	}
	if err != nil {
		return TransferReceipt{}, apperr.Internal(err)
	}
	recipientWallet, err := s.wallets.GetByUserID(ctx, recipient.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return TransferReceipt{}, apperr.NotFound("recipient cannot receive money yet")
	}
	if err != nil {
		return TransferReceipt{}, apperr.Internal(err)
	}
	if !recipientWallet.Active {
		return TransferReceipt{}, apperr.NotFound("recipient cannot receive money yet")
	}

	ref, err := s.refs.TransactionReference(ctx)
	if err != nil {
		return TransferReceipt{}, apperr.Internal(err)
	}
	sessionID := s.refs.SessionID()

	var (
		debitRow    models.TransactionHistory
		newBalance  int64
		description = req.Narration
	)
	if description == "" {
		description = "smipay transfer"
	}

	txErr := s.store.WithTx(ctx, func(tx pgx.Tx) error {
		// Lock both wallets in ascending user-id order so concurrent
		// opposite-direction transfers cannot deadlock.
		first, second := caller.UserID, recipient.ID
		if second < first {
			first, second = second, first
		}
		locked := map[string]models.Wallet{}
		for _, uid := range []string{first, second} {
			w, err := s.wallets.GetForUpdate(ctx, tx, uid)
			if err != nil {
				return err
			}
			locked[uid] = w
		}

		senderBefore := locked[caller.UserID].CurrentBalance
		recipientBefore := locked[recipient.ID].CurrentBalance
		if senderBefore < req.Amount {
			shortfall := req.Amount - senderBefore
			return apperr.Conflict(
				fmt.Sprintf("insufficient funds: you need %d more to complete this transfer", shortfall))
		}

		debited, err := s.wallets.ApplyDebit(ctx, tx, caller.UserID, req.Amount)
		if err != nil {
			return err
		}
		credited, err := s.wallets.ApplyCredit(ctx, tx, recipient.ID, req.Amount)
		if err != nil {
			return err
		}
		newBalance = debited.CurrentBalance

		debitRow, err = s.trx.Insert(ctx, tx, models.TransactionHistory{
			UserID:          caller.UserID,
			Amount:          req.Amount,
			TransactionType: models.TxnTypeTransfer,
			CreditDebit:     models.DirectionDebit,
			Description:     description,
			Status:          models.TxnStatusSuccessful,
			Currency:        models.CurrencyNGN,
			PaymentMethod:   models.PaymentMethodSmipay,
			PaymentChannel:  models.PaymentChannelTransfer,
			Reference:       ref,
			BalanceBefore:   senderBefore,
			BalanceAfter:    debited.CurrentBalance,
			SessionID:       sessionID,
			Metadata: map[string]any{
				models.MetaCounterpartyID:   recipient.ID,
				models.MetaCounterpartyTag:  recipientTag,
				models.MetaCounterpartyName: recipient.DisplayName(),
				models.MetaNarration:        description,
			},
		})
		if err != nil {
			return err
		}

		_, err = s.trx.Insert(ctx, tx, models.TransactionHistory{
			UserID:          recipient.ID,
			Amount:          req.Amount,
			TransactionType: models.TxnTypeTransfer,
			CreditDebit:     models.DirectionCredit,
			Description:     description,
			Status:          models.TxnStatusSuccessful,
			Currency:        models.CurrencyNGN,
			PaymentMethod:   models.PaymentMethodSmipay,
			PaymentChannel:  models.PaymentChannelTransfer,
			Reference:       ref + recipientRefSuffix,
			BalanceBefore:   recipientBefore,
			BalanceAfter:    credited.CurrentBalance,
			SessionID:       sessionID,
			Metadata: map[string]any{
				models.MetaCounterpartyID:   caller.UserID,
				models.MetaCounterpartyTag:  models.NormalizeTag(*sender.SmipayTag),
				models.MetaCounterpartyName: sender.DisplayName(),
				models.MetaNarration:        description,
			},
		})
		return err
	})
	if txErr != nil {
		metrics.TransfersFailed.Inc()
		if apperr.KindOf(txErr) != apperr.KindInternal {
			return TransferReceipt{}, txErr
		}
		slog.Error("transfer transaction failed", "err", txErr,
			"sender", caller.UserID, "recipient", recipient.ID)
		return TransferReceipt{}, apperr.Internal(txErr)
	}

	metrics.TransfersTotal.Inc()
	s.enqueueAudit(debitRow, recipient.ID)

	return TransferReceipt{
		TransactionID: debitRow.ID,
		Reference:     ref,
		Amount:        req.Amount,
		Currency:      models.CurrencyNGN,
		Recipient:     recipient.Summary(),
		NewBalance:    newBalance,
		Status:        models.TxnStatusSuccessful,
	}, nil
}

// GetByReference returns the immutable history row for a committed
// transaction.
func (s *TransferService) GetByReference(ctx context.Context, caller auth.Identity, ref string) (models.TransactionHistory, error) {
	h, err := s.trx.GetByReference(ctx, ref)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TransactionHistory{}, apperr.NotFound("transaction not found")
	}
	if err != nil {
		return models.TransactionHistory{}, apperr.Internal(err)
	}
	if h.UserID != caller.UserID {
		return models.TransactionHistory{}, apperr.NotFound("transaction not found")
	}
	return h, nil
}

func (s *TransferService) enqueueAudit(debit models.TransactionHistory, recipientID string) {
	id := debit.ID
	s.wp.Submit(func() {
		err := s.audit.Create(context.Background(), models.AuditLog{
			EntityType: "transfer",
			EntityID:   &id,
			Action:     "completed",
			Details: map[string]any{
				"reference":  debit.Reference,
				"session_id": debit.SessionID,
				"amount":     debit.Amount,
				"sender":     debit.UserID,
				"recipient":  recipientID,
			},
		})
		if err != nil {
			slog.Error("audit write failed", "err", err, "transaction_id", id)
		}
	})
}
