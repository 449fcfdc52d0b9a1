package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/smipay/smipay-backend/internal/apperr"
	"github.com/smipay/smipay-backend/internal/auth"
	"github.com/smipay/smipay-backend/internal/models"
	"github.com/smipay/smipay-backend/internal/reference"
	"github.com/smipay/smipay-backend/internal/worker"
)

// --- Mocks ---

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, u models.User) (models.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(models.User), args.Error(1)
}
func (m *mockUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}
func (m *mockUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}
func (m *mockUsers) GetByTag(ctx context.Context, tag string) (models.User, error) {
	args := m.Called(ctx, tag)
	return args.Get(0).(models.User), args.Error(1)
}
func (m *mockUsers) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

type mockWallets struct{ mock.Mock }

func (m *mockWallets) Create(ctx context.Context, userID string) (models.Wallet, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Wallet), args.Error(1)
}
func (m *mockWallets) GetByUserID(ctx context.Context, userID string) (models.Wallet, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Wallet), args.Error(1)
}
func (m *mockWallets) GetForUpdate(ctx context.Context, tx pgx.Tx, userID string) (models.Wallet, error) {
	args := m.Called(ctx, tx, userID)
	return args.Get(0).(models.Wallet), args.Error(1)
}
func (m *mockWallets) ApplyDebit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (models.Wallet, error) {
	args := m.Called(ctx, tx, userID, amount)
	return args.Get(0).(models.Wallet), args.Error(1)
}
func (m *mockWallets) ApplyCredit(ctx context.Context, tx pgx.Tx, userID string, amount int64) (models.Wallet, error) {
	args := m.Called(ctx, tx, userID, amount)
	return args.Get(0).(models.Wallet), args.Error(1)
}

// fakeTransactions records inserts and serves reference lookups.
type fakeTransactions struct {
	mu       sync.Mutex
	inserted []models.TransactionHistory
	byRef    map[string]models.TransactionHistory
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{byRef: map[string]models.TransactionHistory{}}
}

func (f *fakeTransactions) Insert(_ context.Context, _ pgx.Tx, h models.TransactionHistory) (models.TransactionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.ID == "" {
		h.ID = fmt.Sprintf("hist-%d", len(f.inserted)+1)
	}
	h.CreatedAt = time.Now()
	f.inserted = append(f.inserted, h)
	f.byRef[h.Reference] = h
	return h, nil
}

func (f *fakeTransactions) GetByReference(_ context.Context, reference string) (models.TransactionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.byRef[reference]
	if !ok {
		return models.TransactionHistory{}, pgx.ErrNoRows
	}
	return h, nil
}

func (f *fakeTransactions) ReferenceExists(_ context.Context, reference string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byRef[reference]
	return ok, nil
}

func (f *fakeTransactions) CountRecentByUser(context.Context, string, []string, time.Time) (int, error) {
	return 0, nil
}

func (f *fakeTransactions) rows() []models.TransactionHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TransactionHistory, len(f.inserted))
	copy(out, f.inserted)
	return out
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (f *fakeAudit) Create(_ context.Context, l models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

type fakeStore struct{ err error }

func (s fakeStore) WithTx(_ context.Context, fn func(pgx.Tx) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(nil)
}

// --- Fixture ---

const (
	senderID    = "11111111-1111-1111-1111-111111111111"
	recipientID = "22222222-2222-2222-2222-222222222222"
)

func strPtr(s string) *string { return &s }

func sender() models.User {
	return models.User{
		ID: senderID, FirstName: "Ada", LastName: "Obi",
		Email: "ada@example.com", SmipayTag: strPtr("smileabc"),
	}
}

func recipient() models.User {
	return models.User{
		ID: recipientID, FirstName: "Bola", LastName: "Eze",
		Email: "bola@example.com", SmipayTag: strPtr("smilexyz"),
	}
}

type fixture struct {
	users   *mockUsers
	wallets *mockWallets
	trx     *fakeTransactions
	audit   *fakeAudit
	wp      *worker.Pool
	svc     *TransferService
}

func newFixture(store fakeStore) *fixture {
	f := &fixture{
		users:   &mockUsers{},
		wallets: &mockWallets{},
		trx:     newFakeTransactions(),
		audit:   &fakeAudit{},
		wp:      worker.NewPool(1),
	}
	refs := reference.NewGenerator(f.trx, nil, nil)
	f.svc = NewTransferService(f.users, f.wallets, f.trx, f.audit, store, refs, f.wp)
	return f
}

func (f *fixture) caller() auth.Identity {
	return auth.Identity{UserID: senderID, Email: "ada@example.com"}
}

// --- SendMoney ---

func TestSendMoney_Success(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)
	f.users.On("GetByTag", mock.Anything, "smilexyz").Return(recipient(), nil)
	f.wallets.On("GetByUserID", mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 1000, Active: true}, nil)

	f.wallets.On("GetForUpdate", mock.Anything, mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.wallets.On("GetForUpdate", mock.Anything, mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 1000, Active: true}, nil)
	f.wallets.On("ApplyDebit", mock.Anything, mock.Anything, senderID, int64(2000)).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 3000, Active: true}, nil)
	f.wallets.On("ApplyCredit", mock.Anything, mock.Anything, recipientID, int64(2000)).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 3000, Active: true}, nil)

	receipt, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 2000, Narration: "lunch",
	})
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.Reference, "R-"))
	assert.Equal(t, int64(3000), receipt.NewBalance)
	assert.Equal(t, int64(2000), receipt.Amount)
	assert.Equal(t, models.TxnStatusSuccessful, receipt.Status)
	assert.Equal(t, "smilexyz", receipt.Recipient.SmipayTag)

	rows := f.trx.rows()
	assert.Len(t, rows, 2)
	debit, credit := rows[0], rows[1]

	assert.Equal(t, models.DirectionDebit, debit.CreditDebit)
	assert.Equal(t, models.DirectionCredit, credit.CreditDebit)
	assert.Equal(t, debit.Amount, credit.Amount)
	assert.Equal(t, debit.SessionID, credit.SessionID)
	assert.Equal(t, debit.Reference+"-R", credit.Reference)

	// conservation: total before equals total after
	assert.Equal(t,
		debit.BalanceBefore+credit.BalanceBefore,
		debit.BalanceAfter+credit.BalanceAfter)
	assert.Equal(t, debit.BalanceBefore-debit.Amount, debit.BalanceAfter)
	assert.Equal(t, credit.BalanceBefore+credit.Amount, credit.BalanceAfter)

	f.wp.Stop()
	assert.Len(t, f.audit.logs, 1)
	assert.Equal(t, "transfer", f.audit.logs[0].EntityType)
}

func TestSendMoney_ExactBalanceLeavesZero(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 2000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)
	f.users.On("GetByTag", mock.Anything, "smilexyz").Return(recipient(), nil)
	f.wallets.On("GetByUserID", mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 0, Active: true}, nil)
	f.wallets.On("GetForUpdate", mock.Anything, mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 2000, Active: true}, nil)
	f.wallets.On("GetForUpdate", mock.Anything, mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 0, Active: true}, nil)
	f.wallets.On("ApplyDebit", mock.Anything, mock.Anything, senderID, int64(2000)).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 0, Active: true}, nil)
	f.wallets.On("ApplyCredit", mock.Anything, mock.Anything, recipientID, int64(2000)).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 2000, Active: true}, nil)

	receipt, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 2000,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), receipt.NewBalance)
}

func TestSendMoney_InsufficientFunds(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 100, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)

	_, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 500,
	})
	assert.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.Contains(t, err.Error(), "400") // states the shortfall

	assert.Empty(t, f.trx.rows())
	f.wallets.AssertNotCalled(t, "ApplyDebit")
}

func TestSendMoney_RecipientNotFound(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)
	f.users.On("GetByTag", mock.Anything, "ghost").Return(models.User{}, pgx.ErrNoRows)

	_, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "ghost", Amount: 100,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Empty(t, f.trx.rows())
}

func TestSendMoney_SelfTransferCaseInsensitive(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)

	_, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "SmileABC", Amount: 100,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.users.AssertNotCalled(t, "GetByTag")
}

func TestSendMoney_ZeroAmount(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)

	_, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 0,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSendMoney_NoTagConfigured(t *testing.T) {
	f := newFixture(fakeStore{})

	noTag := sender()
	noTag.SmipayTag = nil
	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(noTag, nil)

	_, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 100,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSendMoney_WalletMissing(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{}, pgx.ErrNoRows)

	_, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 100,
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSendMoney_StoreFailureSurfacesAsInternal(t *testing.T) {
	f := newFixture(fakeStore{err: assert.AnError})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)
	f.users.On("GetByTag", mock.Anything, "smilexyz").Return(recipient(), nil)
	f.wallets.On("GetByUserID", mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 0, Active: true}, nil)

	_, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 100,
	})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Empty(t, f.trx.rows())
}

// A concurrent transfer drained the wallet between the precondition check
// and the row lock: the locked re-check must still refuse the transfer.
func TestSendMoney_RecheckUnderLock(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)
	f.users.On("GetByTag", mock.Anything, "smilexyz").Return(recipient(), nil)
	f.wallets.On("GetByUserID", mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 0, Active: true}, nil)
	f.wallets.On("GetForUpdate", mock.Anything, mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 1000, Active: true}, nil)
	f.wallets.On("GetForUpdate", mock.Anything, mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 0, Active: true}, nil)

	_, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 2000,
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, f.trx.rows())
	f.wallets.AssertNotCalled(t, "ApplyDebit")
}

// --- ResolveTag ---

func TestResolveTag_NormalizesCase(t *testing.T) {
	f := newFixture(fakeStore{})
	f.users.On("GetByTag", mock.Anything, "smilexyz").Return(recipient(), nil)

	summary, err := f.svc.ResolveTag(context.Background(), f.caller(), "  SmileXYZ ")
	assert.NoError(t, err)
	assert.Equal(t, recipientID, summary.ID)
	assert.Equal(t, "Bola Eze", summary.Name)
	f.users.AssertCalled(t, "GetByTag", mock.Anything, "smilexyz")
}

func TestResolveTag_SelfLookupRejected(t *testing.T) {
	f := newFixture(fakeStore{})
	f.users.On("GetByTag", mock.Anything, "smileabc").Return(sender(), nil)

	_, err := f.svc.ResolveTag(context.Background(), f.caller(), "SmileABC")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestResolveTag_NotFound(t *testing.T) {
	f := newFixture(fakeStore{})
	f.users.On("GetByTag", mock.Anything, "ghost").Return(models.User{}, pgx.ErrNoRows)

	_, err := f.svc.ResolveTag(context.Background(), f.caller(), "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestResolveTag_Empty(t *testing.T) {
	f := newFixture(fakeStore{})

	_, err := f.svc.ResolveTag(context.Background(), f.caller(), "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

// --- GetByReference ---

func TestGetByReference_ImmutableRoundTrip(t *testing.T) {
	f := newFixture(fakeStore{})

	f.wallets.On("GetByUserID", mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.users.On("GetByID", mock.Anything, senderID).Return(sender(), nil)
	f.users.On("GetByTag", mock.Anything, "smilexyz").Return(recipient(), nil)
	f.wallets.On("GetByUserID", mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 1000, Active: true}, nil)
	f.wallets.On("GetForUpdate", mock.Anything, mock.Anything, senderID).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 5000, Active: true}, nil)
	f.wallets.On("GetForUpdate", mock.Anything, mock.Anything, recipientID).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 1000, Active: true}, nil)
	f.wallets.On("ApplyDebit", mock.Anything, mock.Anything, senderID, int64(2000)).
		Return(models.Wallet{UserID: senderID, CurrentBalance: 3000, Active: true}, nil)
	f.wallets.On("ApplyCredit", mock.Anything, mock.Anything, recipientID, int64(2000)).
		Return(models.Wallet{UserID: recipientID, CurrentBalance: 3000, Active: true}, nil)

	receipt, err := f.svc.SendMoney(context.Background(), f.caller(), SendMoneyRequest{
		RecipientTag: "smilexyz", Amount: 2000,
	})
	assert.NoError(t, err)

	first, err := f.svc.GetByReference(context.Background(), f.caller(), receipt.Reference)
	assert.NoError(t, err)
	second, err := f.svc.GetByReference(context.Background(), f.caller(), receipt.Reference)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, receipt.Amount, first.Amount)
}

func TestGetByReference_OtherUsersRowHidden(t *testing.T) {
	f := newFixture(fakeStore{})
	_, _ = f.trx.Insert(context.Background(), nil, models.TransactionHistory{
		UserID: recipientID, Reference: "R-OTHER", Amount: 10,
	})

	_, err := f.svc.GetByReference(context.Background(), f.caller(), "R-OTHER")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
