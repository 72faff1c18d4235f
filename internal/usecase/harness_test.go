package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
	"github.com/jive/ledgerengine/internal/usecase/mocks"
)

const testLedger = "ledger-1"

type harness struct {
	store        *mocks.Store
	txManager    *mocks.MockTransactionManager
	accounts     *mocks.MockAccountRepository
	transactions *mocks.MockTransactionRepository
	splits       *mocks.MockSplitRepository
	idempotency  *mocks.MockIdempotencyRepository
	ledger       *mocks.MockLedgerRepository
	service      *usecase.TransactionService

	requests atomic.Int64
}

func newHarness(t *testing.T, configure ...func(*usecase.TransactionServiceDeps)) *harness {
	t.Helper()

	store := mocks.NewStore()
	h := &harness{
		store:        store,
		txManager:    mocks.NewMockTransactionManager(store),
		accounts:     mocks.NewMockAccountRepository(store),
		transactions: mocks.NewMockTransactionRepository(store),
		splits:       mocks.NewMockSplitRepository(store),
		idempotency:  mocks.NewMockIdempotencyRepository(store),
		ledger:       mocks.NewMockLedgerRepository(store),
	}

	deps := usecase.TransactionServiceDeps{
		TxManager:      h.txManager,
		Accounts:       h.accounts,
		Transactions:   h.transactions,
		Entries:        mocks.NewMockEntryRepository(store),
		Splits:         h.splits,
		BalanceHistory: mocks.NewMockBalanceHistoryRepository(store),
		Idempotency:    h.idempotency,
		IDGenerator:    mocks.NewMockIDGenerator(),
		Logger:         zerolog.Nop(),
	}
	for _, fn := range configure {
		fn(&deps)
	}
	h.service = usecase.NewTransactionService(deps)

	return h
}

func (h *harness) nextRequest() string {
	return fmt.Sprintf("req-%d", h.requests.Add(1))
}

// openAccount creates an account and, for a non-zero opening balance, an
// opening transaction so the balance is backed by an entry.
func (h *harness) openAccount(t *testing.T, id string, kind domain.AccountKind, currency domain.Currency, opening string) {
	t.Helper()

	h.store.PutAccount(&domain.Account{
		ID:       id,
		LedgerID: testLedger,
		Name:     id,
		Kind:     kind,
		Currency: currency,
		Balance:  decimal.Zero,
		Status:   domain.AccountStatusActive,
	})

	amount := decimal.RequireFromString(opening)
	if amount.IsZero() {
		return
	}
	_, err := h.service.CreateTransaction(context.Background(), usecase.CreateTransactionCommand{
		RequestID: h.nextRequest(),
		LedgerID:  testLedger,
		AccountID: id,
		Amount:    amount,
		Name:      "Opening balance",
	})
	require.NoError(t, err)
}

func (h *harness) create(t *testing.T, accountID, amount string) *domain.Transaction {
	t.Helper()

	res, err := h.service.CreateTransaction(context.Background(), usecase.CreateTransactionCommand{
		RequestID: h.nextRequest(),
		LedgerID:  testLedger,
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
		Name:      "Groceries",
	})
	require.NoError(t, err)
	return res.Transaction
}

func (h *harness) balance(id string) string {
	return h.store.Account(id).BalanceMoney().StringFixed()
}

// requireConserved checks that every balance equals the sum of its active entries.
func (h *harness) requireConserved(t *testing.T) {
	t.Helper()

	drifts, err := h.ledger.CheckConsistency(context.Background())
	require.NoError(t, err)
	require.Empty(t, drifts)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// retryOnConflict re-runs an operation while it fails with ErrConcurrentRequest.
type retryOnConflict struct {
	attempts atomic.Int32
}

func (r *retryOnConflict) Retry(ctx context.Context, op func() error) error {
	var err error
	for i := 0; i < 5; i++ {
		r.attempts.Add(1)
		if err = op(); !errors.Is(err, domain.ErrConcurrentRequest) {
			return err
		}
	}
	return err
}
