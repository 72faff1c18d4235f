package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

var accountColumnNames = []string{"id", "ledger_id", "name", "kind", "currency", "balance", "status", "version", "created_at", "updated_at"}

func accountRow(id, balance string) []any {
	at := timeToPgTimestamptz(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	return []any{
		id, "ledger-1", "Everyday", "checking", "USD",
		decimalToNumeric(decimal.RequireFromString(balance)),
		"active", int64(3), at, at,
	}
}

func TestAccountRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)

	pool.ExpectQuery(getAccountSQL).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumnNames).AddRow(accountRow("acc-1", "125.50")...))

	acc, err := repo.GetByID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if acc.Kind != domain.AccountKindChecking || acc.Currency != domain.USD {
		t.Fatalf("unexpected account %+v", acc)
	}
	if !acc.Balance.Equal(decimal.RequireFromString("125.50")) {
		t.Fatalf("expected balance 125.50, got %s", acc.Balance)
	}
	if acc.Version != 3 || acc.Status != domain.AccountStatusActive {
		t.Fatalf("unexpected version/status %d/%s", acc.Version, acc.Status)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)

	pool.ExpectQuery(getAccountSQL).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountRepositoryLocksInOrder(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)
	tx := beginTx(t, pool)

	ids := []string{"acc-a", "acc-b"}
	pool.ExpectQuery(getAccountsForUpdateSQL).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows(accountColumnNames).
			AddRow(accountRow("acc-a", "10")...).
			AddRow(accountRow("acc-b", "20")...))

	accounts, err := repo.GetByIDsForUpdate(context.Background(), tx, ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 || accounts[0].ID != "acc-a" || accounts[1].ID != "acc-b" {
		t.Fatalf("unexpected accounts %+v", accounts)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryUpdateBalance(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)
	tx := beginTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectExec(updateAccountBalanceSQL).
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectExec(updateAccountBalanceSQL).
		WithArgs("gone", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdateBalance(context.Background(), tx, "acc-1", decimal.RequireFromString("10.00"), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := repo.UpdateBalance(context.Background(), tx, "gone", decimal.Zero, now)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryCreate(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAccountRepository(pool)
	now := time.Now().UTC()

	pool.ExpectExec(createAccountSQL).
		WithArgs("acc-1", "ledger-1", "Card", "credit_card", "EUR",
			pgxmock.AnyArg(), "active", int64(0), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &domain.Account{
		ID:        "acc-1",
		LedgerID:  "ledger-1",
		Name:      "Card",
		Kind:      domain.AccountKindCreditCard,
		Currency:  domain.EUR,
		Balance:   decimal.Zero,
		Status:    domain.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}
