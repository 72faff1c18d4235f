package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

func sampleTransaction() *domain.Transaction {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	amount, _ := domain.ParseMoney("-12.5", domain.USD)
	return &domain.Transaction{
		ID:       "tx-1",
		LedgerID: "ledger-1",
		EntryID:  "entry-1",
		Entry: &domain.Entry{
			ID:        "entry-1",
			AccountID: "acc-1",
			Entryable: domain.TransactionRef{ID: "tx-1"},
			Amount:    amount,
			Date:      now,
			Name:      "Coffee",
			Nature:    domain.NatureOutflow,
			Lifecycle: domain.Active(),
		},
		Kind:      domain.KindStandard,
		Status:    domain.StatusCleared,
		Lifecycle: domain.Active(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:        "acc-1",
		LedgerID:  "ledger-1",
		Name:      "Main",
		Kind:      domain.AccountKindChecking,
		Currency:  domain.USD,
		Balance:   decimal.RequireFromString("100.5"),
		Status:    domain.AccountStatusActive,
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
	}

	resp := AccountFromDomain(account)

	if resp.ID != "acc-1" || resp.Kind != "checking" || resp.Currency != "USD" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Balance != "100.50" {
		t.Fatalf("expected balance rendered at currency precision, got %s", resp.Balance)
	}
	if resp.Version != 3 || resp.Status != "active" {
		t.Fatalf("unexpected response %+v", resp)
	}

	list := AccountsFromDomain([]*domain.Account{account, account})
	if len(list) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(list))
	}
}

func TestTransactionFromDomain(t *testing.T) {
	tx := sampleTransaction()

	resp := TransactionFromDomain(tx)

	if resp.AccountID != "acc-1" || resp.Amount != "-12.50" || resp.Currency != "USD" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Nature != "outflow" || resp.Name != "Coffee" {
		t.Fatalf("unexpected entry fields %+v", resp)
	}
	if resp.Tags == nil {
		t.Fatal("expected tags to render as an empty list")
	}
	if resp.Deleted || resp.DeletedAt != nil {
		t.Fatalf("expected active transaction, got %+v", resp)
	}

	deletedAt := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	tx.Lifecycle = domain.DeletedAt(deletedAt)
	resp = TransactionFromDomain(tx)
	if !resp.Deleted || resp.DeletedAt == nil || !resp.DeletedAt.Equal(deletedAt) {
		t.Fatalf("expected deletion to be reported, got %+v", resp)
	}

	if TransactionFromDomain(nil) != nil {
		t.Fatal("expected nil for nil transaction")
	}
}

func TestEntryFromDomain(t *testing.T) {
	entry := sampleTransaction().Entry

	resp := EntryFromDomain(entry)

	if resp.TransactionID != "tx-1" || resp.Amount != "-12.50" || resp.Deleted {
		t.Fatalf("unexpected response %+v", resp)
	}
}
