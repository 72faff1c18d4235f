package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

var transactionColumnNames = []string{
	"id", "ledger_id", "category_id", "payee_id", "kind", "status", "tags",
	"reimbursable", "reimbursed", "exclude_from_reports", "exclude_from_budget",
	"original_transaction_id", "related_transaction_id", "fx_rate", "external_id",
	"settled_at", "reconciled_at", "restored_at", "state", "deleted_at", "created_at", "updated_at",
	"entry_id", "account_id", "entryable_type", "entryable_id", "amount", "currency", "date",
	"name", "notes", "excluded", "pending", "nature", "entry_state", "entry_deleted_at",
	"entry_created_at", "entry_updated_at",
}

func sampleTransaction() *domain.Transaction {
	at := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	rate := decimal.RequireFromString("0.92")
	return &domain.Transaction{
		ID:                   "tx-1",
		LedgerID:             "ledger-1",
		EntryID:              "entry-1",
		Kind:                 domain.KindTransfer,
		Status:               domain.StatusCleared,
		Tags:                 []string{"travel"},
		RelatedTransactionID: "tx-2",
		FxRate:               &rate,
		Lifecycle:            domain.Active(),
		CreatedAt:            at,
		UpdatedAt:            at,
		Entry: &domain.Entry{
			ID:        "entry-1",
			AccountID: "acc-1",
			Entryable: domain.TransactionRef{ID: "tx-1"},
			Amount:    domain.Money{Amount: decimal.RequireFromString("-50.00"), Currency: domain.USD},
			Date:      domain.DateOf(at),
			Name:      "Transfer from acc-1 to acc-2",
			Nature:    domain.NatureOutflow,
			Lifecycle: domain.Active(),
			CreatedAt: at,
			UpdatedAt: at,
		},
	}
}

func transactionRow(t *domain.Transaction) []any {
	e := t.Entry
	return []any{
		t.ID, t.LedgerID, t.CategoryID, t.PayeeID, string(t.Kind), string(t.Status), t.Tags,
		t.Reimbursable, t.Reimbursed, t.ExcludeFromReports, t.ExcludeFromBudget,
		optionalText(t.OriginalTransactionID), optionalText(t.RelatedTransactionID),
		decimalPtrToNumeric(t.FxRate), optionalText(t.ExternalID),
		timePtrToPg(t.SettledAt), timePtrToPg(t.ReconciledAt), timePtrToPg(t.RestoredAt),
		string(t.Lifecycle.State), lifecycleDeletedAt(t.Lifecycle),
		timeToPgTimestamptz(t.CreatedAt), timeToPgTimestamptz(t.UpdatedAt),
		e.ID, e.AccountID, string(domain.EntryableTransaction), t.ID,
		decimalToNumeric(e.Amount.Amount), string(e.Amount.Currency), pgDate(e.Date),
		e.Name, e.Notes, e.Excluded, e.Pending, string(e.Nature),
		string(e.Lifecycle.State), pgtype.Timestamptz{},
		timeToPgTimestamptz(e.CreatedAt), timeToPgTimestamptz(e.UpdatedAt),
	}
}

func TestTransactionRepositoryCreateWritesEntryFirst(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	tx := beginTx(t, pool)
	txn := sampleTransaction()

	entryArgs := make([]any, 16)
	for i := range entryArgs {
		entryArgs[i] = pgxmock.AnyArg()
	}
	entryArgs[0], entryArgs[1], entryArgs[2], entryArgs[3] = "entry-1", "acc-1", "Transaction", "tx-1"

	txArgs := make([]any, 24)
	for i := range txArgs {
		txArgs[i] = pgxmock.AnyArg()
	}
	txArgs[0], txArgs[2], txArgs[3] = "tx-1", "acc-1", "entry-1"

	pool.ExpectExec(insertEntrySQL).WithArgs(entryArgs...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec(insertTransactionSQL).WithArgs(txArgs...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), tx, txn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	want := sampleTransaction()

	pool.ExpectQuery(getTransactionSQL).
		WithArgs("tx-1").
		WillReturnRows(pgxmock.NewRows(transactionColumnNames).AddRow(transactionRow(want)...))

	got, err := repo.GetByID(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.AccountID() != "acc-1" || got.EntryID != "entry-1" {
		t.Fatalf("unexpected ids %+v", got)
	}
	if !got.Entry.Amount.Amount.Equal(want.Entry.Amount.Amount) || got.Entry.Nature != domain.NatureOutflow {
		t.Fatalf("unexpected entry %+v", got.Entry)
	}
	if got.FxRate == nil || !got.FxRate.Equal(*want.FxRate) {
		t.Fatalf("expected fx rate %s, got %v", want.FxRate, got.FxRate)
	}
	if got.RelatedTransactionID != "tx-2" || got.OriginalTransactionID != "" {
		t.Fatalf("unexpected links %q/%q", got.RelatedTransactionID, got.OriginalTransactionID)
	}
	if ref, ok := got.Entry.Entryable.(domain.TransactionRef); !ok || ref.ID != "tx-1" {
		t.Fatalf("unexpected owner %#v", got.Entry.Entryable)
	}
	if got.IsDeleted() || got.SettledAt != nil {
		t.Fatalf("unexpected lifecycle %+v", got.Lifecycle)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	tx := beginTx(t, pool)

	pool.ExpectQuery(getTransactionForUpdateSQL).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	pool.ExpectQuery(findByExternalIDSQL).WithArgs("acc-1", "ext-1").WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByIDForUpdate(context.Background(), tx, "missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if _, err := repo.FindByExternalID(context.Background(), tx, "acc-1", "ext-1"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryUpdateMissing(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	tx := beginTx(t, pool)

	entryArgs := make([]any, 11)
	for i := range entryArgs {
		entryArgs[i] = pgxmock.AnyArg()
	}
	pool.ExpectExec(updateEntrySQL).WithArgs(entryArgs...).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), tx, sampleTransaction())
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestTransactionRepositoryRestoreOverActiveExternalID(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	tx := beginTx(t, pool)

	txn := sampleTransaction()
	txn.ExternalID = "ext-1"

	pool.ExpectExec(updateEntrySQL).WithArgs(anyArgs(11)...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectExec(updateTransactionSQL).WithArgs(anyArgs(17)...).WillReturnError(&pgconn.PgError{
		Code:           pgErrUniqueViolation,
		ConstraintName: externalIDConstraint,
		Detail:         "Key (account_id, external_id)=(acc-1, ext-1) already exists.",
	})

	err := repo.Update(context.Background(), tx, txn)
	if !errors.Is(err, domain.ErrImportConflict) {
		t.Fatalf("expected ErrImportConflict, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestTransactionRepositoryCreateRejectsSignMismatch(t *testing.T) {
	pool := newMockPool(t)
	repo := NewTransactionRepository(pool)
	tx := beginTx(t, pool)

	pool.ExpectExec(insertEntrySQL).WithArgs(anyArgs(16)...).WillReturnError(&pgconn.PgError{
		Code:           pgErrCheckViolation,
		ConstraintName: natureSignConstraint,
		Message:        `new row for relation "entries" violates check constraint "entries_nature_sign"`,
	})

	err := repo.Create(context.Background(), tx, sampleTransaction())
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestMapWriteErrorPassesOtherErrorsThrough(t *testing.T) {
	deadlock := &pgconn.PgError{Code: pgErrDeadlock}
	if got := mapWriteError(deadlock); got != error(deadlock) {
		t.Fatalf("expected deadlock to pass through, got %v", got)
	}

	other := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "transactions_pkey"}
	if errors.Is(mapWriteError(other), domain.ErrImportConflict) {
		t.Fatalf("primary key violation must not map to an import conflict")
	}
}
