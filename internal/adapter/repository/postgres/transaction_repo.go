package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

const entryColumns = `e.id, e.account_id, e.entryable_type, e.entryable_id, e.amount, e.currency, e.date,
e.name, e.notes, e.excluded, e.pending, e.nature, e.state, e.deleted_at, e.created_at, e.updated_at`

const transactionColumns = `t.id, t.ledger_id, t.category_id, t.payee_id, t.kind, t.status, t.tags,
t.reimbursable, t.reimbursed, t.exclude_from_reports, t.exclude_from_budget,
t.original_transaction_id, t.related_transaction_id, t.fx_rate, t.external_id,
t.settled_at, t.reconciled_at, t.restored_at, t.state, t.deleted_at, t.created_at, t.updated_at, ` + entryColumns

const (
	insertEntrySQL = `INSERT INTO entries (
id, account_id, entryable_type, entryable_id, amount, currency, date,
name, notes, excluded, pending, nature, state, deleted_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	insertTransactionSQL = `INSERT INTO transactions (
id, ledger_id, account_id, entry_id, category_id, payee_id, kind, status, tags,
reimbursable, reimbursed, exclude_from_reports, exclude_from_budget,
original_transaction_id, related_transaction_id, fx_rate, external_id,
settled_at, reconciled_at, restored_at, state, deleted_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	updateEntrySQL = `UPDATE entries
SET amount = $2, date = $3, name = $4, notes = $5, excluded = $6, pending = $7,
    nature = $8, state = $9, deleted_at = $10, updated_at = $11
WHERE id = $1`

	updateTransactionSQL = `UPDATE transactions
SET category_id = $2, payee_id = $3, status = $4, tags = $5,
    reimbursable = $6, reimbursed = $7, exclude_from_reports = $8, exclude_from_budget = $9,
    related_transaction_id = $10, fx_rate = $11, settled_at = $12, reconciled_at = $13,
    restored_at = $14, state = $15, deleted_at = $16, updated_at = $17
WHERE id = $1`

	selectTransactionSQL = `SELECT ` + transactionColumns + `
FROM transactions t
JOIN entries e ON e.id = t.entry_id`

	getTransactionSQL = selectTransactionSQL + ` WHERE t.id = $1`

	getTransactionForUpdateSQL = getTransactionSQL + ` FOR UPDATE OF t, e`

	findByExternalIDSQL = selectTransactionSQL + `
WHERE t.account_id = $1 AND t.external_id = $2 AND t.state = 'active'
FOR UPDATE OF t, e`

	listByOriginalSQL = selectTransactionSQL + `
WHERE t.original_transaction_id = $1
ORDER BY t.created_at, t.id`

	listClearedForUpdateSQL = selectTransactionSQL + `
WHERE t.account_id = $1 AND t.state = 'active' AND t.status = 'cleared' AND e.date <= $2
ORDER BY t.id
FOR UPDATE OF t, e`
)

// TransactionRepository implements usecase.TransactionRepository. A
// transaction and its entry are always written together.
type TransactionRepository struct {
	db DBTX
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts the entry and then the transaction that owns it.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if t.Entry == nil {
		return fmt.Errorf("transaction %s has no entry", t.ID)
	}
	db := conn(tx)
	e := t.Entry

	ownerType, ownerID := domain.EntryableTransaction, t.ID
	if e.Entryable != nil {
		ownerType, ownerID = e.Entryable.EntryableType(), e.Entryable.EntryableID()
	}

	_, err := db.Exec(ctx, insertEntrySQL,
		e.ID,
		e.AccountID,
		string(ownerType),
		ownerID,
		decimalToNumeric(e.Amount.Amount),
		string(e.Amount.Currency),
		pgDate(e.Date),
		e.Name,
		e.Notes,
		e.Excluded,
		e.Pending,
		string(e.Nature),
		string(e.Lifecycle.State),
		lifecycleDeletedAt(e.Lifecycle),
		timeToPgTimestamptz(e.CreatedAt),
		timeToPgTimestamptz(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", mapWriteError(err))
	}

	_, err = db.Exec(ctx, insertTransactionSQL,
		t.ID,
		t.LedgerID,
		e.AccountID,
		e.ID,
		t.CategoryID,
		t.PayeeID,
		string(t.Kind),
		string(t.Status),
		tagsOrEmpty(t.Tags),
		t.Reimbursable,
		t.Reimbursed,
		t.ExcludeFromReports,
		t.ExcludeFromBudget,
		optionalText(t.OriginalTransactionID),
		optionalText(t.RelatedTransactionID),
		decimalPtrToNumeric(t.FxRate),
		optionalText(t.ExternalID),
		timePtrToPg(t.SettledAt),
		timePtrToPg(t.ReconciledAt),
		timePtrToPg(t.RestoredAt),
		string(t.Lifecycle.State),
		lifecycleDeletedAt(t.Lifecycle),
		timeToPgTimestamptz(t.CreatedAt),
		timeToPgTimestamptz(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", mapWriteError(err))
	}

	return nil
}

// Update writes the mutable columns of the transaction and its entry.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	db := conn(tx)
	e := t.Entry

	tag, err := db.Exec(ctx, updateEntrySQL,
		e.ID,
		decimalToNumeric(e.Amount.Amount),
		pgDate(e.Date),
		e.Name,
		e.Notes,
		e.Excluded,
		e.Pending,
		string(e.Nature),
		string(e.Lifecycle.State),
		lifecycleDeletedAt(e.Lifecycle),
		timeToPgTimestamptz(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s", domain.ErrTransactionNotFound, e.ID)
	}

	tag, err = db.Exec(ctx, updateTransactionSQL,
		t.ID,
		t.CategoryID,
		t.PayeeID,
		string(t.Status),
		tagsOrEmpty(t.Tags),
		t.Reimbursable,
		t.Reimbursed,
		t.ExcludeFromReports,
		t.ExcludeFromBudget,
		optionalText(t.RelatedTransactionID),
		decimalPtrToNumeric(t.FxRate),
		timePtrToPg(t.SettledAt),
		timePtrToPg(t.ReconciledAt),
		timePtrToPg(t.RestoredAt),
		string(t.Lifecycle.State),
		lifecycleDeletedAt(t.Lifecycle),
		timeToPgTimestamptz(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, t.ID)
	}

	return nil
}

// mapWriteError translates constraint violations on transaction rows into
// domain errors. Anything else is returned unchanged.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == externalIDConstraint:
		return fmt.Errorf("%w: %s", domain.ErrImportConflict, pgErr.Detail)
	case pgErr.Code == pgErrCheckViolation && pgErr.ConstraintName == natureSignConstraint:
		return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, pgErr.Message)
	}
	return err
}

// GetByID retrieves a transaction with its entry.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx, getTransactionSQL, id))
}

// GetByIDForUpdate retrieves and locks a transaction with its entry.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return scanTransaction(conn(tx).QueryRow(ctx, getTransactionForUpdateSQL, id))
}

// FindByExternalID locks the active transaction imported under externalID.
func (r *TransactionRepository) FindByExternalID(ctx context.Context, tx usecase.Transaction, accountID, externalID string) (*domain.Transaction, error) {
	return scanTransaction(conn(tx).QueryRow(ctx, findByExternalIDSQL, accountID, externalID))
}

// ListByOriginal lists the split children and refunds of a transaction.
func (r *TransactionRepository) ListByOriginal(ctx context.Context, tx usecase.Transaction, originalID string) ([]*domain.Transaction, error) {
	return r.list(ctx, conn(tx), listByOriginalSQL, originalID)
}

// ListClearedForUpdate locks the active cleared transactions of an account
// dated on or before asOf.
func (r *TransactionRepository) ListClearedForUpdate(ctx context.Context, tx usecase.Transaction, accountID string, asOf time.Time) ([]*domain.Transaction, error) {
	return r.list(ctx, conn(tx), listClearedForUpdateSQL, accountID, pgDate(asOf))
}

func (r *TransactionRepository) list(ctx context.Context, db DBTX, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t                                 domain.Transaction
		kind, status, state               string
		tags                              []string
		original, related, externalID     pgtype.Text
		fxRate                            pgtype.Numeric
		settledAt, reconciledAt, restored pgtype.Timestamptz
		deletedAt, createdAt, updatedAt   pgtype.Timestamptz
	)

	var (
		e                              domain.Entry
		ownerType, ownerID             string
		amount                         pgtype.Numeric
		currency, nature, entryState   string
		date                           pgtype.Date
		entryDeletedAt                 pgtype.Timestamptz
		entryCreatedAt, entryUpdatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&t.ID, &t.LedgerID, &t.CategoryID, &t.PayeeID, &kind, &status, &tags,
		&t.Reimbursable, &t.Reimbursed, &t.ExcludeFromReports, &t.ExcludeFromBudget,
		&original, &related, &fxRate, &externalID,
		&settledAt, &reconciledAt, &restored, &state, &deletedAt, &createdAt, &updatedAt,
		&e.ID, &e.AccountID, &ownerType, &ownerID, &amount, &currency, &date,
		&e.Name, &e.Notes, &e.Excluded, &e.Pending, &nature, &entryState, &entryDeletedAt,
		&entryCreatedAt, &entryUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	owner, err := domain.ParseEntryable(domain.EntryableType(ownerType), ownerID)
	if err != nil {
		return nil, err
	}
	e.Entryable = owner
	e.Amount = domain.Money{Amount: numericToDecimal(amount), Currency: domain.Currency(currency)}
	e.Date = date.Time
	e.Nature = domain.Nature(nature)
	e.Lifecycle = lifecycleOf(entryState, entryDeletedAt)
	e.CreatedAt = entryCreatedAt.Time.UTC()
	e.UpdatedAt = entryUpdatedAt.Time.UTC()

	t.EntryID = e.ID
	t.Entry = &e
	t.Kind = domain.TransactionKind(kind)
	t.Status = domain.TransactionStatus(status)
	t.Tags = tags
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.OriginalTransactionID = original.String
	t.RelatedTransactionID = related.String
	t.ExternalID = externalID.String
	t.FxRate = numericToDecimalPtr(fxRate)
	t.SettledAt = pgToTimePtr(settledAt)
	t.ReconciledAt = pgToTimePtr(reconciledAt)
	t.RestoredAt = pgToTimePtr(restored)
	t.Lifecycle = lifecycleOf(state, deletedAt)
	t.CreatedAt = createdAt.Time.UTC()
	t.UpdatedAt = updatedAt.Time.UTC()

	return &t, nil
}

func lifecycleOf(state string, deletedAt pgtype.Timestamptz) domain.Lifecycle {
	if domain.LifecycleState(state) == domain.LifecycleDeleted {
		return domain.DeletedAt(deletedAt.Time.UTC())
	}
	return domain.Active()
}

func lifecycleDeletedAt(l domain.Lifecycle) pgtype.Timestamptz {
	if !l.IsDeleted() {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(l.DeletedAt)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
