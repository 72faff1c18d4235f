package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

const (
	listEntriesByAccountSQL = `SELECT ` + entryColumns + `
FROM entries e
WHERE e.account_id = $1 AND e.state = 'active'
ORDER BY e.date DESC, e.id DESC
LIMIT $2 OFFSET $3`

	sumPostedSQL = `SELECT COALESCE(SUM(amount), 0)
FROM entries
WHERE account_id = $1 AND state = 'active' AND NOT pending AND date <= $2`

	pendingSummarySQL = `SELECT COALESCE(SUM(amount) FILTER (WHERE pending), 0), MAX(date)
FROM entries
WHERE account_id = $1 AND state = 'active'`
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// ListByAccount lists the active entries of an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, listEntriesByAccountSQL, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// SumPosted sums active, non-pending entries dated on or before asOf.
func (r *EntryRepository) SumPosted(ctx context.Context, tx usecase.Transaction, accountID string, asOf time.Time) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	if err := conn(tx).QueryRow(ctx, sumPostedSQL, accountID, pgDate(asOf)).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return numericToDecimal(sum), nil
}

// PendingSummary sums active pending entries and returns the latest entry date.
func (r *EntryRepository) PendingSummary(ctx context.Context, accountID string) (decimal.Decimal, *time.Time, error) {
	var (
		sum  pgtype.Numeric
		last pgtype.Date
	)
	if err := r.db.QueryRow(ctx, pendingSummarySQL, accountID).Scan(&sum, &last); err != nil {
		return decimal.Zero, nil, err
	}

	if !last.Valid {
		return numericToDecimal(sum), nil, nil
	}
	at := last.Time
	return numericToDecimal(sum), &at, nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		e                    domain.Entry
		ownerType, ownerID   string
		amount               pgtype.Numeric
		currency, nature     string
		state                string
		date                 pgtype.Date
		deletedAt            pgtype.Timestamptz
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&e.ID, &e.AccountID, &ownerType, &ownerID, &amount, &currency, &date,
		&e.Name, &e.Notes, &e.Excluded, &e.Pending, &nature, &state, &deletedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
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
	e.Lifecycle = lifecycleOf(state, deletedAt)
	e.CreatedAt = createdAt.Time.UTC()
	e.UpdatedAt = updatedAt.Time.UTC()

	return &e, nil
}
