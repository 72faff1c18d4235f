package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

const (
	upsertBalanceSnapshotSQL = `INSERT INTO balance_snapshots (account_id, date, balance, currency, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (account_id, date)
DO UPDATE SET balance = EXCLUDED.balance, currency = EXCLUDED.currency, updated_at = EXCLUDED.updated_at`

	listBalanceSnapshotsSQL = `SELECT account_id, date, balance, currency, updated_at
FROM balance_snapshots
WHERE account_id = $1
ORDER BY date DESC
LIMIT $2`
)

// BalanceHistoryRepository implements usecase.BalanceHistoryRepository.
type BalanceHistoryRepository struct {
	db DBTX
}

// NewBalanceHistoryRepository creates a new BalanceHistoryRepository.
func NewBalanceHistoryRepository(db DBTX) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{db: db}
}

// Upsert stores the balance for the snapshot's date, replacing an earlier one.
func (r *BalanceHistoryRepository) Upsert(ctx context.Context, tx usecase.Transaction, snapshot *domain.BalanceSnapshot) error {
	_, err := conn(tx).Exec(ctx, upsertBalanceSnapshotSQL,
		snapshot.AccountID,
		pgDate(snapshot.Date),
		decimalToNumeric(snapshot.Balance.Amount),
		string(snapshot.Balance.Currency),
		timeToPgTimestamptz(snapshot.UpdatedAt),
	)
	return err
}

// ListByAccount returns the latest snapshots of an account, newest first.
func (r *BalanceHistoryRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.BalanceSnapshot, error) {
	rows, err := r.db.Query(ctx, listBalanceSnapshotsSQL, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.BalanceSnapshot
	for rows.Next() {
		var (
			s         domain.BalanceSnapshot
			date      pgtype.Date
			balance   pgtype.Numeric
			currency  string
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&s.AccountID, &date, &balance, &currency, &updatedAt); err != nil {
			return nil, err
		}
		s.Date = date.Time
		s.Balance = domain.Money{Amount: numericToDecimal(balance), Currency: domain.Currency(currency)}
		s.UpdatedAt = updatedAt.Time.UTC()
		snapshots = append(snapshots, &s)
	}

	return snapshots, rows.Err()
}
