package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

const (
	insertSplitSQL = `INSERT INTO transaction_splits (
id, original_transaction_id, split_transaction_id, amount, currency, percentage, description, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	listSplitsByOriginalSQL = `SELECT id, original_transaction_id, split_transaction_id, amount, currency,
percentage, description, created_at
FROM transaction_splits
WHERE original_transaction_id = $1
ORDER BY created_at, id`
)

// SplitRepository implements usecase.SplitRepository.
type SplitRepository struct {
	db DBTX
}

// NewSplitRepository creates a new SplitRepository.
func NewSplitRepository(db DBTX) *SplitRepository {
	return &SplitRepository{db: db}
}

// Create records one split audit row.
func (r *SplitRepository) Create(ctx context.Context, tx usecase.Transaction, split *domain.TransactionSplit) error {
	_, err := conn(tx).Exec(ctx, insertSplitSQL,
		split.ID,
		split.OriginalTransactionID,
		split.SplitTransactionID,
		decimalToNumeric(split.Amount.Amount),
		string(split.Amount.Currency),
		decimalToNumeric(split.Percentage),
		split.Description,
		timeToPgTimestamptz(split.CreatedAt),
	)
	return err
}

// ListByOriginal lists the split rows recorded for a transaction.
func (r *SplitRepository) ListByOriginal(ctx context.Context, tx usecase.Transaction, originalID string) ([]*domain.TransactionSplit, error) {
	rows, err := conn(tx).Query(ctx, listSplitsByOriginalSQL, originalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var splits []*domain.TransactionSplit
	for rows.Next() {
		var (
			s                  domain.TransactionSplit
			amount, percentage pgtype.Numeric
			currency           string
			createdAt          pgtype.Timestamptz
		)
		if err := rows.Scan(&s.ID, &s.OriginalTransactionID, &s.SplitTransactionID,
			&amount, &currency, &percentage, &s.Description, &createdAt); err != nil {
			return nil, err
		}
		s.Amount = domain.Money{Amount: numericToDecimal(amount), Currency: domain.Currency(currency)}
		s.Percentage = numericToDecimal(percentage)
		s.CreatedAt = createdAt.Time.UTC()
		splits = append(splits, &s)
	}

	return splits, rows.Err()
}
