package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jive/ledgerengine/internal/domain"
)

const checkLedgerConsistencySQL = `SELECT a.id, a.currency, a.balance, COALESCE(s.total, 0)
FROM accounts a
LEFT JOIN (
    SELECT account_id, SUM(amount) AS total
    FROM entries
    WHERE state = 'active'
    GROUP BY account_id
) s ON s.account_id = a.id
WHERE a.balance <> COALESCE(s.total, 0)
ORDER BY a.id`

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CheckConsistency lists every account whose balance differs from the sum of
// its active entries.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) ([]domain.AccountDrift, error) {
	rows, err := r.db.Query(ctx, checkLedgerConsistencySQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drifts []domain.AccountDrift
	for rows.Next() {
		var (
			id, currency   string
			balance, total pgtype.Numeric
		)
		if err := rows.Scan(&id, &currency, &balance, &total); err != nil {
			return nil, err
		}
		cur := domain.Currency(currency)
		drifts = append(drifts, domain.AccountDrift{
			AccountID:  id,
			Balance:    domain.Money{Amount: numericToDecimal(balance), Currency: cur},
			EntriesSum: domain.Money{Amount: numericToDecimal(total), Currency: cur},
		})
	}

	return drifts, rows.Err()
}
