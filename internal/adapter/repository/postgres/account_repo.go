package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

const accountColumns = `id, ledger_id, name, kind, currency, balance, status, version, created_at, updated_at`

const (
	createAccountSQL = `INSERT INTO accounts (` + accountColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getAccountSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	getAccountForUpdateSQL = getAccountSQL + ` FOR UPDATE`

	// Rows are locked in the ORDER BY order, which keeps concurrent
	// multi-account commands from deadlocking each other.
	getAccountsForUpdateSQL = `SELECT ` + accountColumns + ` FROM accounts
WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	updateAccountBalanceSQL = `UPDATE accounts
SET balance = $2, version = version + 1, updated_at = $3
WHERE id = $1`

	updateAccountStatusSQL = `UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1`

	listAccountsSQL = `SELECT ` + accountColumns + ` FROM accounts
WHERE ($1 = '' OR ledger_id = $1)
ORDER BY id
LIMIT $2 OFFSET $3`
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx, createAccountSQL,
		account.ID,
		account.LedgerID,
		account.Name,
		string(account.Kind),
		string(account.Currency),
		decimalToNumeric(account.Balance),
		string(account.Status),
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, getAccountSQL, id))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return scanAccount(conn(tx).QueryRow(ctx, getAccountForUpdateSQL, id))
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := conn(tx).Query(ctx, getAccountsForUpdateSQL, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, len(ids))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	tag, err := conn(tx).Exec(ctx, updateAccountBalanceSQL, id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}

	return nil
}

// UpdateStatus changes the lifecycle status of an account.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, updateAccountStatusSQL, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}

	return nil
}

// List lists accounts with pagination. An empty ledgerID lists every ledger.
func (r *AccountRepository) List(ctx context.Context, ledgerID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, listAccountsSQL, ledgerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		acc                  domain.Account
		kind, currency       string
		status               string
		balance              pgtype.Numeric
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&acc.ID,
		&acc.LedgerID,
		&acc.Name,
		&kind,
		&currency,
		&balance,
		&status,
		&acc.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	acc.Kind = domain.AccountKind(kind)
	acc.Currency = domain.Currency(currency)
	acc.Status = domain.AccountStatus(status)
	acc.Balance = numericToDecimal(balance)
	acc.CreatedAt = createdAt.Time.UTC()
	acc.UpdatedAt = updatedAt.Time.UTC()

	return &acc, nil
}
