package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in ascending id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error
	List(ctx context.Context, ledgerID string, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository persists transactions together with their entries.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	Update(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	// FindByExternalID locks the active transaction imported under externalID and
	// returns ErrTransactionNotFound when there is none.
	FindByExternalID(ctx context.Context, tx Transaction, accountID, externalID string) (*domain.Transaction, error)
	ListByOriginal(ctx context.Context, tx Transaction, originalID string) ([]*domain.Transaction, error)
	// ListClearedForUpdate returns active cleared transactions dated on or before asOf.
	ListClearedForUpdate(ctx context.Context, tx Transaction, accountID string, asOf time.Time) ([]*domain.Transaction, error)
}

// EntryRepository defines read access for entries.
type EntryRepository interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	// SumPosted sums active, non-pending entries dated on or before asOf.
	SumPosted(ctx context.Context, tx Transaction, accountID string, asOf time.Time) (decimal.Decimal, error)
	// PendingSummary sums active pending entries and returns the latest entry date.
	PendingSummary(ctx context.Context, accountID string) (decimal.Decimal, *time.Time, error)
}

// SplitRepository defines data access for split audit rows.
type SplitRepository interface {
	Create(ctx context.Context, tx Transaction, split *domain.TransactionSplit) error
	ListByOriginal(ctx context.Context, tx Transaction, originalID string) ([]*domain.TransactionSplit, error)
}

// BalanceHistoryRepository stores daily balance snapshots.
type BalanceHistoryRepository interface {
	Upsert(ctx context.Context, tx Transaction, snapshot *domain.BalanceSnapshot) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.BalanceSnapshot, error)
}

// IdempotencyRepository stores command outcomes inside the command's unit of work.
type IdempotencyRepository interface {
	// Get returns nil when no live record exists.
	Get(ctx context.Context, tx Transaction, requestID string) (*domain.IdempotencyRecord, error)
	Create(ctx context.Context, tx Transaction, record *domain.IdempotencyRecord) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// IdempotencyCache is a best-effort read-through cache of committed records.
type IdempotencyCache interface {
	// Get returns nil on a miss.
	Get(ctx context.Context, requestID string) (*domain.IdempotencyRecord, error)
	Set(ctx context.Context, record *domain.IdempotencyRecord, ttl time.Duration) error
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) ([]domain.AccountDrift, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	ListByResource(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// AuditLogger receives one event per state transition. It must not block and
// has no way to fail the command.
type AuditLogger interface {
	Record(ctx context.Context, log *domain.AuditLog)
}

// RateProvider returns the exchange rate from one currency to another on a date.
type RateProvider interface {
	Rate(ctx context.Context, from, to domain.Currency, date time.Time) (decimal.Decimal, error)
}

// OverdraftPolicy decides whether an account kind may carry a negative balance.
type OverdraftPolicy interface {
	AllowsNegative(kind domain.AccountKind) bool
}

// Retrier re-runs an operation on transient store errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
