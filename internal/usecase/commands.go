package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

// CommandType identifies a mutating command for idempotency bookkeeping.
type CommandType string

const (
	CommandCreateTransaction  CommandType = "create_transaction"
	CommandUpdateTransaction  CommandType = "update_transaction"
	CommandTransfer           CommandType = "transfer"
	CommandSplitTransaction   CommandType = "split_transaction"
	CommandDeleteTransaction  CommandType = "delete_transaction"
	CommandRestoreTransaction CommandType = "restore_transaction"
	CommandRefundTransaction  CommandType = "refund_transaction"
	CommandBulkImport         CommandType = "bulk_import"
	CommandSettle             CommandType = "settle_transactions"
	CommandReconcile          CommandType = "reconcile_transactions"
)

// CreateTransactionCommand records a new transaction. Amount is signed:
// a negative amount is an outflow.
type CreateTransactionCommand struct {
	RequestID    string
	LedgerID     string
	AccountID    string
	Amount       decimal.Decimal
	Currency     string
	Date         time.Time
	Name         string
	Notes        string
	CategoryID   string
	PayeeID      string
	Tags         []string
	Pending      bool
	Reimbursable bool
	ExternalID   string
}

// UpdateTransactionCommand patches an existing transaction.
type UpdateTransactionCommand struct {
	RequestID     string
	TransactionID string
	Patch         domain.TransactionPatch
}

// TransferCommand moves Amount (in the source currency) between two accounts.
type TransferCommand struct {
	RequestID       string
	LedgerID        string
	SourceAccountID string
	DestAccountID   string
	Amount          decimal.Decimal
	Date            time.Time
	Description     string
	Notes           string
	CategoryID      string
	Tags            []string
	Fx              *domain.FxSpec
}

// SplitTransactionCommand decomposes a transaction into child transactions.
type SplitTransactionCommand struct {
	RequestID     string
	TransactionID string
	Splits        []domain.SplitSpec
}

// DeleteTransactionCommand soft-deletes a transaction.
type DeleteTransactionCommand struct {
	RequestID     string
	TransactionID string
}

// RestoreTransactionCommand reverts a soft deletion.
type RestoreTransactionCommand struct {
	RequestID     string
	TransactionID string
}

// RefundTransactionCommand records a partial or full refund. Amount is a
// positive magnitude; the refund carries the opposite sign of the original.
type RefundTransactionCommand struct {
	RequestID     string
	TransactionID string
	Amount        decimal.Decimal
	Date          time.Time
	Name          string
}

// ConflictPolicy decides what happens when an imported external id already exists.
type ConflictPolicy string

const (
	ConflictSkip      ConflictPolicy = "skip"
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictFail      ConflictPolicy = "fail"
)

// ParseConflictPolicy validates a conflict policy. Empty means skip.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ConflictSkip, nil
	case ConflictSkip, ConflictOverwrite, ConflictFail:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidImportPolicy, s)
	}
}

// ImportItem is one row of a bulk import.
type ImportItem struct {
	ExternalID string
	AccountID  string
	Amount     decimal.Decimal
	Currency   string
	Date       time.Time
	Name       string
	Notes      string
	CategoryID string
	PayeeID    string
	Tags       []string
	Pending    bool
}

// BulkImportTransactionsCommand imports many transactions in one unit of work.
type BulkImportTransactionsCommand struct {
	RequestID      string
	LedgerID       string
	Items          []ImportItem
	ConflictPolicy ConflictPolicy
}

// SettleTransactionsCommand moves pending transactions to cleared.
type SettleTransactionsCommand struct {
	RequestID      string
	TransactionIDs []string
	SettlementDate time.Time
}

// ReconcileTransactionsCommand compares recorded entries with a bank statement.
type ReconcileTransactionsCommand struct {
	RequestID        string
	AccountID        string
	StatementDate    time.Time
	StatementBalance decimal.Decimal
}
