package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

// TransactionResult is returned by create, update and refund.
type TransactionResult struct {
	Transaction *domain.Transaction `json:"transaction"`
	NewBalance  domain.Money        `json:"new_balance"`
}

// TransferResult holds both legs of a transfer and the resulting balances.
type TransferResult struct {
	DebitTransaction  *domain.Transaction `json:"debit_transaction"`
	CreditTransaction *domain.Transaction `json:"credit_transaction"`
	SourceBalance     domain.Money        `json:"source_balance"`
	DestBalance       domain.Money        `json:"dest_balance"`
	Rate              *decimal.Decimal    `json:"rate,omitempty"`
}

// SplitTransactionResult describes a completed split.
type SplitTransactionResult struct {
	OriginalTransactionID string                     `json:"original_transaction_id"`
	Original              *domain.Transaction        `json:"original"`
	Children              []*domain.Transaction      `json:"children"`
	Splits                []*domain.TransactionSplit `json:"splits"`
	TotalSplit            domain.Money               `json:"total_split"`
	OriginalDeleted       bool                       `json:"original_deleted"`
}

// DeleteResult lists every transaction deleted by the command. Deleting one
// leg of a transfer deletes both.
type DeleteResult struct {
	TransactionIDs []string                `json:"transaction_ids"`
	DeletedAt      time.Time               `json:"deleted_at"`
	Balances       map[string]domain.Money `json:"balances"`
}

// RestoreResult lists every transaction restored by the command.
type RestoreResult struct {
	TransactionIDs []string                `json:"transaction_ids"`
	RestoredAt     time.Time               `json:"restored_at"`
	Balances       map[string]domain.Money `json:"balances"`
}

// ImportRowError explains why one import row was rejected.
type ImportRowError struct {
	RowIndex   int    `json:"row_index"`
	ExternalID string `json:"external_id,omitempty"`
	Message    string `json:"message"`
}

// BulkImportResult summarises an import.
type BulkImportResult struct {
	Total       int              `json:"total"`
	Succeeded   int              `json:"succeeded"`
	Overwritten int              `json:"overwritten"`
	Skipped     int              `json:"skipped"`
	Failed      int              `json:"failed"`
	ImportedIDs []string         `json:"imported_ids"`
	Errors      []ImportRowError `json:"errors"`
}

// SettlementResult lists settled and skipped transactions.
type SettlementResult struct {
	SettledIDs     []string  `json:"settled_ids"`
	SkippedIDs     []string  `json:"skipped_ids"`
	SettlementDate time.Time `json:"settlement_date"`
	Count          int       `json:"count"`
}

// ReconciliationResult compares the statement with recorded entries.
// Discrepancy is nil when the two agree.
type ReconciliationResult struct {
	AccountID        string        `json:"account_id"`
	StatementDate    time.Time     `json:"statement_date"`
	StatementBalance domain.Money  `json:"statement_balance"`
	ComputedBalance  domain.Money  `json:"computed_balance"`
	Discrepancy      *domain.Money `json:"discrepancy,omitempty"`
	IsBalanced       bool          `json:"is_balanced"`
	ReconciledIDs    []string      `json:"reconciled_ids"`
}
