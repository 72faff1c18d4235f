package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	LedgerID string `json:"ledger_id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		LedgerID: r.LedgerID,
		Name:     r.Name,
		Kind:     r.Kind,
		Currency: r.Currency,
	}
}

// CreateTransactionRequest represents a request to record a transaction.
// Amount is signed: a negative amount is an outflow.
type CreateTransactionRequest struct {
	LedgerID     string     `json:"ledger_id"`
	AccountID    string     `json:"account_id"`
	Amount       string     `json:"amount"`
	Currency     string     `json:"currency,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
	Name         string     `json:"name"`
	Notes        string     `json:"notes,omitempty"`
	CategoryID   string     `json:"category_id,omitempty"`
	PayeeID      string     `json:"payee_id,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Pending      bool       `json:"pending"`
	Reimbursable bool       `json:"reimbursable"`
	ExternalID   string     `json:"external_id,omitempty"`
}

// ToCommand converts to a use case command.
func (r *CreateTransactionRequest) ToCommand(requestID string) (usecase.CreateTransactionCommand, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.CreateTransactionCommand{}, err
	}

	return usecase.CreateTransactionCommand{
		RequestID:    requestID,
		LedgerID:     r.LedgerID,
		AccountID:    r.AccountID,
		Amount:       amount,
		Currency:     r.Currency,
		Date:         timeOrZero(r.Date),
		Name:         r.Name,
		Notes:        r.Notes,
		CategoryID:   r.CategoryID,
		PayeeID:      r.PayeeID,
		Tags:         r.Tags,
		Pending:      r.Pending,
		Reimbursable: r.Reimbursable,
		ExternalID:   r.ExternalID,
	}, nil
}

// UpdateTransactionRequest patches a transaction. Absent fields are left unchanged.
type UpdateTransactionRequest struct {
	Name               *string    `json:"name,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	Amount             *string    `json:"amount,omitempty"`
	Date               *time.Time `json:"date,omitempty"`
	CategoryID         *string    `json:"category_id,omitempty"`
	PayeeID            *string    `json:"payee_id,omitempty"`
	Tags               *[]string  `json:"tags,omitempty"`
	Reimbursable       *bool      `json:"reimbursable,omitempty"`
	Reimbursed         *bool      `json:"reimbursed,omitempty"`
	Excluded           *bool      `json:"excluded,omitempty"`
	ExcludeFromReports *bool      `json:"exclude_from_reports,omitempty"`
	ExcludeFromBudget  *bool      `json:"exclude_from_budget,omitempty"`
}

// ToCommand converts to a use case command.
func (r *UpdateTransactionRequest) ToCommand(requestID, transactionID string) (usecase.UpdateTransactionCommand, error) {
	patch := domain.TransactionPatch{
		Name:               r.Name,
		Notes:              r.Notes,
		Date:               r.Date,
		CategoryID:         r.CategoryID,
		PayeeID:            r.PayeeID,
		Tags:               r.Tags,
		Reimbursable:       r.Reimbursable,
		Reimbursed:         r.Reimbursed,
		Excluded:           r.Excluded,
		ExcludeFromReports: r.ExcludeFromReports,
		ExcludeFromBudget:  r.ExcludeFromBudget,
	}
	if r.Amount != nil {
		amount, err := parseAmount("amount", *r.Amount)
		if err != nil {
			return usecase.UpdateTransactionCommand{}, err
		}
		patch.Amount = &amount
	}

	return usecase.UpdateTransactionCommand{
		RequestID:     requestID,
		TransactionID: transactionID,
		Patch:         patch,
	}, nil
}

// FxRequest describes the conversion of a cross-currency transfer.
type FxRequest struct {
	Rate       *string    `json:"rate,omitempty"`
	Source     string     `json:"source,omitempty"`
	ObtainedAt *time.Time `json:"obtained_at,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// CreateTransferRequest represents a request to move money between accounts.
type CreateTransferRequest struct {
	LedgerID        string     `json:"ledger_id"`
	SourceAccountID string     `json:"source_account_id"`
	DestAccountID   string     `json:"dest_account_id"`
	Amount          string     `json:"amount"`
	Date            *time.Time `json:"date,omitempty"`
	Description     string     `json:"description,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CategoryID      string     `json:"category_id,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Fx              *FxRequest `json:"fx,omitempty"`
}

// ToCommand converts to a use case command.
func (r *CreateTransferRequest) ToCommand(requestID string) (usecase.TransferCommand, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.TransferCommand{}, err
	}

	cmd := usecase.TransferCommand{
		RequestID:       requestID,
		LedgerID:        r.LedgerID,
		SourceAccountID: r.SourceAccountID,
		DestAccountID:   r.DestAccountID,
		Amount:          amount,
		Date:            timeOrZero(r.Date),
		Description:     r.Description,
		Notes:           r.Notes,
		CategoryID:      r.CategoryID,
		Tags:            r.Tags,
	}

	if r.Fx != nil {
		fx := &domain.FxSpec{
			Source:     r.Fx.Source,
			ObtainedAt: r.Fx.ObtainedAt,
			ValidUntil: r.Fx.ValidUntil,
		}
		if r.Fx.Rate != nil {
			rate, err := decimal.NewFromString(strings.TrimSpace(*r.Fx.Rate))
			if err != nil {
				return usecase.TransferCommand{}, fmt.Errorf("%w: rate %q", domain.ErrInvalidFxSpec, *r.Fx.Rate)
			}
			fx.Rate = &rate
		}
		cmd.Fx = fx
	}

	return cmd, nil
}

// SplitItem is one requested part of a split.
type SplitItem struct {
	Description string   `json:"description,omitempty"`
	Amount      string   `json:"amount"`
	Percentage  *string  `json:"percentage,omitempty"`
	CategoryID  string   `json:"category_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// SplitTransactionRequest represents a request to split a transaction.
type SplitTransactionRequest struct {
	Splits []SplitItem `json:"splits"`
}

// ToCommand converts to a use case command.
func (r *SplitTransactionRequest) ToCommand(requestID, transactionID string) (usecase.SplitTransactionCommand, error) {
	specs := make([]domain.SplitSpec, len(r.Splits))
	for i, item := range r.Splits {
		amount, err := parseAmount(fmt.Sprintf("splits[%d].amount", i), item.Amount)
		if err != nil {
			return usecase.SplitTransactionCommand{}, err
		}
		specs[i] = domain.SplitSpec{
			Description: item.Description,
			Amount:      amount,
			CategoryID:  item.CategoryID,
			Tags:        item.Tags,
		}
		if item.Percentage != nil {
			pct, err := parseAmount(fmt.Sprintf("splits[%d].percentage", i), *item.Percentage)
			if err != nil {
				return usecase.SplitTransactionCommand{}, err
			}
			specs[i].Percentage = &pct
		}
	}

	return usecase.SplitTransactionCommand{
		RequestID:     requestID,
		TransactionID: transactionID,
		Splits:        specs,
	}, nil
}

// RefundTransactionRequest represents a request to refund part of a transaction.
type RefundTransactionRequest struct {
	Amount string     `json:"amount"`
	Date   *time.Time `json:"date,omitempty"`
	Name   string     `json:"name,omitempty"`
}

// ToCommand converts to a use case command.
func (r *RefundTransactionRequest) ToCommand(requestID, transactionID string) (usecase.RefundTransactionCommand, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.RefundTransactionCommand{}, err
	}

	return usecase.RefundTransactionCommand{
		RequestID:     requestID,
		TransactionID: transactionID,
		Amount:        amount,
		Date:          timeOrZero(r.Date),
		Name:          r.Name,
	}, nil
}

// ImportItemRequest is one row of a bulk import.
type ImportItemRequest struct {
	ExternalID string     `json:"external_id"`
	AccountID  string     `json:"account_id"`
	Amount     string     `json:"amount"`
	Currency   string     `json:"currency,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Name       string     `json:"name"`
	Notes      string     `json:"notes,omitempty"`
	CategoryID string     `json:"category_id,omitempty"`
	PayeeID    string     `json:"payee_id,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Pending    bool       `json:"pending"`
}

// BulkImportRequest represents a batch of transactions to import.
type BulkImportRequest struct {
	LedgerID       string              `json:"ledger_id"`
	ConflictPolicy string              `json:"conflict_policy,omitempty"`
	Items          []ImportItemRequest `json:"items"`
}

// ToCommand converts to a use case command. An unparseable amount becomes
// zero so the row is reported by the import instead of failing the batch.
func (r *BulkImportRequest) ToCommand(requestID string) usecase.BulkImportTransactionsCommand {
	items := make([]usecase.ImportItem, len(r.Items))
	for i, item := range r.Items {
		amount, _ := decimal.NewFromString(strings.TrimSpace(item.Amount))
		items[i] = usecase.ImportItem{
			ExternalID: item.ExternalID,
			AccountID:  item.AccountID,
			Amount:     amount,
			Currency:   item.Currency,
			Date:       timeOrZero(item.Date),
			Name:       item.Name,
			Notes:      item.Notes,
			CategoryID: item.CategoryID,
			PayeeID:    item.PayeeID,
			Tags:       item.Tags,
			Pending:    item.Pending,
		}
	}

	return usecase.BulkImportTransactionsCommand{
		RequestID:      requestID,
		LedgerID:       r.LedgerID,
		Items:          items,
		ConflictPolicy: usecase.ConflictPolicy(r.ConflictPolicy),
	}
}

// SettleTransactionsRequest represents a request to clear pending transactions.
type SettleTransactionsRequest struct {
	TransactionIDs []string   `json:"transaction_ids"`
	SettlementDate *time.Time `json:"settlement_date,omitempty"`
}

// ToCommand converts to a use case command.
func (r *SettleTransactionsRequest) ToCommand(requestID string) usecase.SettleTransactionsCommand {
	return usecase.SettleTransactionsCommand{
		RequestID:      requestID,
		TransactionIDs: r.TransactionIDs,
		SettlementDate: timeOrZero(r.SettlementDate),
	}
}

// ReconcileRequest represents a bank statement to reconcile against.
type ReconcileRequest struct {
	StatementDate    *time.Time `json:"statement_date,omitempty"`
	StatementBalance string     `json:"statement_balance"`
}

// ToCommand converts to a use case command.
func (r *ReconcileRequest) ToCommand(requestID, accountID string) (usecase.ReconcileTransactionsCommand, error) {
	balance, err := parseAmount("statement_balance", r.StatementBalance)
	if err != nil {
		return usecase.ReconcileTransactionsCommand{}, err
	}

	return usecase.ReconcileTransactionsCommand{
		RequestID:        requestID,
		AccountID:        accountID,
		StatementDate:    timeOrZero(r.StatementDate),
		StatementBalance: balance,
	}, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a decimal", domain.ErrInvalidAmount, field, value)
	}
	return d, nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
