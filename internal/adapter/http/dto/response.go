package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	LedgerID  string    `json:"ledger_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Currency  string    `json:"currency"`
	Balance   string    `json:"balance"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		LedgerID:  a.LedgerID,
		Name:      a.Name,
		Kind:      string(a.Kind),
		Currency:  string(a.Currency),
		Balance:   a.BalanceMoney().StringFixed(),
		Status:    string(a.Status),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransactionResponse flattens a transaction and its entry.
type TransactionResponse struct {
	ID                    string           `json:"id"`
	LedgerID              string           `json:"ledger_id"`
	AccountID             string           `json:"account_id"`
	EntryID               string           `json:"entry_id"`
	Amount                string           `json:"amount"`
	Currency              string           `json:"currency"`
	Nature                string           `json:"nature"`
	Date                  time.Time        `json:"date"`
	Name                  string           `json:"name"`
	Notes                 string           `json:"notes,omitempty"`
	Kind                  string           `json:"kind"`
	Status                string           `json:"status"`
	Pending               bool             `json:"pending"`
	Excluded              bool             `json:"excluded"`
	CategoryID            string           `json:"category_id,omitempty"`
	PayeeID               string           `json:"payee_id,omitempty"`
	Tags                  []string         `json:"tags"`
	Reimbursable          bool             `json:"reimbursable"`
	Reimbursed            bool             `json:"reimbursed"`
	OriginalTransactionID string           `json:"original_transaction_id,omitempty"`
	RelatedTransactionID  string           `json:"related_transaction_id,omitempty"`
	FxRate                *decimal.Decimal `json:"fx_rate,omitempty"`
	ExternalID            string           `json:"external_id,omitempty"`
	Deleted               bool             `json:"deleted"`
	DeletedAt             *time.Time       `json:"deleted_at,omitempty"`
	SettledAt             *time.Time       `json:"settled_at,omitempty"`
	ReconciledAt          *time.Time       `json:"reconciled_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	if t == nil {
		return nil
	}

	resp := &TransactionResponse{
		ID:                    t.ID,
		LedgerID:              t.LedgerID,
		AccountID:             t.AccountID(),
		EntryID:               t.EntryID,
		Kind:                  string(t.Kind),
		Status:                string(t.Status),
		CategoryID:            t.CategoryID,
		PayeeID:               t.PayeeID,
		Tags:                  t.Tags,
		Reimbursable:          t.Reimbursable,
		Reimbursed:            t.Reimbursed,
		OriginalTransactionID: t.OriginalTransactionID,
		RelatedTransactionID:  t.RelatedTransactionID,
		FxRate:                t.FxRate,
		ExternalID:            t.ExternalID,
		Deleted:               t.IsDeleted(),
		SettledAt:             t.SettledAt,
		ReconciledAt:          t.ReconciledAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if t.IsDeleted() {
		deletedAt := t.Lifecycle.DeletedAt
		resp.DeletedAt = &deletedAt
	}
	if e := t.Entry; e != nil {
		resp.Amount = e.Amount.StringFixed()
		resp.Currency = string(e.Amount.Currency)
		resp.Nature = string(e.Nature)
		resp.Date = e.Date
		resp.Name = e.Name
		resp.Notes = e.Notes
		resp.Pending = e.Pending
		resp.Excluded = e.Excluded
	}

	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// TransactionResultResponse is returned by create, update and refund.
type TransactionResultResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	NewBalance  domain.Money         `json:"new_balance"`
}

// TransactionResultFromUseCase converts a use case result to response.
func TransactionResultFromUseCase(r *usecase.TransactionResult) *TransactionResultResponse {
	return &TransactionResultResponse{
		Transaction: TransactionFromDomain(r.Transaction),
		NewBalance:  r.NewBalance,
	}
}

// TransferResponse holds both legs of a transfer.
type TransferResponse struct {
	Debit         *TransactionResponse `json:"debit"`
	Credit        *TransactionResponse `json:"credit"`
	SourceBalance domain.Money         `json:"source_balance"`
	DestBalance   domain.Money         `json:"dest_balance"`
	Rate          *decimal.Decimal     `json:"rate,omitempty"`
}

// TransferFromUseCase converts a use case result to response.
func TransferFromUseCase(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		Debit:         TransactionFromDomain(r.DebitTransaction),
		Credit:        TransactionFromDomain(r.CreditTransaction),
		SourceBalance: r.SourceBalance,
		DestBalance:   r.DestBalance,
		Rate:          r.Rate,
	}
}

// SplitResponse describes a completed split.
type SplitResponse struct {
	OriginalTransactionID string                     `json:"original_transaction_id"`
	Original              *TransactionResponse       `json:"original"`
	Children              []*TransactionResponse     `json:"children"`
	Splits                []*domain.TransactionSplit `json:"splits"`
	TotalSplit            domain.Money               `json:"total_split"`
	OriginalDeleted       bool                       `json:"original_deleted"`
}

// SplitFromUseCase converts a use case result to response.
func SplitFromUseCase(r *usecase.SplitTransactionResult) *SplitResponse {
	return &SplitResponse{
		OriginalTransactionID: r.OriginalTransactionID,
		Original:              TransactionFromDomain(r.Original),
		Children:              TransactionsFromDomain(r.Children),
		Splits:                r.Splits,
		TotalSplit:            r.TotalSplit,
		OriginalDeleted:       r.OriginalDeleted,
	}
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"account_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Nature        string    `json:"nature"`
	Date          time.Time `json:"date"`
	Name          string    `json:"name"`
	Pending       bool      `json:"pending"`
	Excluded      bool      `json:"excluded"`
	Deleted       bool      `json:"deleted"`
	CreatedAt     time.Time `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:        e.ID,
		AccountID: e.AccountID,
		Amount:    e.Amount.StringFixed(),
		Currency:  string(e.Amount.Currency),
		Nature:    string(e.Nature),
		Date:      e.Date,
		Name:      e.Name,
		Pending:   e.Pending,
		Excluded:  e.Excluded,
		Deleted:   e.Lifecycle.IsDeleted(),
		CreatedAt: e.CreatedAt,
	}
	if e.Entryable != nil {
		resp.TransactionID = e.Entryable.EntryableID()
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
