package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind describes how a transaction came to exist.
type TransactionKind string

const (
	KindStandard TransactionKind = "standard"
	KindSplit    TransactionKind = "split"
	KindTransfer TransactionKind = "transfer"
	KindRefund   TransactionKind = "refund"
)

// TransactionStatus is the settlement state: pending -> cleared -> reconciled.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusCleared    TransactionStatus = "cleared"
	StatusReconciled TransactionStatus = "reconciled"
)

// Transaction classifies exactly one entry.
type Transaction struct {
	ID                    string            `json:"id"`
	LedgerID              string            `json:"ledger_id"`
	EntryID               string            `json:"entry_id"`
	Entry                 *Entry            `json:"entry"`
	CategoryID            string            `json:"category_id,omitempty"`
	PayeeID               string            `json:"payee_id,omitempty"`
	Kind                  TransactionKind   `json:"kind"`
	Status                TransactionStatus `json:"status"`
	Tags                  []string          `json:"tags"`
	Reimbursable          bool              `json:"reimbursable"`
	Reimbursed            bool              `json:"reimbursed"`
	ExcludeFromReports    bool              `json:"exclude_from_reports"`
	ExcludeFromBudget     bool              `json:"exclude_from_budget"`
	OriginalTransactionID string            `json:"original_transaction_id,omitempty"`
	RelatedTransactionID  string            `json:"related_transaction_id,omitempty"`
	FxRate                *decimal.Decimal  `json:"fx_rate,omitempty"`
	ExternalID            string            `json:"external_id,omitempty"`
	SettledAt             *time.Time        `json:"settled_at,omitempty"`
	ReconciledAt          *time.Time        `json:"reconciled_at,omitempty"`
	RestoredAt            *time.Time        `json:"restored_at,omitempty"`
	Lifecycle             Lifecycle         `json:"lifecycle"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// AccountID returns the account of the owned entry.
func (t *Transaction) AccountID() string {
	if t.Entry == nil {
		return ""
	}
	return t.Entry.AccountID
}

// Amount returns the signed amount of the owned entry.
func (t *Transaction) Amount() Money {
	return t.Entry.Amount
}

func (t *Transaction) IsDeleted() bool {
	return t.Lifecycle.IsDeleted()
}

// IsTransferLeg reports whether the transaction is one side of a transfer.
func (t *Transaction) IsTransferLeg() bool {
	return t.Kind == KindTransfer && t.RelatedTransactionID != ""
}

// EnsureSplittable rejects transactions that may not be decomposed.
func (t *Transaction) EnsureSplittable() error {
	switch t.Kind {
	case KindStandard:
		return nil
	default:
		return fmt.Errorf("%w: %s transaction %s", ErrNotSplittable, t.Kind, t.ID)
	}
}

// MarkDeleted soft-deletes the transaction together with its entry.
func (t *Transaction) MarkDeleted(at time.Time) error {
	if t.IsDeleted() {
		return fmt.Errorf("%w: %s", ErrTransactionDeleted, t.ID)
	}
	t.Lifecycle = DeletedAt(at)
	t.Entry.Lifecycle = DeletedAt(at)
	t.UpdatedAt = at
	t.Entry.UpdatedAt = at
	return nil
}

// MarkRestored reverts a soft deletion.
func (t *Transaction) MarkRestored(at time.Time) error {
	if !t.IsDeleted() {
		return fmt.Errorf("%w: %s", ErrTransactionNotDeleted, t.ID)
	}
	t.Lifecycle = Active()
	t.Entry.Lifecycle = Active()
	t.RestoredAt = &at
	t.UpdatedAt = at
	t.Entry.UpdatedAt = at
	return nil
}

// Settle moves a pending transaction to cleared. It reports false when the
// transaction was already past pending.
func (t *Transaction) Settle(at time.Time) (bool, error) {
	if t.IsDeleted() {
		return false, fmt.Errorf("%w: %s", ErrTransactionDeleted, t.ID)
	}
	if t.Status != StatusPending {
		return false, nil
	}
	t.Status = StatusCleared
	t.SettledAt = &at
	t.Entry.Pending = false
	t.UpdatedAt = at
	t.Entry.UpdatedAt = at
	return true, nil
}

// Reconcile moves a cleared transaction to reconciled.
func (t *Transaction) Reconcile(at time.Time) error {
	if t.IsDeleted() {
		return fmt.Errorf("%w: %s", ErrTransactionDeleted, t.ID)
	}
	if t.Status != StatusCleared {
		return fmt.Errorf("%w: cannot reconcile %s transaction %s", ErrInvalidStatusTransition, t.Status, t.ID)
	}
	t.Status = StatusReconciled
	t.ReconciledAt = &at
	t.UpdatedAt = at
	return nil
}

// NormalizeTags trims, deduplicates and sorts tags so they behave as a set.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// TransactionPatch lists the fields an update may change. Nil means unchanged.
// An empty CategoryID or PayeeID clears the reference.
type TransactionPatch struct {
	Name               *string
	Notes              *string
	Amount             *decimal.Decimal
	Date               *time.Time
	CategoryID         *string
	PayeeID            *string
	Tags               *[]string
	Reimbursable       *bool
	Reimbursed         *bool
	Excluded           *bool
	ExcludeFromReports *bool
	ExcludeFromBudget  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Name == nil && p.Notes == nil && p.Amount == nil && p.Date == nil &&
		p.CategoryID == nil && p.PayeeID == nil && p.Tags == nil &&
		p.Reimbursable == nil && p.Reimbursed == nil && p.Excluded == nil &&
		p.ExcludeFromReports == nil && p.ExcludeFromBudget == nil
}

// ApplyMetadata applies every non-amount field of the patch.
func (p TransactionPatch) ApplyMetadata(t *Transaction) error {
	if p.Name != nil {
		if err := ValidateTransactionName(*p.Name); err != nil {
			return err
		}
		t.Entry.Name = strings.TrimSpace(*p.Name)
	}
	if p.Notes != nil {
		t.Entry.Notes = *p.Notes
	}
	if p.Date != nil {
		t.Entry.Date = DateOf(*p.Date)
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.PayeeID != nil {
		t.PayeeID = *p.PayeeID
	}
	if p.Tags != nil {
		if err := ValidateTags(*p.Tags); err != nil {
			return err
		}
		t.Tags = NormalizeTags(*p.Tags)
	}
	if p.Reimbursable != nil {
		t.Reimbursable = *p.Reimbursable
	}
	if p.Reimbursed != nil {
		t.Reimbursed = *p.Reimbursed
	}
	if p.Excluded != nil {
		t.Entry.Excluded = *p.Excluded
	}
	if p.ExcludeFromReports != nil {
		t.ExcludeFromReports = *p.ExcludeFromReports
	}
	if p.ExcludeFromBudget != nil {
		t.ExcludeFromBudget = *p.ExcludeFromBudget
	}
	return nil
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
