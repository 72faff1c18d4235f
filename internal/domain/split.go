package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinSplitParts is the smallest number of parts a split may have.
const MinSplitParts = 2

// TransactionSplit is the immutable audit row for one child of a split.
type TransactionSplit struct {
	ID                    string          `json:"id"`
	OriginalTransactionID string          `json:"original_transaction_id"`
	SplitTransactionID    string          `json:"split_transaction_id"`
	Amount                Money           `json:"amount"`
	Percentage            decimal.Decimal `json:"percentage"`
	Description           string          `json:"description,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// SplitSpec describes one requested part. Amount is a positive magnitude; the
// child inherits the sign of the original.
type SplitSpec struct {
	Description string           `json:"description,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
	CategoryID  string           `json:"category_id,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
}

// InsufficientSplitsError is returned when fewer than two parts are requested.
type InsufficientSplitsError struct {
	Count int
}

func (e *InsufficientSplitsError) Error() string {
	return fmt.Sprintf("split needs at least %d parts, got %d", MinSplitParts, e.Count)
}

func (e *InsufficientSplitsError) Unwrap() error { return ErrInvalidSplit }

// InvalidSplitAmountError is returned for a part that is not strictly positive
// or is more precise than the currency allows.
type InvalidSplitAmountError struct {
	Amount     decimal.Decimal
	SplitIndex int
}

func (e *InvalidSplitAmountError) Error() string {
	return fmt.Sprintf("split %d has invalid amount %s", e.SplitIndex, e.Amount.String())
}

func (e *InvalidSplitAmountError) Unwrap() error { return ErrInvalidSplit }

// ExceedsOriginalError is returned when the parts add up to more than the original.
type ExceedsOriginalError struct {
	Original  Money
	Requested Money
	Excess    Money
}

func (e *ExceedsOriginalError) Error() string {
	return fmt.Sprintf("split total %s exceeds original %s by %s",
		e.Requested.StringFixed(), e.Original.StringFixed(), e.Excess.StringFixed())
}

func (e *ExceedsOriginalError) Unwrap() error { return ErrInvalidSplit }

// AlreadySplitError is returned when the original already has split records.
type AlreadySplitError struct {
	ExistingSplits []string
}

func (e *AlreadySplitError) Error() string {
	return fmt.Sprintf("transaction already split into [%s]", strings.Join(e.ExistingSplits, ", "))
}

func (e *AlreadySplitError) Unwrap() error { return ErrInvalidSplit }

// ValidateSplitParts checks the requested parts against the original amount and
// returns the parts as Money magnitudes along with their total.
func ValidateSplitParts(original Money, specs []SplitSpec) ([]Money, Money, error) {
	if len(specs) < MinSplitParts {
		return nil, Money{}, &InsufficientSplitsError{Count: len(specs)}
	}

	parts := make([]Money, len(specs))
	total := ZeroMoney(original.Currency)
	for i, spec := range specs {
		if !spec.Amount.IsPositive() {
			return nil, Money{}, &InvalidSplitAmountError{Amount: spec.Amount, SplitIndex: i}
		}
		part, err := NewMoney(spec.Amount, original.Currency)
		if err != nil {
			return nil, Money{}, &InvalidSplitAmountError{Amount: spec.Amount, SplitIndex: i}
		}
		parts[i] = part
		total, _ = total.Add(part)
	}

	limit := original.Abs()
	if total.Amount.GreaterThan(limit.Amount) {
		excess, _ := total.Sub(limit)
		return nil, Money{}, &ExceedsOriginalError{Original: limit, Requested: total, Excess: excess}
	}

	return parts, total, nil
}

// SplitPercentage returns part / |original| * 100 rounded to two places.
func SplitPercentage(part, original Money) decimal.Decimal {
	base := original.Amount.Abs()
	if base.IsZero() {
		return decimal.Zero
	}
	return part.Amount.Abs().Div(base).Mul(decimal.NewFromInt(100)).Round(2)
}
