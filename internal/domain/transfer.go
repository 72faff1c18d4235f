package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FxSpec describes how a cross-currency transfer is converted. When Rate is nil
// the rate provider is consulted for the transfer date.
type FxSpec struct {
	Rate       *decimal.Decimal `json:"rate,omitempty"`
	Source     string           `json:"source,omitempty"`
	ObtainedAt *time.Time       `json:"obtained_at,omitempty"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
}

// Validate rejects non-positive or expired rates.
func (s *FxSpec) Validate(now time.Time) error {
	if s == nil {
		return nil
	}
	if s.Rate != nil && !s.Rate.IsPositive() {
		return fmt.Errorf("%w: rate must be positive, got %s", ErrInvalidFxSpec, s.Rate.String())
	}
	if s.ValidUntil != nil && now.After(*s.ValidUntil) {
		return fmt.Errorf("%w: rate expired at %s", ErrInvalidFxSpec, s.ValidUntil.Format(time.RFC3339))
	}
	return nil
}

// Convert applies the rate once and rounds half-to-even to the target currency.
func Convert(amount Money, rate decimal.Decimal, to Currency) (Money, error) {
	if !rate.IsPositive() {
		return Money{}, fmt.Errorf("%w: rate must be positive, got %s", ErrInvalidFxSpec, rate.String())
	}
	return NewMoneyRounded(amount.Amount.Mul(rate), to)
}
