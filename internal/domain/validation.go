package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName     = errors.New("invalid account name")
	ErrInvalidTransactionName = errors.New("invalid transaction name")
	ErrInvalidTags            = errors.New("invalid tags")
	ErrAmountTooLarge         = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MaxAccountNameLength     = 255
	MaxTransactionNameLength = 255
	MaxTags                  = 32
	MaxTagLength             = 64
	MaxTransactionAmount     = "1000000000000" // 1 trillion
)

var maxTransactionAmount = decimal.RequireFromString(MaxTransactionAmount)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateTransactionName validates the entry name shown to users.
func ValidateTransactionName(name string) error {
	if len(strings.TrimSpace(name)) > MaxTransactionNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidTransactionName, MaxTransactionNameLength)
	}
	return nil
}

// ValidateTags limits the number and length of tags.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("%w: at most %d tags allowed", ErrInvalidTags, MaxTags)
	}
	for _, tag := range tags {
		if len(tag) > MaxTagLength {
			return fmt.Errorf("%w: tag %q exceeds %d characters", ErrInvalidTags, tag, MaxTagLength)
		}
	}
	return nil
}

// ValidateSignedAmount checks a non-zero transaction amount against the limits.
func ValidateSignedAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: amount must not be zero", ErrInvalidAmount)
	}

	if amount.Abs().GreaterThan(maxTransactionAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransactionAmount)
	}

	return nil
}

// ValidatePositiveAmount checks a magnitude such as a transfer or refund amount.
func ValidatePositiveAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return ValidateSignedAmount(amount)
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
