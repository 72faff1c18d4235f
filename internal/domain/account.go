package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle status of an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusSyncing  AccountStatus = "syncing"
	AccountStatusError    AccountStatus = "error"
	AccountStatusArchived AccountStatus = "archived"
)

// AccountKind classifies an account. Overdraft rules are configured per kind.
type AccountKind string

const (
	AccountKindChecking   AccountKind = "checking"
	AccountKindSavings    AccountKind = "savings"
	AccountKindCash       AccountKind = "cash"
	AccountKindInvestment AccountKind = "investment"
	AccountKindCreditCard AccountKind = "credit_card"
	AccountKindLoan       AccountKind = "loan"
	AccountKindLiability  AccountKind = "liability"
	AccountKindOther      AccountKind = "other"
)

var accountKinds = map[AccountKind]bool{
	AccountKindChecking:   true,
	AccountKindSavings:    true,
	AccountKindCash:       true,
	AccountKindInvestment: true,
	AccountKindCreditCard: true,
	AccountKindLoan:       true,
	AccountKindLiability:  true,
	AccountKindOther:      true,
}

// ParseAccountKind validates an account kind.
func ParseAccountKind(kind string) (AccountKind, error) {
	k := AccountKind(strings.ToLower(strings.TrimSpace(kind)))
	if !accountKinds[k] {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountKind, kind)
	}
	return k, nil
}

// Account holds a running balance. The balance is only ever changed by the
// balance maintainer while the account row is locked.
type Account struct {
	ID        string          `json:"id"`
	LedgerID  string          `json:"ledger_id"`
	Name      string          `json:"name"`
	Kind      AccountKind     `json:"kind"`
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Status    AccountStatus   `json:"status"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BalanceMoney returns the balance tagged with the account currency.
func (a *Account) BalanceMoney() Money {
	return Money{Amount: a.Balance, Currency: a.Currency}
}

// IsActive reports whether new transactions may be recorded against the account.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// CanPost reports whether the balance may still change. Archived accounts are frozen.
func (a *Account) CanPost() bool {
	return a.Status != AccountStatusArchived
}

// EnsureActive returns ErrAccountInactive unless the account is active.
func (a *Account) EnsureActive() error {
	if !a.IsActive() {
		return fmt.Errorf("%w: %s is %s", ErrAccountInactive, a.ID, a.Status)
	}
	return nil
}

// EnsureLedger checks that the account belongs to the given ledger.
func (a *Account) EnsureLedger(ledgerID string) error {
	if ledgerID != "" && a.LedgerID != ledgerID {
		return fmt.Errorf("%w: account %s is not part of ledger %s", ErrLedgerNotFound, a.ID, ledgerID)
	}
	return nil
}
