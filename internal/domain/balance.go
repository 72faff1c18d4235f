package domain

import "time"

// BalanceSnapshot is the end-of-day balance of an account, overwritten by every
// application that lands on the same date.
type BalanceSnapshot struct {
	AccountID string    `json:"account_id"`
	Date      time.Time `json:"date"`
	Balance   Money     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BalanceSummary is a read-only view of an account's position.
type BalanceSummary struct {
	AccountID     string     `json:"account_id"`
	Balance       Money      `json:"balance"`
	PendingTotal  Money      `json:"pending_total"`
	Available     Money      `json:"available"`
	LastEntryDate *time.Time `json:"last_entry_date,omitempty"`
}

// AccountDrift reports an account whose balance disagrees with its entries.
type AccountDrift struct {
	AccountID  string `json:"account_id"`
	Balance    Money  `json:"balance"`
	EntriesSum Money  `json:"entries_sum"`
}
