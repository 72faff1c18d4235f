package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds one unit of work, including the time
	// spent waiting for account row locks.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is the default retention of a command's result.
	IdempotencyKeyTTL = 24 * time.Hour

	// MaxBulkImportItems caps a single import command.
	MaxBulkImportItems = 5000
)
