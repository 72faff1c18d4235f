package domain

import "errors"

var (
	// Money errors
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrInvalidPrecision    = errors.New("amount exceeds currency precision")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// Not found
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrLedgerNotFound      = errors.New("ledger not found")

	// Account errors
	ErrAccountInactive     = errors.New("account is not active")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAccountKind  = errors.New("invalid account kind")

	// Transaction errors
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrTransactionDeleted      = errors.New("transaction is deleted")
	ErrTransactionNotDeleted   = errors.New("transaction is not deleted")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrTransferLegImmutable    = errors.New("transfer leg amount cannot be changed")
	ErrRefundExceedsOriginal   = errors.New("refunds exceed original amount")
	ErrFullySplit              = errors.New("transaction was fully split")
	ErrAmountImmutable         = errors.New("transaction amount cannot be changed")
	ErrNotRefundable           = errors.New("transaction cannot be refunded")

	// Split errors
	ErrInvalidSplit  = errors.New("invalid split")
	ErrNotSplittable = errors.New("transaction cannot be split")

	// Transfer errors
	ErrSameAccount       = errors.New("cannot transfer to same account")
	ErrFxRequired        = errors.New("exchange rate required for cross-currency transfer")
	ErrInvalidFxSpec     = errors.New("invalid exchange rate specification")
	ErrFxRateUnavailable = errors.New("exchange rate unavailable")

	// Import errors
	ErrImportConflict      = errors.New("import conflicts with existing transaction")
	ErrInvalidImportPolicy = errors.New("invalid import conflict policy")
	ErrImportTooLarge      = errors.New("too many import items")

	// Idempotency errors
	ErrMissingRequestID     = errors.New("request id is required")
	ErrIdempotencyKeyReused = errors.New("request id was already used for a different command")
	ErrConcurrentRequest    = errors.New("request with the same id is in flight")

	ErrConflict = errors.New("conflict")
)
