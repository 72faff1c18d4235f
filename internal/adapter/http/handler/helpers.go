package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jive/ledgerengine/internal/adapter/http/dto"
	"github.com/jive/ledgerengine/internal/adapter/http/middleware"
	"github.com/jive/ledgerengine/internal/domain"
)

// maxBodyBytes bounds request bodies; a full bulk import fits comfortably.
const maxBodyBytes = 8 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status code and writes it. Details of
// unexpected errors are not exposed.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	writeError(w, status, message, details)
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// requestID returns the id resolved by the RequestID middleware.
func requestID(r *http.Request) string {
	return middleware.RequestIDFrom(r.Context())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrLedgerNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrInvalidPrecision),
		errors.Is(err, domain.ErrUnsupportedCurrency),
		errors.Is(err, domain.ErrDivisionByZero),
		errors.Is(err, domain.ErrInvalidAccountKind),
		errors.Is(err, domain.ErrInvalidAccountName),
		errors.Is(err, domain.ErrInvalidTransactionName),
		errors.Is(err, domain.ErrInvalidTags),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrFxRequired),
		errors.Is(err, domain.ErrInvalidFxSpec),
		errors.Is(err, domain.ErrInvalidImportPolicy),
		errors.Is(err, domain.ErrImportTooLarge),
		errors.Is(err, domain.ErrMissingRequestID):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrInvalidSplit),
		errors.Is(err, domain.ErrNotSplittable),
		errors.Is(err, domain.ErrFullySplit),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrRefundExceedsOriginal),
		errors.Is(err, domain.ErrNotRefundable),
		errors.Is(err, domain.ErrAmountImmutable),
		errors.Is(err, domain.ErrTransferLegImmutable),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrFxRateUnavailable):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrTransactionDeleted),
		errors.Is(err, domain.ErrTransactionNotDeleted),
		errors.Is(err, domain.ErrIdempotencyKeyReused),
		errors.Is(err, domain.ErrImportConflict),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, domain.ErrConcurrentRequest),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

func missingParam(w http.ResponseWriter, name string) {
	writeError(w, http.StatusBadRequest, fmt.Sprintf("missing %s", name), "")
}
