package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jive/ledgerengine/internal/adapter/http/dto"
	"github.com/jive/ledgerengine/internal/domain"
)

// BalanceQueries defines the lock-free reads needed by EntryHandler.
type BalanceQueries interface {
	ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	GetBalanceSummary(ctx context.Context, accountID string) (*domain.BalanceSummary, error)
	GetBalanceHistory(ctx context.Context, accountID string, limit int) ([]*domain.BalanceSnapshot, error)
}

// EntryHandler serves entries and balances of an account.
type EntryHandler struct {
	queries BalanceQueries
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(queries BalanceQueries) *EntryHandler {
	return &EntryHandler{queries: queries}
}

// ListByAccount lists entries for an account, newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		missingParam(w, "account ID")
		return
	}

	entries, err := h.queries.ListEntries(r.Context(), accountID, parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Balance returns the balance summary of an account.
func (h *EntryHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		missingParam(w, "account ID")
		return
	}

	summary, err := h.queries.GetBalanceSummary(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// BalanceHistory returns the daily balance snapshots of an account.
func (h *EntryHandler) BalanceHistory(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		missingParam(w, "account ID")
		return
	}

	history, err := h.queries.GetBalanceHistory(r.Context(), accountID, parseIntQuery(r, "limit", 90))
	if err != nil {
		writeDomainError(w, "failed to get balance history", err)
		return
	}
	if history == nil {
		history = []*domain.BalanceSnapshot{}
	}

	writeJSON(w, http.StatusOK, history)
}
