package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jive/ledgerengine/internal/adapter/http/dto"
	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

// TransactionService defines the ledger commands needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, cmd usecase.CreateTransactionCommand) (*usecase.TransactionResult, error)
	UpdateTransaction(ctx context.Context, cmd usecase.UpdateTransactionCommand) (*usecase.TransactionResult, error)
	DeleteTransaction(ctx context.Context, cmd usecase.DeleteTransactionCommand) (*usecase.DeleteResult, error)
	RestoreTransaction(ctx context.Context, cmd usecase.RestoreTransactionCommand) (*usecase.RestoreResult, error)
	SplitTransaction(ctx context.Context, cmd usecase.SplitTransactionCommand) (*usecase.SplitTransactionResult, error)
	RefundTransaction(ctx context.Context, cmd usecase.RefundTransactionCommand) (*usecase.TransactionResult, error)
	Transfer(ctx context.Context, cmd usecase.TransferCommand) (*usecase.TransferResult, error)
	BulkImportTransactions(ctx context.Context, cmd usecase.BulkImportTransactionsCommand) (*usecase.BulkImportResult, error)
	SettleTransactions(ctx context.Context, cmd usecase.SettleTransactionsCommand) (*usecase.SettlementResult, error)
	ReconcileTransactions(ctx context.Context, cmd usecase.ReconcileTransactionsCommand) (*usecase.ReconciliationResult, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
}

// TransactionHandler handles transaction-related HTTP requests. Every
// mutation runs under the request id resolved by the RequestID middleware.
type TransactionHandler struct {
	service TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(service TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// Create records a new transaction.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd, err := req.ToCommand(requestID(r))
	if err != nil {
		writeDomainError(w, "invalid transaction", err)
		return
	}

	res, err := h.service.CreateTransaction(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, "failed to create transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionResultFromUseCase(res))
}

// Get retrieves a transaction by ID, deleted or not.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		missingParam(w, "transaction ID")
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// Update patches a transaction.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		missingParam(w, "transaction ID")
		return
	}

	var req dto.UpdateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd, err := req.ToCommand(requestID(r), id)
	if err != nil {
		writeDomainError(w, "invalid transaction update", err)
		return
	}

	res, err := h.service.UpdateTransaction(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, "failed to update transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionResultFromUseCase(res))
}

// Delete soft-deletes a transaction.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		missingParam(w, "transaction ID")
		return
	}

	res, err := h.service.DeleteTransaction(r.Context(), usecase.DeleteTransactionCommand{
		RequestID:     requestID(r),
		TransactionID: id,
	})
	if err != nil {
		writeDomainError(w, "failed to delete transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Restore reverts a soft deletion.
func (h *TransactionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		missingParam(w, "transaction ID")
		return
	}

	res, err := h.service.RestoreTransaction(r.Context(), usecase.RestoreTransactionCommand{
		RequestID:     requestID(r),
		TransactionID: id,
	})
	if err != nil {
		writeDomainError(w, "failed to restore transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Split decomposes a transaction into child transactions.
func (h *TransactionHandler) Split(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		missingParam(w, "transaction ID")
		return
	}

	var req dto.SplitTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd, err := req.ToCommand(requestID(r), id)
	if err != nil {
		writeDomainError(w, "invalid split", err)
		return
	}

	res, err := h.service.SplitTransaction(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, "failed to split transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SplitFromUseCase(res))
}

// Refund records a refund against a transaction.
func (h *TransactionHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		missingParam(w, "transaction ID")
		return
	}

	var req dto.RefundTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd, err := req.ToCommand(requestID(r), id)
	if err != nil {
		writeDomainError(w, "invalid refund", err)
		return
	}

	res, err := h.service.RefundTransaction(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, "failed to refund transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionResultFromUseCase(res))
}

// Transfer moves money between two accounts.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd, err := req.ToCommand(requestID(r))
	if err != nil {
		writeDomainError(w, "invalid transfer", err)
		return
	}

	res, err := h.service.Transfer(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, "failed to create transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromUseCase(res))
}

// Import records a batch of transactions. Row-level failures are part of the
// response body, not the status.
func (h *TransactionHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.BulkImportTransactions(r.Context(), req.ToCommand(requestID(r)))
	if err != nil {
		writeDomainError(w, "failed to import transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Settle clears pending transactions.
func (h *TransactionHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleTransactionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.SettleTransactions(r.Context(), req.ToCommand(requestID(r)))
	if err != nil {
		writeDomainError(w, "failed to settle transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Reconcile compares an account with a bank statement.
func (h *TransactionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		missingParam(w, "account ID")
		return
	}

	var req dto.ReconcileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd, err := req.ToCommand(requestID(r), accountID)
	if err != nil {
		writeDomainError(w, "invalid reconciliation", err)
		return
	}

	res, err := h.service.ReconcileTransactions(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
