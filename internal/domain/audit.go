package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records one state transition of the ledger.
type AuditLog struct {
	ID           string
	Action       AuditAction
	ResourceType string // transaction, account
	ResourceID   string
	RequestID    string
	AfterState   JSON
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionAccountCreate  AuditAction = "account.create"
	AuditActionAccountArchive AuditAction = "account.archive"

	AuditActionTransactionCreate    AuditAction = "transaction.create"
	AuditActionTransactionUpdate    AuditAction = "transaction.update"
	AuditActionTransactionDelete    AuditAction = "transaction.delete"
	AuditActionTransactionRestore   AuditAction = "transaction.restore"
	AuditActionTransactionSplit     AuditAction = "transaction.split"
	AuditActionTransactionRefund    AuditAction = "transaction.refund"
	AuditActionTransactionTransfer  AuditAction = "transaction.transfer"
	AuditActionTransactionImport    AuditAction = "transaction.import"
	AuditActionTransactionSettle    AuditAction = "transaction.settle"
	AuditActionTransactionReconcile AuditAction = "transaction.reconcile"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}
