package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jive/ledgerengine/internal/domain"
)

const (
	insertAuditLogSQL = `INSERT INTO audit_logs (
id, action, resource_type, resource_id, request_id, after_state, status, error_message, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	listAuditLogsByResourceSQL = `SELECT id, action, resource_type, resource_id, request_id,
after_state, status, error_message, created_at
FROM audit_logs
WHERE resource_type = $1 AND resource_id = $2
ORDER BY created_at DESC, id DESC`
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var afterStateJSON []byte
	if log.AfterState != nil {
		var err error
		afterStateJSON, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	_, err := r.db.Exec(ctx, insertAuditLogSQL,
		log.ID,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		afterStateJSON,
		string(log.Status),
		log.ErrorMessage,
		timeToPgTimestamptz(log.CreatedAt),
	)

	return err
}

// ListByResource retrieves all audit logs for a specific resource, newest first
func (r *AuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, listAuditLogsByResourceSQL, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log            domain.AuditLog
			action, status string
			afterStateJSON []byte
			createdAt      pgtype.Timestamptz
		)

		err := rows.Scan(
			&log.ID,
			&action,
			&log.ResourceType,
			&log.ResourceID,
			&log.RequestID,
			&afterStateJSON,
			&status,
			&log.ErrorMessage,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		log.Action = domain.AuditAction(action)
		log.Status = domain.AuditStatus(status)
		log.CreatedAt = createdAt.Time.UTC()
		if afterStateJSON != nil {
			_ = json.Unmarshal(afterStateJSON, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
