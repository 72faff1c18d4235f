package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

const (
	getIdempotencyRecordSQL = `SELECT request_id, command_type, result_snapshot, created_at, expires_at
FROM idempotency_records
WHERE request_id = $1 AND expires_at > $2`

	// An expired record may be replaced. A live one makes the insert affect
	// no rows: another request committed the key first.
	insertIdempotencyRecordSQL = `INSERT INTO idempotency_records (request_id, command_type, result_snapshot, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (request_id) DO UPDATE
SET command_type = EXCLUDED.command_type,
    result_snapshot = EXCLUDED.result_snapshot,
    created_at = EXCLUDED.created_at,
    expires_at = EXCLUDED.expires_at
WHERE idempotency_records.expires_at <= EXCLUDED.created_at`

	deleteExpiredIdempotencyRecordsSQL = `DELETE FROM idempotency_records WHERE expires_at <= $1`
)

// IdempotencyRepository implements usecase.IdempotencyRepository.
type IdempotencyRepository struct {
	db  DBTX
	now func() time.Time
}

// NewIdempotencyRepository creates a new IdempotencyRepository.
func NewIdempotencyRepository(db DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db, now: time.Now}
}

// Get returns the live record for requestID, or nil.
func (r *IdempotencyRepository) Get(ctx context.Context, tx usecase.Transaction, requestID string) (*domain.IdempotencyRecord, error) {
	var (
		rec                  domain.IdempotencyRecord
		snapshot             []byte
		createdAt, expiresAt pgtype.Timestamptz
	)

	err := conn(tx).QueryRow(ctx, getIdempotencyRecordSQL, requestID, timeToPgTimestamptz(r.now().UTC())).
		Scan(&rec.RequestID, &rec.CommandType, &snapshot, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rec.ResultSnapshot = snapshot
	rec.CreatedAt = createdAt.Time.UTC()
	rec.ExpiresAt = expiresAt.Time.UTC()
	return &rec, nil
}

// Create stores a record. A live record under the same key fails with
// ErrConcurrentRequest.
func (r *IdempotencyRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.IdempotencyRecord) error {
	tag, err := conn(tx).Exec(ctx, insertIdempotencyRecordSQL,
		record.RequestID,
		record.CommandType,
		[]byte(record.ResultSnapshot),
		timeToPgTimestamptz(record.CreatedAt),
		timeToPgTimestamptz(record.ExpiresAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrConcurrentRequest, record.RequestID)
	}
	return nil
}

// DeleteExpired removes records that expired at or before the given time.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredIdempotencyRecordsSQL, timeToPgTimestamptz(before))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
