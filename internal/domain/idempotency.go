package domain

import (
	"encoding/json"
	"time"
)

// IdempotencyRecord stores the outcome of a command under its request id.
type IdempotencyRecord struct {
	RequestID      string
	CommandType    string
	ResultSnapshot json.RawMessage
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// IsExpired reports whether the record may be ignored.
func (r *IdempotencyRecord) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}
