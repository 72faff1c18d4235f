package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jive/ledgerengine/internal/domain"
)

const idempotencyPrefix = "idempotency:"

// cachedRecord is the stored form of a domain.IdempotencyRecord.
type cachedRecord struct {
	RequestID      string          `json:"request_id"`
	CommandType    string          `json:"command_type"`
	ResultSnapshot json.RawMessage `json:"result_snapshot"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// IdempotencyCache implements usecase.IdempotencyCache using Redis. It only
// ever holds records that were already committed to the database.
type IdempotencyCache struct {
	client redis.UniversalClient
	prefix string
	maxTTL time.Duration
}

// NewIdempotencyCache creates a new IdempotencyCache. A positive maxTTL caps
// how long a record stays cached.
func NewIdempotencyCache(client redis.UniversalClient, maxTTL time.Duration) *IdempotencyCache {
	return &IdempotencyCache{
		client: client,
		prefix: idempotencyPrefix,
		maxTTL: maxTTL,
	}
}

// Get returns the cached record, or nil on a miss.
func (c *IdempotencyCache) Get(ctx context.Context, requestID string) (*domain.IdempotencyRecord, error) {
	data, err := c.client.Get(ctx, c.prefix+requestID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cached cachedRecord
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("decode cached idempotency record %s: %w", requestID, err)
	}

	return &domain.IdempotencyRecord{
		RequestID:      cached.RequestID,
		CommandType:    cached.CommandType,
		ResultSnapshot: cached.ResultSnapshot,
		CreatedAt:      cached.CreatedAt,
		ExpiresAt:      cached.ExpiresAt,
	}, nil
}

// Set stores a committed record for ttl, capped by the cache's maxTTL.
func (c *IdempotencyCache) Set(ctx context.Context, record *domain.IdempotencyRecord, ttl time.Duration) error {
	if c.maxTTL > 0 && (ttl <= 0 || ttl > c.maxTTL) {
		ttl = c.maxTTL
	}

	data, err := json.Marshal(cachedRecord{
		RequestID:      record.RequestID,
		CommandType:    record.CommandType,
		ResultSnapshot: record.ResultSnapshot,
		CreatedAt:      record.CreatedAt,
		ExpiresAt:      record.ExpiresAt,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+record.RequestID, data, ttl).Err()
}
