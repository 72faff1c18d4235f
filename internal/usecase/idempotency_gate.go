package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/infrastructure/metrics"
)

// UnitOfWork is the body of a command. It runs inside one database transaction
// and returns the result to be recorded.
type UnitOfWork func(ctx context.Context, tx Transaction) (any, error)

// IdempotencyGate runs each request id at most once. The outcome is written in
// the same transaction as the mutation, so a crash can never leave one without
// the other. A cache in front of the store answers replays without a round trip.
type IdempotencyGate struct {
	txManager TransactionManager
	repo      IdempotencyRepository
	cache     IdempotencyCache
	retrier   Retrier
	ttl       time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// IdempotencyGateConfig holds the gate dependencies. Cache, Retrier and Metrics are optional.
type IdempotencyGateConfig struct {
	TxManager TransactionManager
	Repo      IdempotencyRepository
	Cache     IdempotencyCache
	Retrier   Retrier
	TTL       time.Duration
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// NewIdempotencyGate creates a new IdempotencyGate.
func NewIdempotencyGate(cfg IdempotencyGateConfig) *IdempotencyGate {
	if cfg.TTL <= 0 {
		cfg.TTL = IdempotencyKeyTTL
	}
	return &IdempotencyGate{
		txManager: cfg.TxManager,
		repo:      cfg.Repo,
		cache:     cfg.Cache,
		retrier:   cfg.Retrier,
		ttl:       cfg.TTL,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Execute runs work unless requestID already has a recorded outcome, and decodes
// the outcome into out. The fresh result goes through the same encoding as a
// replay so both callers observe identical values. It reports whether the
// result was replayed.
func (g *IdempotencyGate) Execute(ctx context.Context, requestID string, command CommandType, out any, work UnitOfWork) (bool, error) {
	if requestID == "" {
		return false, domain.ErrMissingRequestID
	}

	if record := g.cached(ctx, requestID); record != nil {
		g.observeReplay(command, "cache")
		return true, decodeRecord(record, command, out)
	}

	var (
		record   *domain.IdempotencyRecord
		replayed bool
	)

	attempt := func() error {
		record, replayed = nil, false

		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := g.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		existing, err := g.repo.Get(txCtx, tx, requestID)
		if err != nil {
			return err
		}
		if existing != nil {
			record, replayed = existing, true
			return nil
		}

		result, err := work(txCtx, tx)
		if err != nil {
			return err
		}

		snapshot, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode %s result: %w", command, err)
		}

		now := time.Now().UTC()
		fresh := &domain.IdempotencyRecord{
			RequestID:      requestID,
			CommandType:    string(command),
			ResultSnapshot: snapshot,
			CreatedAt:      now,
			ExpiresAt:      now.Add(g.ttl),
		}
		if err := g.repo.Create(txCtx, tx, fresh); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}

		record = fresh
		return nil
	}

	var err error
	if g.retrier != nil {
		err = g.retrier.Retry(ctx, attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		return false, err
	}

	if replayed {
		g.observeReplay(command, "store")
	}
	g.remember(ctx, record)

	return replayed, decodeRecord(record, command, out)
}

// PurgeExpired deletes records whose retention window has passed.
func (g *IdempotencyGate) PurgeExpired(ctx context.Context) (int64, error) {
	return g.repo.DeleteExpired(ctx, time.Now().UTC())
}

func (g *IdempotencyGate) cached(ctx context.Context, requestID string) *domain.IdempotencyRecord {
	if g.cache == nil {
		return nil
	}

	record, err := g.cache.Get(ctx, requestID)
	if err != nil {
		g.logger.Warn().Err(err).Str("request_id", requestID).Msg("idempotency cache lookup failed")
		return nil
	}
	if record == nil || record.IsExpired(time.Now().UTC()) {
		return nil
	}
	return record
}

func (g *IdempotencyGate) remember(ctx context.Context, record *domain.IdempotencyRecord) {
	if g.cache == nil {
		return
	}

	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := g.cache.Set(ctx, record, ttl); err != nil {
		g.logger.Warn().Err(err).Str("request_id", record.RequestID).Msg("idempotency cache write failed")
	}
}

func (g *IdempotencyGate) observeReplay(command CommandType, source string) {
	if g.metrics != nil {
		g.metrics.IdempotentReplays.WithLabelValues(string(command), source).Inc()
	}
}

func decodeRecord(record *domain.IdempotencyRecord, command CommandType, out any) error {
	if record.CommandType != string(command) {
		return fmt.Errorf("%w: %s was recorded for %s", domain.ErrIdempotencyKeyReused, record.RequestID, record.CommandType)
	}
	if err := json.Unmarshal(record.ResultSnapshot, out); err != nil {
		return fmt.Errorf("decode %s result: %w", command, err)
	}
	return nil
}
