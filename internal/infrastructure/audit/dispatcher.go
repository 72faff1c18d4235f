package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/infrastructure/metrics"
	"github.com/jive/ledgerengine/internal/usecase"
)

// Dispatcher is a fire-and-forget AuditLogger. Record queues the event on a
// bounded buffer and a single worker writes it to the repository. Events are
// dropped, never blocked on, when the buffer is full.
type Dispatcher struct {
	repo         usecase.AuditRepository
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	events       chan *domain.AuditLog
	writeTimeout time.Duration
	drainTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// Config for Dispatcher.
type Config struct {
	Repo         usecase.AuditRepository
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
	BufferSize   int           // Events held before Record starts dropping
	WriteTimeout time.Duration // Per-event repository deadline
	DrainTimeout time.Duration // Budget for flushing the buffer on shutdown
}

// NewDispatcher creates a new Dispatcher. Call Start to run the worker.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 10 * time.Second
	}

	return &Dispatcher{
		repo:         cfg.Repo,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		events:       make(chan *domain.AuditLog, cfg.BufferSize),
		writeTimeout: cfg.WriteTimeout,
		drainTimeout: cfg.DrainTimeout,
		done:         make(chan struct{}),
	}
}

// Record implements usecase.AuditLogger.
func (d *Dispatcher) Record(_ context.Context, log *domain.AuditLog) {
	if log == nil {
		return
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	select {
	case d.events <- log:
	default:
		if d.metrics != nil {
			d.metrics.AuditDropped.Inc()
		}
		d.logger.Warn().
			Str("action", string(log.Action)).
			Str("resource_id", log.ResourceID).
			Msg("audit buffer full, event dropped")
	}
}

// Start runs the worker until ctx is cancelled, then flushes whatever is still
// buffered. It returns ctx.Err().
func (d *Dispatcher) Start(ctx context.Context) error {
	defer d.closeOnce.Do(func() { close(d.done) })

	d.logger.Info().Int("buffer_size", cap(d.events)).Msg("audit dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info().Msg("audit dispatcher shutting down")
			return ctx.Err()
		case log := <-d.events:
			d.write(context.Background(), log)
		}
	}
}

// Done is closed once Start has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.drainTimeout)
	defer cancel()

	for {
		select {
		case log := <-d.events:
			d.write(ctx, log)
		default:
			return
		}
		if ctx.Err() != nil {
			d.logger.Warn().Int("remaining", len(d.events)).Msg("audit drain timed out")
			return
		}
	}
}

func (d *Dispatcher) write(parent context.Context, log *domain.AuditLog) {
	ctx, cancel := context.WithTimeout(parent, d.writeTimeout)
	defer cancel()

	if err := d.repo.Create(ctx, log); err != nil {
		d.logger.Error().
			Err(err).
			Str("action", string(log.Action)).
			Str("resource_id", log.ResourceID).
			Msg("failed to write audit log")
		return
	}

	if d.metrics != nil {
		d.metrics.AuditLogsCreated.WithLabelValues(string(log.Action), string(log.Status)).Inc()
	}
}
