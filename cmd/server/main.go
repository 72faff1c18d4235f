package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jive/ledgerengine/internal/adapter/fxrate"
	httpAdapter "github.com/jive/ledgerengine/internal/adapter/http"
	"github.com/jive/ledgerengine/internal/adapter/http/handler"
	"github.com/jive/ledgerengine/internal/adapter/http/middleware"
	postgresRepo "github.com/jive/ledgerengine/internal/adapter/repository/postgres"
	redisRepo "github.com/jive/ledgerengine/internal/adapter/repository/redis"
	"github.com/jive/ledgerengine/internal/infrastructure/audit"
	"github.com/jive/ledgerengine/internal/infrastructure/config"
	"github.com/jive/ledgerengine/internal/infrastructure/logger"
	"github.com/jive/ledgerengine/internal/infrastructure/metrics"
	"github.com/jive/ledgerengine/internal/infrastructure/postgres"
	"github.com/jive/ledgerengine/internal/infrastructure/redis"
	"github.com/jive/ledgerengine/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	logg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "ledgerengine"})
	log.Logger = logg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal().Err(err).Msg("server failed")
	}
	logg.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logg zerolog.Logger) error {
	m := metrics.New()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logg.Info().Msg("connected to postgres")

	if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logg).Up(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	// Redis is optional: without it replays are served from postgres only.
	var (
		redisClient *goredis.Client
		cache       usecase.IdempotencyCache
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL})
		if err != nil {
			logg.Warn().Err(err).Msg("redis unavailable, idempotency cache disabled")
		} else {
			defer redisClient.Close()
			cache = redisRepo.NewIdempotencyCache(redisClient, cfg.IdempotencyCacheTTL)
			logg.Info().Msg("connected to redis")
		}
	}

	rates, err := fxrate.ParseRates(cfg.FxRates)
	if err != nil {
		return fmt.Errorf("parse FX_RATES: %w", err)
	}
	overdraft, err := usecase.ParseOverdraftPolicy(cfg.OverdraftAllowedKinds)
	if err != nil {
		return fmt.Errorf("parse OVERDRAFT_ALLOWED_KINDS: %w", err)
	}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool, cfg.DatabaseLockTimeout)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	auditor := audit.NewDispatcher(audit.Config{
		Repo:       postgresRepo.NewAuditRepository(pool),
		Logger:     logg.With().Str("component", "audit").Logger(),
		Metrics:    m,
		BufferSize: cfg.AuditBufferSize,
	})

	// Initialize use cases
	service := usecase.NewTransactionService(usecase.TransactionServiceDeps{
		TxManager:        txManager,
		Accounts:         accountRepo,
		Transactions:     postgresRepo.NewTransactionRepository(pool),
		Entries:          postgresRepo.NewEntryRepository(pool),
		Splits:           postgresRepo.NewSplitRepository(pool),
		BalanceHistory:   postgresRepo.NewBalanceHistoryRepository(pool),
		Idempotency:      postgresRepo.NewIdempotencyRepository(pool),
		IdempotencyCache: cache,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Retrier:          postgresRepo.NewRetrier(cfg.RetryMaxAttempts, logg, m),
		RateProvider:     fxrate.NewCachedProvider(rates, cfg.FxCacheTTL, m),
		OverdraftPolicy:  overdraft,
		AuditLogger:      auditor,
		IDGenerator:      idGen,
		Logger:           logg,
		Metrics:          m,
	})
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen, auditor, m)
	ledgerUC := usecase.NewLedgerUseCase(postgresRepo.NewLedgerRepository(pool))

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTPRateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTPRateLimitRPS, cfg.HTTPRateLimitBurst)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(service),
		EntryHandler:       handler.NewEntryHandler(service),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		HealthHandler:      handler.NewHealthHandler(healthChecks(pool, redisClient)),
		Logger:             logg,
		Metrics:            m,
		RateLimiter:        rateLimiter,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Background workers stop with workerCtx.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = auditor.Start(workerCtx)
	}()
	go func() {
		defer wg.Done()
		purgeExpired(workerCtx, service.Gate(), cfg.IdempotencyPurgeInterval, logg)
	}()
	if rateLimiter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rateLimiter.Run(workerCtx, time.Minute)
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logg.Info().Msg("shutting down server...")
	case err := <-serverErr:
		if err != nil {
			cancelWorkers()
			wg.Wait()
			return err
		}
	}

	// Graceful shutdown: stop taking requests, then flush the audit buffer.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error().Err(err).Msg("server forced to shutdown")
	}

	cancelWorkers()
	wg.Wait()
	return nil
}

// purger deletes expired idempotency records.
type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeExpired periodically removes expired idempotency records until ctx is done.
func purgeExpired(ctx context.Context, p purger, interval time.Duration, logg zerolog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				logg.Error().Err(err).Msg("failed to purge idempotency records")
				continue
			}
			if n > 0 {
				logg.Debug().Int64("purged", n).Msg("purged expired idempotency records")
			}
		}
	}
}

// healthChecks builds the readiness checks for the connected dependencies.
func healthChecks(pool *pgxpool.Pool, redisClient *goredis.Client) map[string]handler.Check {
	checks := map[string]handler.Check{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
