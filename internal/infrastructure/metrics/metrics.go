package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Command metrics
	CommandsTotal     *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	IdempotentReplays *prometheus.CounterVec
	RetryAttempts     prometheus.Counter

	// Ledger metrics
	BalanceApplications *prometheus.CounterVec
	TransactionsCreated *prometheus.CounterVec
	SplitsCreated       prometheus.Counter
	TransfersCreated    prometheus.Counter
	ImportRows          *prometheus.CounterVec
	Reconciliations     *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics
	CacheOperations *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
	AuditDropped     prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all Prometheus metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Command metrics
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_commands_total",
				Help: "Total number of commands by type and outcome",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgerengine_command_duration_seconds",
				Help:    "Duration of command execution including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		IdempotentReplays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_idempotent_replays_total",
				Help: "Commands answered from a stored idempotency record",
			},
			[]string{"command", "source"},
		),
		RetryAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerengine_retry_attempts_total",
			Help: "Units of work retried after a transient store error",
		}),

		// Ledger metrics
		BalanceApplications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_balance_applications_total",
				Help: "Balance changes applied by direction",
			},
			[]string{"direction"},
		),
		TransactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_transactions_created_total",
				Help: "Transactions created by kind",
			},
			[]string{"kind"},
		),
		SplitsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerengine_splits_total",
			Help: "Total number of split commands applied",
		}),
		TransfersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerengine_transfers_total",
			Help: "Total number of transfers created",
		}),
		ImportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_import_rows_total",
				Help: "Bulk import rows by outcome",
			},
			[]string{"outcome"},
		),
		Reconciliations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_reconciliations_total",
				Help: "Reconciliations by result",
			},
			[]string{"result"},
		),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerengine_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgerengine_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Cache metrics
		CacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_cache_operations_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),

		// Audit metrics
		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerengine_audit_logs_total",
				Help: "Total audit logs written",
			},
			[]string{"action", "status"},
		),
		AuditDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerengine_audit_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		}),
	}
}
