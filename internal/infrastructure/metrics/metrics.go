package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Settlement metrics
	TransactionsCreated *prometheus.CounterVec
	TransactionsSettled *prometheus.CounterVec
	SettlementDuration  *prometheus.HistogramVec
	SettlementAmount    *prometheus.HistogramVec
	FeesCollected       *prometheus.CounterVec
	SettlementErrors    *prometheus.CounterVec

	// Account metrics
	AccountsOpened    *prometheus.CounterVec
	AccountOperations *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	GRPCRequests *prometheus.CounterVec
	GRPCDuration *prometheus.HistogramVec

	// Database metrics
	DBErrors  *prometheus.CounterVec
	DBRetries prometheus.Counter

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec

	// Outbox metrics
	EventsPublished prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Settlement metrics
		TransactionsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_transactions_created_total",
				Help: "Total number of transaction records created by type",
			},
			[]string{"type"},
		),
		TransactionsSettled: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_transactions_settled_total",
				Help: "Total number of transactions that reached a terminal status",
			},
			[]string{"type", "status"},
		),
		SettlementDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mfsledger_settlement_duration_seconds",
				Help:    "Duration of settlement operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		SettlementAmount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mfsledger_settlement_amount",
				Help:    "Settled amounts",
				Buckets: []float64{50, 100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"type"},
		),
		FeesCollected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_fees_collected_total",
				Help: "Sum of fees charged by transaction type",
			},
			[]string{"type"},
		),
		SettlementErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_settlement_errors_total",
				Help: "Total number of settlement errors by operation and kind",
			},
			[]string{"operation", "kind"},
		),

		// Account metrics
		AccountsOpened: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_accounts_opened_total",
				Help: "Total number of accounts opened by requested role",
			},
			[]string{"role"},
		),
		AccountOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mfsledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		GRPCRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_grpc_requests_total",
				Help: "Total gRPC requests",
			},
			[]string{"method", "status"},
		),
		GRPCDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mfsledger_grpc_duration_seconds",
				Help:    "gRPC request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		// Database metrics
		DBErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
		DBRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "mfsledger_db_retries_total",
			Help: "Units of work re-run after a deadlock or serialization failure",
		}),

		// Redis metrics
		RedisOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation", "result"},
		),
		RedisErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Audit metrics
		AuditLogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfsledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),

		EventsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "mfsledger_outbox_events_published_total",
			Help: "Outbox events handed to the publisher",
		}),
	}
}
