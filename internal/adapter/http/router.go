package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/mfsledger/internal/adapter/http/handler"
	"github.com/iho/mfsledger/internal/adapter/http/middleware"
	"github.com/iho/mfsledger/internal/infrastructure/metrics"
	"github.com/iho/mfsledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	AuthHandler        *handler.AuthHandler
	SettlementHandler  *handler.SettlementHandler
	TransactionHandler *handler.TransactionHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler

	TokenVerifier    middleware.TokenVerifier
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestMeta)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	idempotent := func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public; idempotency keys need a principal to be scoped to
		r.Group(func(r chi.Router) {
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/accounts", cfg.AccountHandler.Open)
			r.Get("/fees/quote", cfg.SettlementHandler.QuoteFee)
		})

		// Authenticated; idempotency keys are scoped to the principal
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
			idempotent(r)

			r.Get("/accounts", cfg.AccountHandler.List)
			r.Get("/accounts/me/balance", cfg.AccountHandler.Balance)
			r.Post("/accounts/{id}/approve-agent", cfg.AccountHandler.ApproveAgent)

			r.Post("/cash-in", cfg.SettlementHandler.RequestCashIn)
			r.Put("/cash-in/{id}/approve", cfg.SettlementHandler.ApproveCashIn)
			r.Put("/cash-in/{id}/reject", cfg.SettlementHandler.RejectCashIn)
			r.Get("/cash-in-requests/me", cfg.TransactionHandler.ListPendingCashIn)
			r.Post("/cash-out", cfg.SettlementHandler.RequestCashOut)
			r.Post("/send-money", cfg.SettlementHandler.SendMoney)

			r.Get("/transactions", cfg.TransactionHandler.ListAll)
			r.Get("/transactions/me", cfg.TransactionHandler.ListMine)
			r.Get("/transactions/{id}", cfg.TransactionHandler.Get)

			r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Get("/ledger/reconciliation", cfg.LedgerHandler.Reconciliation)
		})
	})

	return r
}
