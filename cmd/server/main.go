package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	mfsledgerv1 "github.com/iho/mfsledger/internal/adapter/grpc/api/mfsledger/v1"
	grpcmiddleware "github.com/iho/mfsledger/internal/adapter/grpc/middleware"
	grpcserver "github.com/iho/mfsledger/internal/adapter/grpc/server"
	httpAdapter "github.com/iho/mfsledger/internal/adapter/http"
	"github.com/iho/mfsledger/internal/adapter/http/handler"
	httpmiddleware "github.com/iho/mfsledger/internal/adapter/http/middleware"
	"github.com/iho/mfsledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/mfsledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/mfsledger/internal/adapter/repository/redis"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/auth"
	"github.com/iho/mfsledger/internal/infrastructure/config"
	"github.com/iho/mfsledger/internal/infrastructure/eventpublisher"
	"github.com/iho/mfsledger/internal/infrastructure/logger"
	"github.com/iho/mfsledger/internal/infrastructure/metrics"
	"github.com/iho/mfsledger/internal/infrastructure/postgres"
	"github.com/iho/mfsledger/internal/infrastructure/redis"
	"github.com/iho/mfsledger/internal/usecase"
)

const limiterCleanupInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cfg, logger, reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	httpServer := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      a.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	if addr := listenAddr(cfg.GRPCPort); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", addr).Msg("failed to listen for grpc")
		}
		go func() {
			logger.Info().Str("addr", addr).Msg("starting grpc server")
			if err := a.grpc.Serve(lis); err != nil {
				logger.Fatal().Err(err).Msg("grpc server failed")
			}
		}()
	}

	go func() {
		if err := a.publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("event publisher stopped")
		}
	}()
	go a.limiter.StartCleanup(ctx, limiterCleanupInterval)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server forced to shutdown")
	}
	a.grpc.GracefulStop()

	logger.Info().Msg("server stopped")
}

// listenAddr turns a configured port into a listen address. An empty port
// disables the listener.
func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// app is the wired service: both transports plus the background workers.
type app struct {
	router    http.Handler
	grpc      *grpc.Server
	publisher *eventpublisher.EventPublisher
	limiter   *httpmiddleware.RateLimiter
	accounts  *usecase.AccountUseCase
	closers   []func()
}

// Close releases storage and Redis connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is the set of repositories behind one driver.
type storage struct {
	txManager    usecase.TransactionManager
	accounts     usecase.AccountRepository
	transactions usecase.TransactionRepository
	entries      usecase.EntryRepository
	ledger       usecase.LedgerRepository
	outbox       usecase.OutboxRepository
	audit        usecase.AuditRepository
	credentials  usecase.CredentialRepository
	retrier      usecase.Retrier
	pinger       handler.Pinger
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		store := memory.NewStore()
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		return &storage{
			txManager:    memory.NewTxManager(store),
			accounts:     memory.NewAccountRepository(store),
			transactions: memory.NewTransactionRepository(store),
			entries:      memory.NewEntryRepository(store),
			ledger:       memory.NewLedgerRepository(store),
			outbox:       memory.NewOutboxRepository(store),
			audit:        memory.NewAuditRepository(store),
			credentials:  memory.NewCredentialRepository(store),
			retrier:      memory.NoopRetrier{},
			close:        func() {},
		}, nil
	}

	if cfg.AutoMigrate {
		if err := postgres.NewMigrator(cfg.DatabaseURL, logger).Up(); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return &storage{
		txManager:    postgresRepo.NewTxManager(pool),
		accounts:     postgresRepo.NewAccountRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		entries:      postgresRepo.NewEntryRepository(pool),
		ledger:       postgresRepo.NewLedgerRepository(pool),
		outbox:       postgresRepo.NewOutboxRepository(pool),
		audit:        postgresRepo.NewAuditRepository(pool),
		credentials:  postgresRepo.NewCredentialRepository(pool),
		retrier:      postgresRepo.NewRetrier(logger, m),
		pinger:       pool,
		close:        pool.Close,
	}, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	a := &app{}
	m := metrics.NewWithRegisterer(reg)

	st, err := openStorage(ctx, cfg, logger, m)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	var (
		cache       usecase.Cache
		idempotency usecase.IdempotencyStore
		redisPinger handler.Pinger
		publisher   eventpublisher.Publisher = eventpublisher.NewLogPublisher(logger)
	)
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		logger.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient, m)
		idempotency = redisRepo.NewIdempotencyStore(redisClient)
		redisPinger = pingRedis(redisClient)
		if cfg.EventStream != "" {
			publisher = eventpublisher.NewRedisStreamPublisher(redisClient, cfg.EventStream, cfg.EventStreamMaxLen)
		}
	}

	feePolicy, err := domain.FeePolicyByVersion(cfg.FeePolicyVersion)
	if err != nil {
		a.Close()
		return nil, err
	}

	ids := postgresRepo.NewULIDGenerator()
	hasher := auth.NewBcryptHasher(cfg.PINHashCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	accountStore := usecase.NewAccountStore(st.accounts, st.entries, ids)

	accountUC := usecase.NewAccountUseCase(
		st.txManager, accountStore, st.accounts, st.transactions, st.credentials,
		st.outbox, st.audit, hasher, ids, st.retrier,
		usecase.Bonuses{UserSignup: cfg.UserSignupBonus, AgentFloat: cfg.AgentFloatBonus},
		m, logger,
	)
	settlementUC := usecase.NewSettlementUseCase(
		st.txManager, accountStore, st.accounts, st.transactions, st.outbox, st.audit,
		ids, st.retrier,
		usecase.SettlementConfig{FeePolicy: feePolicy, FeeAccountID: cfg.FeeAccountID},
		m, logger,
	)
	authUC := usecase.NewAuthUseCase(st.accounts, st.credentials, hasher)
	queryUC := usecase.NewQueryUseCase(st.transactions, st.accounts, cache, cfg.PartyCacheTTL, logger)
	ledgerUC := usecase.NewLedgerUseCase(st.ledger)
	reconUC := usecase.NewReconciliationUseCase(st.accounts, st.entries, st.ledger)
	a.accounts = accountUC

	if err := bootstrap(ctx, cfg, accountUC, logger); err != nil {
		a.Close()
		return nil, err
	}

	a.limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	a.router = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC, authUC),
		AuthHandler:        handler.NewAuthHandler(authUC, jwtManager, m),
		SettlementHandler:  handler.NewSettlementHandler(settlementUC, authUC),
		TransactionHandler: handler.NewTransactionHandler(queryUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC, reconUC),
		HealthHandler:      handler.NewHealthHandler(st.pinger, redisPinger),
		TokenVerifier:      jwtManager,
		IdempotencyStore:   idempotency,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        a.limiter,
		Metrics:            m,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:             logger,
	})

	a.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcmiddleware.RecoveryInterceptor(logger),
		grpcmiddleware.LoggingInterceptor(logger),
		grpcmiddleware.AuthInterceptor(jwtManager),
		grpcmiddleware.IdempotencyInterceptor(idempotency, cfg.IdempotencyTTL),
	))
	mfsledgerv1.RegisterAccountsServer(a.grpc, grpcserver.NewAccountServer(accountUC, authUC, jwtManager))
	mfsledgerv1.RegisterSettlementServer(a.grpc, grpcserver.NewSettlementServer(settlementUC, queryUC, authUC))
	healthpb.RegisterHealthServer(a.grpc, health.NewServer())

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.outbox,
		Publisher:  publisher,
		Logger:     logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	return a, nil
}

// bootstrap creates the fee account and, when configured, the first admin.
func bootstrap(ctx context.Context, cfg *config.Config, accounts *usecase.AccountUseCase, logger zerolog.Logger) error {
	if _, err := accounts.EnsureSystemAccount(ctx, cfg.FeeAccountID, "Fee collection"); err != nil {
		return fmt.Errorf("ensure fee account: %w", err)
	}

	if cfg.AdminMobile == "" {
		return nil
	}

	_, err := accounts.CreateAdmin(ctx, usecase.OpenAccountInput{
		Name:   cfg.AdminName,
		Mobile: cfg.AdminMobile,
		Email:  cfg.AdminEmail,
		PIN:    cfg.AdminPIN,
	})
	switch {
	case errors.Is(err, domain.ErrAccountExists):
		logger.Debug().Str("mobile", cfg.AdminMobile).Msg("bootstrap admin already exists")
	case err != nil:
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	return nil
}

func pingRedis(client *goredis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
