package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	postgresRepo "github.com/iho/mfsledger/internal/adapter/repository/postgres"
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

// bcryptGenerate is swapped in tests.
var bcryptGenerate = bcrypt.GenerateFromPassword

func hashPINCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-pin <pin>",
		Short: "Print the bcrypt hash of a PIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidatePIN(args[0]); err != nil {
				return err
			}
			hash, err := bcryptGenerate([]byte(args[0]), cost)
			if err != nil {
				return fmt.Errorf("hash pin: %w", err)
			}
			fmt.Println(string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")

	return cmd
}

// operatorEnv is what the database commands share: configuration from the
// environment and a structured logger on stderr.
type operatorEnv struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func loadOperatorEnv(cmd *cobra.Command) (*operatorEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.StorageDriver != config.StoragePostgres {
		return nil, fmt.Errorf("%s requires STORAGE_DRIVER=%s", cmd.CommandPath(), config.StoragePostgres)
	}

	return &operatorEnv{
		cfg:    cfg,
		logger: logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, cmd.ErrOrStderr()),
	}, nil
}

func (e *operatorEnv) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    e.cfg.DatabaseURL,
		MaxConns:       2,
		ConnectTimeout: e.cfg.DatabaseTimeout,
	})
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(apply func(m *postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			env, err := loadOperatorEnv(cmd)
			if err != nil {
				return err
			}
			return apply(postgres.NewMigrator(env.cfg.DatabaseURL, env.logger))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  run(func(m *postgres.Migrator) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE:  run(func(m *postgres.Migrator) error { return m.Down() }),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current schema version",
			RunE: run(func(m *postgres.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version %d (dirty: %v)\n", version, dirty)
				return nil
			}),
		},
	)

	return cmd
}

func adminCmd() *cobra.Command {
	var input usecase.OpenAccountInput

	create := &cobra.Command{
		Use:   "create",
		Short: "Register an administrator directly in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadOperatorEnv(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := env.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			account, err := newAccountUseCase(pool, env).CreateAdmin(ctx, input)
			if err != nil {
				if errors.Is(err, domain.ErrAccountExists) {
					return fmt.Errorf("admin not created: %w", err)
				}
				return fmt.Errorf("create admin: %w", domain.StorageCause(err))
			}

			printJSON(map[string]string{"id": account.ID, "mobile": account.Mobile, "role": string(account.Role)})
			return nil
		},
	}
	create.Flags().StringVar(&input.Name, "name", "Administrator", "Display name")
	create.Flags().StringVar(&input.Mobile, "mobile", "", "Mobile number")
	create.Flags().StringVar(&input.Email, "email", "", "Email address")
	create.Flags().StringVar(&input.PIN, "pin", "", "Five-digit PIN")
	for _, name := range []string{"mobile", "email", "pin"} {
		_ = create.MarkFlagRequired(name)
	}

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator accounts",
	}
	cmd.AddCommand(create)

	return cmd
}

func newAccountUseCase(pool *pgxpool.Pool, env *operatorEnv) *usecase.AccountUseCase {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	ids := postgresRepo.NewULIDGenerator()
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)

	return usecase.NewAccountUseCase(
		postgresRepo.NewTxManager(pool),
		usecase.NewAccountStore(accountRepo, entryRepo, ids),
		accountRepo,
		postgresRepo.NewTransactionRepository(pool),
		postgresRepo.NewCredentialRepository(pool),
		postgresRepo.NewOutboxRepository(pool),
		postgresRepo.NewAuditRepository(pool),
		auth.NewBcryptHasher(env.cfg.PINHashCost),
		ids,
		postgresRepo.NewRetrier(env.logger, m),
		usecase.Bonuses{UserSignup: env.cfg.UserSignupBonus, AgentFloat: env.cfg.AgentFloatBonus},
		m,
		env.logger,
	)
}

func outboxCmd() *cobra.Command {
	var prune bool

	drain := &cobra.Command{
		Use:   "drain",
		Short: "Publish every pending settlement event once",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadOperatorEnv(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := env.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(env.logger)
			client, err := redis.NewClient(ctx, env.cfg.RedisURL)
			if err != nil {
				return err
			}
			if client != nil {
				defer client.Close()
				if env.cfg.EventStream != "" {
					publisher = eventpublisher.NewRedisStreamPublisher(client, env.cfg.EventStream, env.cfg.EventStreamMaxLen)
				}
			}

			ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
				OutboxRepo: postgresRepo.NewOutboxRepository(pool),
				Publisher:  publisher,
				Logger:     env.logger,
				BatchSize:  env.cfg.OutboxBatchSize,
				Retention:  env.cfg.OutboxRetention,
			})

			n, err := ep.Drain(ctx)
			if err != nil {
				return fmt.Errorf("drain outbox after %d events: %w", n, err)
			}
			fmt.Printf("published %d events\n", n)

			if prune {
				return ep.Cleanup(ctx)
			}
			return nil
		},
	}
	drain.Flags().BoolVar(&prune, "prune", false, "Delete published events past OUTBOX_RETENTION")

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Settlement event outbox",
	}
	cmd.AddCommand(drain)

	return cmd
}
