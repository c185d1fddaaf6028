package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultPartyCacheTTL bounds how long counterpart profiles are served from cache.
	DefaultPartyCacheTTL = 5 * time.Minute

	// DefaultFeeAccountID receives send-money fees unless configured otherwise.
	DefaultFeeAccountID = "system-fees"
)
