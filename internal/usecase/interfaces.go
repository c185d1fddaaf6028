package usecase

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByMobile(ctx context.Context, mobile string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the rows in ascending id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// UpdateBalance writes the balance and bumps the version.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, role domain.Role, status domain.ApprovalStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for money-movement records.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
	// ListByParticipant returns records where accountID is sender or receiver, newest first.
	ListByParticipant(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListPendingCashIn(ctx context.Context, agentID string, limit, offset int) ([]*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	// CheckConsistency returns the sum of balances, the sum of entry amounts
	// and the sum of approved bonus amounts.
	CheckConsistency(ctx context.Context) (totalBalance, totalEntries, totalMinted decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// CredentialRepository stores PIN hashes apart from the account row.
type CredentialRepository interface {
	Create(ctx context.Context, tx Transaction, accountID, pinHash string) error
	GetPINHash(ctx context.Context, accountID string) (string, error)
}

// PINHasher hashes and checks PINs.
type PINHasher interface {
	Hash(pin string) (string, error)
	Compare(hash, pin string) bool
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a whole unit of work on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release frees a key whose request failed without a response worth replaying.
	Release(ctx context.Context, key string) error
}
