package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/mfsledger/internal/usecase"
)

// CredentialRepository implements usecase.CredentialRepository.
type CredentialRepository struct {
	queries *generated.Queries
	now     func() time.Time
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db generated.DBTX) *CredentialRepository {
	return &CredentialRepository{
		queries: generated.New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores the PIN hash of a new account.
func (r *CredentialRepository) Create(ctx context.Context, tx usecase.Transaction, accountID, pinHash string) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateCredential(ctx, generated.CreateCredentialParams{
		AccountID: accountID,
		PinHash:   pinHash,
		CreatedAt: timeToPgTimestamptz(r.now()),
	})
	if pgErrorCode(err) == pgErrUniqueViolation {
		return domain.ErrAccountExists
	}

	return err
}

// GetPINHash returns the stored hash for accountID.
func (r *CredentialRepository) GetPINHash(ctx context.Context, accountID string) (string, error) {
	hash, err := r.queries.GetPINHash(ctx, accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}

	return hash, err
}
