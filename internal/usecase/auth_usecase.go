package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/iho/mfsledger/internal/domain"
)

// AuthUseCase checks credentials. It is the gate in front of the engine:
// the engine only ever sees its verdict.
type AuthUseCase struct {
	accountRepo    AccountRepository
	credentialRepo CredentialRepository
	hasher         PINHasher
}

// NewAuthUseCase creates a new auth use case
func NewAuthUseCase(accountRepo AccountRepository, credentialRepo CredentialRepository, hasher PINHasher) *AuthUseCase {
	return &AuthUseCase{
		accountRepo:    accountRepo,
		credentialRepo: credentialRepo,
		hasher:         hasher,
	}
}

// Authenticate verifies a mobile number or email and PIN.
func (uc *AuthUseCase) Authenticate(ctx context.Context, identifier, pin string) (*domain.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || pin == "" {
		return nil, domain.ErrUnauthorized
	}

	var (
		account *domain.Account
		err     error
	)
	if strings.Contains(identifier, "@") {
		account, err = uc.accountRepo.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		account, err = uc.accountRepo.GetByMobile(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, domain.StorageFailure("authenticate", err)
	}

	ok, err := uc.checkPIN(ctx, account.ID, pin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	return account, nil
}

// VerifyPIN returns principal with PINVerified set to the outcome of the check.
// A wrong PIN is not an error here; the engine rejects the unverified principal.
func (uc *AuthUseCase) VerifyPIN(ctx context.Context, principal domain.Principal, pin string) (domain.Principal, error) {
	principal.PINVerified = false
	if principal.ID == "" || pin == "" {
		return principal, nil
	}

	ok, err := uc.checkPIN(ctx, principal.ID, pin)
	if err != nil {
		return principal, err
	}

	principal.PINVerified = ok
	return principal, nil
}

func (uc *AuthUseCase) checkPIN(ctx context.Context, accountID, pin string) (bool, error) {
	hash, err := uc.credentialRepo.GetPINHash(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, domain.StorageFailure("verify pin", err)
	}

	return uc.hasher.Compare(hash, pin), nil
}
