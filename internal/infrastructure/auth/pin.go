package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/mfsledger/internal/domain"
)

// BcryptHasher implements usecase.PINHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher. A cost of zero uses bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash hashes a PIN that already passed domain.ValidatePIN.
func (h *BcryptHasher) Hash(pin string) (string, error) {
	if err := domain.ValidatePIN(pin); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether pin matches hash.
func (h *BcryptHasher) Compare(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
