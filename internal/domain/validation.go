package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName = fmt.Errorf("%w: invalid account name", ErrInvalidInput)
	ErrInvalidMobile      = fmt.Errorf("%w: invalid mobile number", ErrInvalidInput)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	ErrInvalidPIN         = fmt.Errorf("%w: pin must be 5 digits", ErrInvalidInput)
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxAmount            = "1000000000000"
	PINLength            = 5
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	mobileRegex = regexp.MustCompile(`^\+?[0-9]{6,15}$`)
	pinRegex    = regexp.MustCompile(`^[0-9]{5}$`)
	maxAmount   = decimal.RequireFromString(MaxAmount)
)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateMobile validates a contact number.
func ValidateMobile(mobile string) error {
	if !mobileRegex.MatchString(strings.TrimSpace(mobile)) {
		return ErrInvalidMobile
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePIN checks the PIN shape. It never sees a stored hash.
func ValidatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}

// ValidateAmount checks that amount is positive, within bounds and carries
// no more precision than the ledger stores.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}

	if !amount.Equal(NormalizeAmount(amount)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountScale)
	}

	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: %w: maximum amount is %s", ErrInvalidAmount, ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
