package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure the engine returns wraps exactly one of these.
var (
	ErrNotAuthorized     = errors.New("not authorized")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid transaction state")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrBelowMinimum      = errors.New("amount below minimum allowed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidParties    = errors.New("invalid transaction parties")
	ErrStorageFailure    = errors.New("storage failure")

	// ErrInvalidInput covers malformed requests outside the amount and party rules.
	ErrInvalidInput = errors.New("invalid input")
)

// Specialised lookups, still matching ErrNotFound.
var (
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrAccountExists       = fmt.Errorf("%w: account already exists", ErrInvalidState)
)

// ErrorKind is the stable outward classification of an error.
type ErrorKind string

const (
	KindNotAuthorized     ErrorKind = "not_authorized"
	KindNotFound          ErrorKind = "not_found"
	KindInvalidState      ErrorKind = "invalid_state"
	KindInvalidAmount     ErrorKind = "invalid_amount"
	KindBelowMinimum      ErrorKind = "below_minimum"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindInvalidParties    ErrorKind = "invalid_parties"
	KindStorageFailure    ErrorKind = "storage_failure"
	KindInvalidInput      ErrorKind = "invalid_input"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotAuthorized, KindNotAuthorized},
	{ErrNotFound, KindNotFound},
	{ErrInvalidState, KindInvalidState},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrBelowMinimum, KindBelowMinimum},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrInvalidParties, KindInvalidParties},
	{ErrStorageFailure, KindStorageFailure},
	{ErrInvalidInput, KindInvalidInput},
}

// KindOf classifies err. Anything outside the taxonomy is a storage failure.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindStorageFailure
}

// IsDomainError reports whether err belongs to the validation taxonomy,
// i.e. was raised by a precondition check rather than by the storage layer.
func IsDomainError(err error) bool {
	for _, k := range kinds {
		if k.err == ErrStorageFailure {
			continue
		}
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}

// StorageFailure hides err behind ErrStorageFailure. Domain errors pass through.
func StorageFailure(op string, err error) error {
	if err == nil || IsDomainError(err) || errors.Is(err, ErrStorageFailure) {
		return err
	}
	return &storageError{op: op, cause: err}
}

type storageError struct {
	op    string
	cause error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %s", e.op, ErrStorageFailure.Error())
}

func (e *storageError) Is(target error) bool {
	return target == ErrStorageFailure
}

// Cause returns the underlying driver error for logging. It is never rendered to clients.
func (e *storageError) Cause() error {
	return e.cause
}

// StorageCause extracts the driver error hidden behind a storage failure.
func StorageCause(err error) error {
	var se *storageError
	if errors.As(err, &se) {
		return se.cause
	}
	return nil
}
