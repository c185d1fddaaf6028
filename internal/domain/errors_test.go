package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{ErrNotAuthorized, KindNotAuthorized},
		{ErrAccountNotFound, KindNotFound},
		{ErrTransactionNotFound, KindNotFound},
		{fmt.Errorf("approve: %w", ErrInvalidState), KindInvalidState},
		{ErrInvalidAmount, KindInvalidAmount},
		{ErrBelowMinimum, KindBelowMinimum},
		{ErrInsufficientFunds, KindInsufficientFunds},
		{ErrInvalidParties, KindInvalidParties},
		{ErrAccountExists, KindInvalidState},
		{ErrInvalidMobile, KindInvalidInput},
		{errors.New("connection reset"), KindStorageFailure},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestStorageFailure(t *testing.T) {
	t.Run("hides driver error", func(t *testing.T) {
		cause := errors.New("pq: relation does not exist")
		err := StorageFailure("approve cash-in", cause)

		if !errors.Is(err, ErrStorageFailure) {
			t.Fatalf("expected ErrStorageFailure, got %v", err)
		}
		if errors.Is(err, cause) {
			t.Fatal("driver error must not be reachable through errors.Is")
		}
		if err.Error() != "approve cash-in: storage failure" {
			t.Fatalf("unexpected message %q", err.Error())
		}
		if StorageCause(err) != cause {
			t.Fatal("expected cause to be retrievable for logging")
		}
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		err := StorageFailure("op", ErrInsufficientFunds)
		if err != ErrInsufficientFunds {
			t.Fatalf("expected domain error unchanged, got %v", err)
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if StorageFailure("op", nil) != nil {
			t.Fatal("expected nil")
		}
	})
}
