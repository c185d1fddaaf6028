package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr error
	}{
		{
			name:    "valid send money",
			tx:      Transaction{Type: TransactionSendMoney, FromAccountID: "a", ToAccountID: "b", Amount: decimal.NewFromInt(60)},
			wantErr: nil,
		},
		{
			name:    "same parties",
			tx:      Transaction{Type: TransactionSendMoney, FromAccountID: "a", ToAccountID: "a", Amount: decimal.NewFromInt(60)},
			wantErr: ErrInvalidParties,
		},
		{
			name:    "missing sender",
			tx:      Transaction{Type: TransactionCashOut, ToAccountID: "b", Amount: decimal.NewFromInt(60)},
			wantErr: ErrInvalidParties,
		},
		{
			name:    "zero amount",
			tx:      Transaction{Type: TransactionCashIn, FromAccountID: "a", ToAccountID: "b", Amount: decimal.Zero},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			tx:      Transaction{Type: TransactionCashIn, FromAccountID: "a", ToAccountID: "b", Amount: decimal.NewFromInt(-1)},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "bonus without sender",
			tx:      Transaction{Type: TransactionBonus, ToAccountID: "b", Amount: decimal.NewFromInt(40)},
			wantErr: nil,
		},
		{
			name:    "bonus with sender",
			tx:      Transaction{Type: TransactionBonus, FromAccountID: "a", ToAccountID: "b", Amount: decimal.NewFromInt(40)},
			wantErr: ErrInvalidParties,
		},
		{
			name:    "unknown type",
			tx:      Transaction{Type: "refund", FromAccountID: "a", ToAccountID: "b", Amount: decimal.NewFromInt(40)},
			wantErr: ErrInvalidParties,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTransaction_Transition(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pending to approved", func(t *testing.T) {
		tx := &Transaction{ID: "tx-1", Status: StatusPending}
		if err := tx.Transition(StatusApproved, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Status != StatusApproved || !tx.UpdatedAt.Equal(now) {
			t.Fatalf("transition not applied: %+v", tx)
		}
	})

	t.Run("terminal is immutable", func(t *testing.T) {
		for _, s := range []TransactionStatus{StatusApproved, StatusRejected} {
			tx := &Transaction{ID: "tx-1", Status: s}
			err := tx.Transition(StatusApproved, now)
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("expected ErrInvalidState from %s, got %v", s, err)
			}
			if tx.Status != s || !tx.UpdatedAt.IsZero() {
				t.Fatalf("terminal transaction was modified: %+v", tx)
			}
		}
	})

	t.Run("pending is not a target", func(t *testing.T) {
		tx := &Transaction{ID: "tx-1", Status: StatusPending}
		if err := tx.Transition(StatusPending, now); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestTransaction_IsParty(t *testing.T) {
	tx := &Transaction{FromAccountID: "a", ToAccountID: "b"}

	if !tx.IsParty("a") || !tx.IsParty("b") {
		t.Fatal("expected both accounts to be parties")
	}
	if tx.IsParty("c") || tx.IsParty("") {
		t.Fatal("unexpected party match")
	}
}
