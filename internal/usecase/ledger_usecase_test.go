package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	tests := []struct {
		name        string
		repo        *fakeLedgerRepository
		want        bool
		expectedErr error
	}{
		{
			name: "empty ledger",
			repo: &fakeLedgerRepository{},
			want: true,
		},
		{
			name: "balances match entries and bonuses",
			repo: &fakeLedgerRepository{
				totalBalance: decimal.NewFromInt(10040),
				totalEntries: decimal.NewFromInt(10040),
				totalMinted:  decimal.NewFromInt(10040),
			},
			want: true,
		},
		{
			name: "repo error surfaces",
			repo: &fakeLedgerRepository{
				err: errors.New("db down"),
			},
			want:        false,
			expectedErr: errors.New("db down"),
		},
		{
			name: "balance drifted from entries",
			repo: &fakeLedgerRepository{
				totalBalance: decimal.NewFromInt(10),
				totalEntries: decimal.Zero,
				totalMinted:  decimal.Zero,
			},
			want:        false,
			expectedErr: ErrInconsistentLedger,
		},
		{
			name: "value created outside bonuses",
			repo: &fakeLedgerRepository{
				totalBalance: decimal.NewFromInt(45),
				totalEntries: decimal.NewFromInt(45),
				totalMinted:  decimal.NewFromInt(40),
			},
			want:        false,
			expectedErr: ErrInconsistentLedger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewLedgerUseCase(tt.repo)

			report, err := uc.CheckConsistency(context.Background())

			if tt.expectedErr != nil {
				if err == nil || err.Error() != tt.expectedErr.Error() {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := report != nil && report.Consistent
			if got != tt.want {
				t.Fatalf("expected consistent=%v, got %v", tt.want, got)
			}
		})
	}
}

type fakeLedgerRepository struct {
	totalBalance decimal.Decimal
	totalEntries decimal.Decimal
	totalMinted  decimal.Decimal
	err          error
}

func (f *fakeLedgerRepository) CheckConsistency(context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	return f.totalBalance, f.totalEntries, f.totalMinted, f.err
}
