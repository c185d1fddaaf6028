package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInconsistentLedger is returned when balances, entries and minted value disagree.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balances, entries and bonuses disagree")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// ConsistencyReport carries the three totals that must agree.
type ConsistencyReport struct {
	TotalBalance decimal.Decimal
	TotalEntries decimal.Decimal
	TotalMinted  decimal.Decimal
	Consistent   bool
}

// CheckConsistency verifies conservation of value. Money only enters through
// bonus transactions, so the sum of all balances, the sum of all entries and
// the sum of all bonuses must be equal.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totalBalance, totalEntries, totalMinted, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		TotalBalance: totalBalance,
		TotalEntries: totalEntries,
		TotalMinted:  totalMinted,
		Consistent:   totalBalance.Equal(totalEntries) && totalEntries.Equal(totalMinted),
	}

	if !report.Consistent {
		return report, ErrInconsistentLedger
	}

	return report, nil
}
