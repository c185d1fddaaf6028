package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/infrastructure/postgres/generated"
)

type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db generated.DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CheckConsistency returns the sum of balances, the sum of entry amounts and
// the sum of approved bonuses. When db can open transactions the three sums
// are read from one repeatable-read snapshot.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalBalance, totalEntries, totalMinted decimal.Decimal, err error) {
	queries := generated.New(r.db)

	if b, ok := r.db.(txBeginner); ok {
		tx, err := b.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		if err != nil {
			return decimal.Zero, decimal.Zero, decimal.Zero, err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		queries = queries.WithTx(tx)
	}

	balances, err := queries.SumAccountBalances(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	entries, err := queries.SumAllEntries(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	minted, err := queries.SumApprovedBonuses(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(balances), numericToDecimal(entries), numericToDecimal(minted), nil
}
