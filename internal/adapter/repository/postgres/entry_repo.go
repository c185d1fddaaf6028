package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/mfsledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:                     entry.ID,
		AccountID:              entry.AccountID,
		TransactionID:          entry.TransactionID,
		Amount:                 decimalToNumeric(entry.Amount),
		AccountPreviousBalance: decimalToNumeric(entry.AccountPreviousBalance),
		AccountCurrentBalance:  decimalToNumeric(entry.AccountCurrentBalance),
		AccountVersion:         entry.AccountVersion,
		CreatedAt:              timeToPgTimestamptz(entry.CreatedAt),
	})
}

// GetByTransaction retrieves the entries written for one transaction.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	return rowsToEntries(r.queries.GetEntriesByTransaction(ctx, transactionID))
}

// GetByAccount retrieves entries by account ID with pagination.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	l, o := clampPage(limit, offset)
	return rowsToEntries(r.queries.GetEntriesByAccount(ctx, generated.GetEntriesByAccountParams{
		AccountID: accountID,
		Limit:     l,
		Offset:    o,
	}))
}

// SumByAccount returns the net of every entry on an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	total, err := r.queries.SumEntriesByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

func rowsToEntries(rows []generated.Entry, err error) ([]*domain.Entry, error) {
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.Entry{
			ID:                     row.ID,
			AccountID:              row.AccountID,
			TransactionID:          row.TransactionID,
			Amount:                 numericToDecimal(row.Amount),
			AccountPreviousBalance: numericToDecimal(row.AccountPreviousBalance),
			AccountCurrentBalance:  numericToDecimal(row.AccountCurrentBalance),
			AccountVersion:         row.AccountVersion,
			CreatedAt:              row.CreatedAt.Time,
		})
	}

	return entries, nil
}
