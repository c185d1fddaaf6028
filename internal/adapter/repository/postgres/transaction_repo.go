package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/mfsledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create inserts a transaction record.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:               t.ID,
		Type:             string(t.Type),
		FromAccountID:    textOrNull(t.FromAccountID),
		ToAccountID:      t.ToAccountID,
		Amount:           decimalToNumeric(t.Amount),
		Fee:              decimalToNumeric(t.Fee),
		FeePolicyVersion: t.FeePolicyVersion,
		Status:           string(t.Status),
		Description:      t.Description,
		CreatedAt:        timeToPgTimestamptz(t.CreatedAt),
		UpdatedAt:        timeToPgTimestamptz(t.UpdatedAt),
	})
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return transactionOrNotFound(r.queries.GetTransactionByID(ctx, id))
}

// GetByIDForUpdate retrieves a transaction with a FOR UPDATE lock. Approvals
// take this lock before any account lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	return transactionOrNotFound(queries.GetTransactionByIDForUpdate(ctx, id))
}

// UpdateStatus records a status transition.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateTransactionStatus(ctx, generated.UpdateTransactionStatusParams{
		ID:        id,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListByParticipant returns records where accountID is sender or receiver, newest first.
func (r *TransactionRepository) ListByParticipant(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	l, o := clampPage(limit, offset)
	return rowsToTransactions(r.queries.ListTransactionsByParticipant(ctx, generated.ListTransactionsByParticipantParams{
		AccountID: accountID,
		Limit:     l,
		Offset:    o,
	}))
}

// ListPendingCashIn returns pending cash-ins addressed to agentID.
func (r *TransactionRepository) ListPendingCashIn(ctx context.Context, agentID string, limit, offset int) ([]*domain.Transaction, error) {
	l, o := clampPage(limit, offset)
	return rowsToTransactions(r.queries.ListPendingCashIn(ctx, generated.ListPendingCashInParams{
		ToAccountID: agentID,
		Limit:       l,
		Offset:      o,
	}))
}

// List returns every transaction matching filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	l, o := clampPage(filter.Limit, filter.Offset)
	return rowsToTransactions(r.queries.ListTransactions(ctx, generated.ListTransactionsParams{
		Type:   textOrNull(string(filter.Type)),
		Status: textOrNull(string(filter.Status)),
		Limit:  l,
		Offset: o,
	}))
}

func transactionOrNotFound(row generated.Transaction, err error) (*domain.Transaction, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row), nil
}

func rowsToTransactions(rows []generated.Transaction, err error) ([]*domain.Transaction, error) {
	if err != nil {
		return nil, err
	}

	txs := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, rowToTransaction(row))
	}

	return txs, nil
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:               row.ID,
		Type:             domain.TransactionType(row.Type),
		FromAccountID:    textValue(row.FromAccountID),
		ToAccountID:      row.ToAccountID,
		Amount:           numericToDecimal(row.Amount),
		Fee:              numericToDecimal(row.Fee),
		FeePolicyVersion: row.FeePolicyVersion,
		Status:           domain.TransactionStatus(row.Status),
		Description:      row.Description,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}

func textValue(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}
