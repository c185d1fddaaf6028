package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/postgres/generated"
	"github.com/iho/mfsledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository. db is usually a
// *pgxpool.Pool.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create inserts a new account. A taken id, mobile or email maps to
// domain.ErrAccountExists.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		Name:      account.Name,
		Mobile:    account.Mobile,
		Email:     account.Email,
		Role:      string(account.Role),
		Status:    string(account.Status),
		Balance:   decimalToNumeric(account.Balance),
		Version:   account.Version,
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})
	if pgErrorCode(err) == pgErrUniqueViolation {
		return domain.ErrAccountExists
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return accountOrNotFound(r.queries.GetAccountByID(ctx, id))
}

// GetByMobile retrieves an account by its mobile number.
func (r *AccountRepository) GetByMobile(ctx context.Context, mobile string) (*domain.Account, error) {
	return accountOrNotFound(r.queries.GetAccountByMobile(ctx, mobile))
}

// GetByEmail retrieves an account by its normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return accountOrNotFound(r.queries.GetAccountByEmail(ctx, email))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	return accountOrNotFound(queries.GetAccountByIDForUpdate(ctx, id))
}

// GetByIDsForUpdate locks the rows in ascending id order. Missing ids are
// skipped; the caller compares lengths.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// UpdateBalance writes the balance and bumps the version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		// The balance CHECK is the last line behind AccountStore's own check.
		if pgErrorCode(err) == pgErrCheckViolation {
			return domain.ErrInsufficientFunds
		}
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// UpdateStatus changes the role and approval status of an account.
func (r *AccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, role domain.Role, status domain.ApprovalStatus, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateAccountStatus(ctx, generated.UpdateAccountStatusParams{
		ID:        id,
		Role:      string(role),
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	l, o := clampPage(limit, offset)
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  l,
		Offset: o,
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func accountOrNotFound(row generated.Account, err error) (*domain.Account, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		Name:      row.Name,
		Mobile:    row.Mobile,
		Email:     row.Email,
		Role:      domain.Role(row.Role),
		Status:    domain.ApprovalStatus(row.Status),
		Balance:   numericToDecimal(row.Balance),
		Version:   row.Version,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
