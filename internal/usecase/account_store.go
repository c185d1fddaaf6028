package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
)

// AccountStore is the only writer of account balances. Every delta it applies
// is recorded as an entry against the transaction that caused it.
type AccountStore struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
	now         func() time.Time
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(accountRepo AccountRepository, entryRepo EntryRepository, idGen IDGenerator) *AccountStore {
	return &AccountStore{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetBalance returns the committed balance of an account.
func (s *AccountStore) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// AtomicAdjust applies a single delta inside tx.
func (s *AccountStore) AtomicAdjust(
	ctx context.Context,
	tx Transaction,
	accountID string,
	delta decimal.Decimal,
	transactionID string,
) (*domain.Entry, error) {
	entries, err := s.AtomicTransfer(ctx, tx, []domain.Leg{{AccountID: accountID, Delta: delta}}, transactionID)
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// AtomicTransfer locks every account named by legs in ascending id order,
// checks that no balance goes negative and only then writes. Legs touching
// the same account are merged.
func (s *AccountStore) AtomicTransfer(
	ctx context.Context,
	tx Transaction,
	legs []domain.Leg,
	transactionID string,
) ([]*domain.Entry, error) {
	if len(legs) == 0 {
		return nil, fmt.Errorf("%w: no legs", domain.ErrInvalidParties)
	}

	deltas := make(map[string]decimal.Decimal, len(legs))
	for _, leg := range legs {
		if leg.AccountID == "" {
			return nil, fmt.Errorf("%w: leg without account", domain.ErrInvalidParties)
		}
		deltas[leg.AccountID] = deltas[leg.AccountID].Add(leg.Delta)
	}

	// Deadlock prevention: always lock in the same order.
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	accounts, err := s.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}

	for _, account := range accounts {
		if err := account.ValidateDelta(deltas[account.ID]); err != nil {
			return nil, fmt.Errorf("account %s: %w", account.ID, err)
		}
	}

	now := s.now()
	entries := make([]*domain.Entry, 0, len(accounts))

	for _, account := range accounts {
		delta := deltas[account.ID]
		newBalance := account.ApplyDelta(delta)

		entry := &domain.Entry{
			ID:                     s.idGen.Generate(),
			AccountID:              account.ID,
			TransactionID:          transactionID,
			Amount:                 delta,
			AccountPreviousBalance: account.Balance,
			AccountCurrentBalance:  newBalance,
			AccountVersion:         account.Version + 1,
			CreatedAt:              now,
		}

		if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
			return nil, err
		}

		if err := s.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
			return nil, err
		}

		account.Balance = newBalance
		account.Version++

		entries = append(entries, entry)
	}

	return entries, nil
}
