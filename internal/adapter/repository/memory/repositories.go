package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stages a new account and locks it for the rest of tx.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if err := t.lock(ctx, accountKey(account.ID)); err != nil {
		return err
	}

	r.store.mu.RLock()
	_, exists := r.store.accounts[account.ID]
	r.store.mu.RUnlock()
	if exists || t.accounts[account.ID] != nil {
		return domain.ErrAccountExists
	}

	t.accounts[account.ID] = cloneAccount(account)
	t.newAccounts = append(t.newAccounts, account.ID)
	t.dirty[account.ID] = true

	return nil
}

// GetByID retrieves a committed account.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

// GetByMobile retrieves a committed account by mobile number.
func (r *AccountRepository) GetByMobile(ctx context.Context, mobile string) (*domain.Account, error) {
	r.store.mu.RLock()
	id, ok := r.store.byMobile[mobile]
	r.store.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}

// GetByEmail retrieves a committed account by email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.store.mu.RLock()
	id, ok := r.store.byEmail[email]
	r.store.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}

// GetByIDForUpdate locks and returns one account.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	accounts, err := r.GetByIDsForUpdate(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, domain.ErrAccountNotFound
	}
	return accounts[0], nil
}

// GetByIDsForUpdate locks the accounts in ascending id order. Missing ids are
// skipped, like rows absent from a SELECT.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	result := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		if a, ok := t.accounts[id]; ok {
			result = append(result, cloneAccount(a))
			continue
		}

		r.store.mu.RLock()
		_, exists := r.store.accounts[id]
		r.store.mu.RUnlock()
		if !exists {
			continue
		}

		if err := t.lock(ctx, accountKey(id)); err != nil {
			return nil, err
		}

		// Re-read under the lock: the previous holder may have committed.
		r.store.mu.RLock()
		a := cloneAccount(r.store.accounts[id])
		r.store.mu.RUnlock()

		t.accounts[id] = a
		result = append(result, cloneAccount(a))
	}

	return result, nil
}

// UpdateBalance writes the balance and bumps the version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	a, ok := t.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	a.Balance = balance
	a.Version++
	a.UpdatedAt = updatedAt
	t.dirty[id] = true

	return nil
}

// UpdateStatus changes role and approval status of a locked account.
func (r *AccountRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, role domain.Role, status domain.ApprovalStatus, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	a, ok := t.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	a.Role = role
	a.Status = status
	a.UpdatedAt = updatedAt
	t.dirty[id] = true

	return nil
}

// List lists committed accounts ordered by id.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	all := make([]*domain.Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		all = append(all, cloneAccount(a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return page(all, limit, offset), nil
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create stages a transaction record and locks it.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	if err := mtx.lock(ctx, transactionKey(t.ID)); err != nil {
		return err
	}

	mtx.transactions[t.ID] = cloneTransaction(t)
	mtx.dirtyTxs[t.ID] = true

	return nil
}

// GetByID retrieves a committed transaction.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t, ok := r.store.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return cloneTransaction(t), nil
}

// GetByIDForUpdate locks and returns a transaction.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	mtx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if t, ok := mtx.transactions[id]; ok {
		return cloneTransaction(t), nil
	}

	r.store.mu.RLock()
	_, exists := r.store.transactions[id]
	r.store.mu.RUnlock()
	if !exists {
		return nil, domain.ErrTransactionNotFound
	}

	if err := mtx.lock(ctx, transactionKey(id)); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	t := cloneTransaction(r.store.transactions[id])
	r.store.mu.RUnlock()

	mtx.transactions[id] = t
	return cloneTransaction(t), nil
}

// UpdateStatus changes the status of a locked transaction.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	t, ok := mtx.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	t.Status = status
	t.UpdatedAt = updatedAt
	mtx.dirtyTxs[id] = true

	return nil
}

// ListByParticipant lists transactions where accountID is a party, newest first.
func (r *TransactionRepository) ListByParticipant(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	return r.filter(limit, offset, func(t *domain.Transaction) bool {
		return t.IsParty(accountID)
	}), nil
}

// ListPendingCashIn lists pending cash-in requests addressed to agentID, newest first.
func (r *TransactionRepository) ListPendingCashIn(ctx context.Context, agentID string, limit, offset int) ([]*domain.Transaction, error) {
	return r.filter(limit, offset, func(t *domain.Transaction) bool {
		return t.Type == domain.TransactionCashIn && t.Status == domain.StatusPending && t.ToAccountID == agentID
	}), nil
}

// List lists transactions matching filter, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	return r.filter(filter.Limit, filter.Offset, func(t *domain.Transaction) bool {
		return (filter.Type == "" || t.Type == filter.Type) && (filter.Status == "" || t.Status == filter.Status)
	}), nil
}

func (r *TransactionRepository) filter(limit, offset int, keep func(*domain.Transaction) bool) []*domain.Transaction {
	r.store.mu.RLock()
	matched := make([]*domain.Transaction, 0)
	for _, t := range r.store.transactions {
		if keep(t) {
			matched = append(matched, cloneTransaction(t))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	return page(matched, limit, offset)
}

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create stages an entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	c := *entry
	t.entries = append(t.entries, &c)
	return nil
}

// GetByTransaction lists the entries written for a transaction.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*domain.Entry
	for _, e := range r.store.entries {
		if e.TransactionID == transactionID {
			c := *e
			result = append(result, &c)
		}
	}
	return result, nil
}

// GetByAccount lists an account's entries, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	r.store.mu.RLock()
	var result []*domain.Entry
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		if e := r.store.entries[i]; e.AccountID == accountID {
			c := *e
			result = append(result, &c)
		}
	}
	r.store.mu.RUnlock()

	return page(result, limit, offset), nil
}

// SumByAccount adds up all entries of an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sum := decimal.Zero
	for _, e := range r.store.entries {
		if e.AccountID == accountID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency sums balances, entries and approved bonuses.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	balances := decimal.Zero
	for _, a := range r.store.accounts {
		balances = balances.Add(a.Balance)
	}

	entries := decimal.Zero
	for _, e := range r.store.entries {
		entries = entries.Add(e.Amount)
	}

	minted := decimal.Zero
	for _, t := range r.store.transactions {
		if t.Type == domain.TransactionBonus && t.Status == domain.StatusApproved {
			minted = minted.Add(t.Amount)
		}
	}

	return balances, entries, minted, nil
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stages an event.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	c := *event
	t.outbox = append(t.outbox, &c)
	return nil
}

// GetUnpublished returns the oldest unpublished events.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*domain.OutboxEvent
	for _, e := range r.store.outbox {
		if e.Published {
			continue
		}
		c := *e
		result = append(result, &c)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// MarkPublished flags an event as delivered.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, e := range r.store.outbox {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
			return nil
		}
	}
	return domain.ErrNotFound
}

// DeletePublished drops delivered events older than before.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.outbox[:0]
	for _, e := range r.store.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.store.outbox = kept
	return nil
}

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// CreateTx stages an audit log, assigning its id when unset.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	c := *log
	t.audit = append(t.audit, &c)
	return nil
}

// GetByResourceID lists audit logs for a resource in write order.
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*domain.AuditLog
	for _, l := range r.store.audit {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			c := *l
			result = append(result, &c)
		}
	}
	return result, nil
}

// CredentialRepository implements usecase.CredentialRepository.
type CredentialRepository struct {
	store *Store
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(store *Store) *CredentialRepository {
	return &CredentialRepository{store: store}
}

// Create stages a PIN hash.
func (r *CredentialRepository) Create(ctx context.Context, tx usecase.Transaction, accountID, pinHash string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	t.credentials[accountID] = pinHash
	return nil
}

// GetPINHash returns the stored PIN hash.
func (r *CredentialRepository) GetPINHash(ctx context.Context, accountID string) (string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	hash, ok := r.store.credentials[accountID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return hash, nil
}

// NoopRetrier runs the operation once. Memory transactions never deadlock
// because every lock wait is bounded by the caller's context.
type NoopRetrier struct{}

// Retry runs operation once.
func (NoopRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

func accountKey(id string) string     { return "account:" + id }
func transactionKey(id string) string { return "transaction:" + id }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
