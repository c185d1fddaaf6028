// Package memory is an in-process implementation of the storage ports.
// Rows are locked with one-slot channels, so lockers queue in arrival order
// and give up when their context ends. Writes stay private to a transaction
// until Commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is used again.
var ErrTxClosed = errors.New("memory: transaction already closed")

// Store holds committed state shared by all repositories.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]*domain.Account
	byMobile     map[string]string
	byEmail      map[string]string
	transactions map[string]*domain.Transaction
	entries      []*domain.Entry
	outbox       []*domain.OutboxEvent
	audit        []*domain.AuditLog
	credentials  map[string]string

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		byMobile:     make(map[string]string),
		byEmail:      make(map[string]string),
		transactions: make(map[string]*domain.Transaction),
		credentials:  make(map[string]string),
		locks:        make(map[string]chan struct{}),
	}
}

func (s *Store) rowLock(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newTx(m.store), nil
}

// Tx is a unit of work over the store. It is not safe for concurrent use.
type Tx struct {
	store *Store
	held  []chan struct{}
	keys  map[string]bool

	accounts     map[string]*domain.Account
	newAccounts  []string
	dirty        map[string]bool
	transactions map[string]*domain.Transaction
	newTxs       []string
	dirtyTxs     map[string]bool
	entries      []*domain.Entry
	outbox       []*domain.OutboxEvent
	audit        []*domain.AuditLog
	credentials  map[string]string

	closed bool
}

func newTx(store *Store) *Tx {
	return &Tx{
		store:        store,
		keys:         make(map[string]bool),
		accounts:     make(map[string]*domain.Account),
		dirty:        make(map[string]bool),
		transactions: make(map[string]*domain.Transaction),
		dirtyTxs:     make(map[string]bool),
		credentials:  make(map[string]string),
	}
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: unexpected transaction type %T", tx)
	}
	if t.closed {
		return nil, ErrTxClosed
	}
	return t, nil
}

// lock acquires the row lock for key, waiting at most until ctx ends.
func (t *Tx) lock(ctx context.Context, key string) error {
	if t.keys[key] {
		return nil
	}

	ch := t.store.rowLock(key)
	select {
	case ch <- struct{}{}:
		t.held = append(t.held, ch)
		t.keys[key] = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		<-t.held[i]
	}
	t.held = nil
	t.keys = nil
	t.closed = true
}

// Commit publishes the transaction's writes atomically and releases its locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return ErrTxClosed
	}
	defer t.release()

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range t.newAccounts {
		a := t.accounts[id]
		if _, ok := s.accounts[id]; ok {
			return domain.ErrAccountExists
		}
		if _, ok := s.byMobile[a.Mobile]; ok {
			return domain.ErrAccountExists
		}
		if _, ok := s.byEmail[a.Email]; ok {
			return domain.ErrAccountExists
		}
	}

	for _, id := range t.newAccounts {
		a := t.accounts[id]
		s.byMobile[a.Mobile] = id
		s.byEmail[a.Email] = id
	}
	for id := range t.dirty {
		s.accounts[id] = cloneAccount(t.accounts[id])
	}
	for id := range t.dirtyTxs {
		s.transactions[id] = cloneTransaction(t.transactions[id])
	}
	for id, hash := range t.credentials {
		s.credentials[id] = hash
	}
	s.entries = append(s.entries, t.entries...)
	s.outbox = append(s.outbox, t.outbox...)
	s.audit = append(s.audit, t.audit...)

	return nil
}

// Rollback discards the transaction's writes. Calling it after Commit is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.release()
	return nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	return &c
}
