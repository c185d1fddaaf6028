package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement a record describes.
type TransactionType string

const (
	TransactionCashIn    TransactionType = "cash-in"
	TransactionCashOut   TransactionType = "cash-out"
	TransactionSendMoney TransactionType = "send-money"
	// TransactionBonus mints value into an account on signup or agent approval.
	// It has no `from` party.
	TransactionBonus TransactionType = "bonus"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionCashIn, TransactionCashOut, TransactionSendMoney, TransactionBonus:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusApproved TransactionStatus = "approved"
	StatusRejected TransactionStatus = "rejected"
)

// IsValid reports whether s is a known status.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Transaction is a money-movement record. Amount, Fee and FeePolicyVersion
// are fixed at creation.
type Transaction struct {
	ID               string
	Type             TransactionType
	FromAccountID    string
	ToAccountID      string
	Amount           decimal.Decimal
	Fee              decimal.Decimal
	FeePolicyVersion string
	Status           TransactionStatus
	Description      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks parties and amounts before the record is written.
func (t *Transaction) Validate() error {
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidParties, t.Type)
	}

	if t.ToAccountID == "" {
		return fmt.Errorf("%w: missing receiving account", ErrInvalidParties)
	}

	if t.Type == TransactionBonus {
		if t.FromAccountID != "" {
			return fmt.Errorf("%w: bonus has no sending account", ErrInvalidParties)
		}
	} else {
		if t.FromAccountID == "" {
			return fmt.Errorf("%w: missing sending account", ErrInvalidParties)
		}
		if t.FromAccountID == t.ToAccountID {
			return fmt.Errorf("%w: sender and receiver are the same account", ErrInvalidParties)
		}
	}

	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if t.Fee.IsNegative() {
		return fmt.Errorf("%w: fee cannot be negative", ErrInvalidAmount)
	}

	return nil
}

// IsParty reports whether accountID is the sender or the receiver.
func (t *Transaction) IsParty(accountID string) bool {
	return accountID != "" && (t.FromAccountID == accountID || t.ToAccountID == accountID)
}

// Debit is the total taken from the sender, amount plus fee.
func (t *Transaction) Debit() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}

// Transition moves a pending transaction to a terminal status.
func (t *Transaction) Transition(to TransactionStatus, now time.Time) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: transaction %s is already %s", ErrInvalidState, t.ID, t.Status)
	}
	if !to.IsTerminal() {
		return fmt.Errorf("%w: cannot move to %s", ErrInvalidState, to)
	}

	t.Status = to
	t.UpdatedAt = now
	return nil
}

// TransactionFilter narrows admin listings.
type TransactionFilter struct {
	Type   TransactionType
	Status TransactionStatus
	Limit  int
	Offset int
}
