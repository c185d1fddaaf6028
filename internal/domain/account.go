package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalStatus tracks whether an account may take part in settlements.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// Account is a principal's wallet. Balance is only written by the account store.
type Account struct {
	ID        string
	Name      string
	Mobile    string
	Email     string
	Role      Role
	Status    ApprovalStatus
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsApproved reports whether the account finished its approval workflow.
func (a *Account) IsApproved() bool {
	return a.Status == ApprovalApproved
}

// IsApprovedAgent reports whether the account can act as a cash agent.
func (a *Account) IsApprovedAgent() bool {
	return a.Role == RoleAgent && a.IsApproved()
}

// ValidateDelta checks that applying delta keeps the balance non-negative.
func (a *Account) ValidateDelta(delta decimal.Decimal) error {
	if a.Balance.Add(delta).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDelta returns the balance after delta.
func (a *Account) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(delta)
}

// Party returns the public projection of the account.
func (a *Account) Party() PartyView {
	return PartyView{Name: a.Name, Mobile: a.Mobile}
}

// PartyView is what other principals may see about an account.
type PartyView struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}
