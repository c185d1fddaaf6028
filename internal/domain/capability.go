package domain

import (
	"fmt"
	"slices"
)

// PartyRule restricts an action to specific parties of a transaction.
type PartyRule int

const (
	// PartyAny places no party restriction.
	PartyAny PartyRule = iota
	// PartyReceiver allows only the transaction's `to` account.
	PartyReceiver
	// PartyEither allows the `from` or the `to` account.
	PartyEither
)

// Capability declares what a principal needs to perform an action.
// Every mutating engine call checks one before touching storage.
type Capability struct {
	Action     string
	Roles      []Role
	Party      PartyRule
	AdminParty bool // admins pass the party rule
	RequirePIN bool
}

// Engine capabilities.
var (
	CapRequestCashIn = Capability{Action: "cash_in.request", Roles: []Role{RoleUser}, RequirePIN: true}
	CapApproveCashIn = Capability{Action: "cash_in.approve", Roles: []Role{RoleAgent}, Party: PartyReceiver, RequirePIN: true}
	CapRejectCashIn  = Capability{
		Action:     "cash_in.reject",
		Roles:      []Role{RoleUser, RoleAgent, RoleAdmin},
		Party:      PartyEither,
		AdminParty: true,
		RequirePIN: true,
	}
	CapRequestCashOut = Capability{Action: "cash_out.request", Roles: []Role{RoleUser}, RequirePIN: true}
	CapSendMoney      = Capability{Action: "send_money", Roles: []Role{RoleUser}, RequirePIN: true}
	CapApproveAgent   = Capability{Action: "agent.approve", Roles: []Role{RoleAdmin}, RequirePIN: true}

	CapViewTransaction = Capability{Action: "transaction.view", Roles: []Role{RoleUser, RoleAgent, RoleAdmin}, Party: PartyEither, AdminParty: true}
	CapListPending     = Capability{Action: "cash_in.list_pending", Roles: []Role{RoleAgent}}
	CapListAll         = Capability{Action: "transaction.list_all", Roles: []Role{RoleAdmin}}
)

// Authorize checks the role and secret requirements.
func (c Capability) Authorize(p Principal) error {
	if p.ID == "" {
		return fmt.Errorf("%w: %s requires an authenticated principal", ErrNotAuthorized, c.Action)
	}
	if !slices.Contains(c.Roles, p.Role) {
		return fmt.Errorf("%w: role %q cannot %s", ErrNotAuthorized, p.Role, c.Action)
	}
	if c.RequirePIN && !p.PINVerified {
		return fmt.Errorf("%w: %s requires a verified PIN", ErrNotAuthorized, c.Action)
	}
	return nil
}

// AuthorizeParty checks the party predicate against tx.
func (c Capability) AuthorizeParty(p Principal, tx *Transaction) error {
	if c.AdminParty && p.IsAdmin() {
		return nil
	}

	switch c.Party {
	case PartyReceiver:
		if tx.ToAccountID == p.ID {
			return nil
		}
	case PartyEither:
		if tx.IsParty(p.ID) {
			return nil
		}
	default:
		return nil
	}

	return fmt.Errorf("%w: principal is not a permitted party to %s", ErrNotAuthorized, c.Action)
}
