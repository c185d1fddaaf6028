package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// OpenAccountRequest represents a registration request.
type OpenAccountRequest struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
	PIN     string `json:"pin"`
	AsAgent bool   `json:"as_agent"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		Name:    r.Name,
		Mobile:  r.Mobile,
		Email:   r.Email,
		PIN:     r.PIN,
		AsAgent: r.AsAgent,
	}
}

// LoginRequest exchanges a mobile number or email and PIN for a token.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	PIN        string `json:"pin"`
}

// CashInRequest asks an agent to credit the caller against physical cash.
type CashInRequest struct {
	Agent       string          `json:"agent"`
	Amount      decimal.Decimal `json:"amount"`
	PIN         string          `json:"pin"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CashInRequest) ToUseCaseInput() usecase.CashInInput {
	return usecase.CashInInput{
		Agent:       r.Agent,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// CashOutRequest withdraws physical cash through an agent.
type CashOutRequest struct {
	Agent       string          `json:"agent"`
	Amount      decimal.Decimal `json:"amount"`
	PIN         string          `json:"pin"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CashOutRequest) ToUseCaseInput() usecase.CashOutInput {
	return usecase.CashOutInput{
		Agent:       r.Agent,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// SendMoneyRequest represents a peer transfer.
type SendMoneyRequest struct {
	Recipient   string          `json:"recipient"`
	Amount      decimal.Decimal `json:"amount"`
	PIN         string          `json:"pin"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SendMoneyRequest) ToUseCaseInput() usecase.SendMoneyInput {
	return usecase.SendMoneyInput{
		Recipient:   r.Recipient,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// PINRequest carries the secret for actions on an existing record.
type PINRequest struct {
	PIN string `json:"pin"`
}

// TransactionFilterRequest represents the admin listing query.
type TransactionFilterRequest struct {
	Type   string
	Status string
	Limit  int
	Offset int
}

// ToDomain converts to a domain filter.
func (r *TransactionFilterRequest) ToDomain() domain.TransactionFilter {
	return domain.TransactionFilter{
		Type:   domain.TransactionType(r.Type),
		Status: domain.TransactionStatus(r.Status),
		Limit:  r.Limit,
		Offset: r.Offset,
	}
}
