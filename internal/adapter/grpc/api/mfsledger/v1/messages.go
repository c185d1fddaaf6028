// Package mfsledgerv1 is the wire contract of the mfsledger gRPC services.
// Messages are plain structs carried by the JSON codec; amounts travel as
// decimal strings.
package mfsledgerv1

import "time"

// Account is a registered wallet holder.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Balance   string    `json:"balance"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Party identifies the other side of a transaction without its account id.
type Party struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

// Transaction is a money-movement record.
type Transaction struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Status           string    `json:"status"`
	Amount           string    `json:"amount"`
	Fee              string    `json:"fee"`
	FeePolicyVersion string    `json:"fee_policy_version,omitempty"`
	Description      string    `json:"description,omitempty"`
	From             *Party    `json:"from,omitempty"`
	To               *Party    `json:"to,omitempty"`
	FromAccountID    string    `json:"from_account_id,omitempty"`
	ToAccountID      string    `json:"to_account_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type OpenAccountRequest struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
	Pin     string `json:"pin"`
	AsAgent bool   `json:"as_agent"`
}

type AccountResponse struct {
	Account *Account `json:"account"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Pin        string `json:"pin"`
}

type LoginResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}

type GetBalanceRequest struct{}

type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

type ApproveAgentRequest struct {
	AccountID string `json:"account_id"`
	Pin       string `json:"pin"`
}

type ListAccountsRequest struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type ListAccountsResponse struct {
	Accounts []*Account `json:"accounts"`
}

type CashInRequest struct {
	Agent       string `json:"agent"`
	Amount      string `json:"amount"`
	Pin         string `json:"pin"`
	Description string `json:"description,omitempty"`
}

type CashOutRequest struct {
	Agent       string `json:"agent"`
	Amount      string `json:"amount"`
	Pin         string `json:"pin"`
	Description string `json:"description,omitempty"`
}

type SendMoneyRequest struct {
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	Pin         string `json:"pin"`
	Description string `json:"description,omitempty"`
}

// DecideCashInRequest approves or rejects a pending cash-in.
type DecideCashInRequest struct {
	TransactionID string `json:"transaction_id"`
	Pin           string `json:"pin"`
}

type TransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type QuoteFeeRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

type FeeQuote struct {
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee"`
	Total         string `json:"total"`
	PolicyVersion string `json:"policy_version"`
}

type GetTransactionRequest struct {
	ID string `json:"id"`
}

type ListTransactionsRequest struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}
