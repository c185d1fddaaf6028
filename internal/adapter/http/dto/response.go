package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Mobile    string          `json:"mobile"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Status    string          `json:"status"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Mobile:    a.Mobile,
		Email:     a.Email,
		Role:      string(a.Role),
		Status:    string(a.Status),
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// BalanceResponse is the caller's own balance.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// LoginResponse carries an issued token.
type LoginResponse struct {
	Token   string           `json:"token"`
	Account *AccountResponse `json:"account"`
}

// TransactionResponse represents a settlement record returned to its initiator.
type TransactionResponse struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	Fee              decimal.Decimal `json:"fee"`
	FeePolicyVersion string          `json:"fee_policy_version,omitempty"`
	Description      string          `json:"description,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to response. Party
// account ids are left out; views carry parties by name and mobile.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:               t.ID,
		Type:             string(t.Type),
		Status:           string(t.Status),
		Amount:           t.Amount,
		Fee:              t.Fee,
		FeePolicyVersion: t.FeePolicyVersion,
		Description:      t.Description,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// TransactionViewResponse is a transaction as seen by the caller.
type TransactionViewResponse struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	Amount           decimal.Decimal   `json:"amount"`
	Fee              decimal.Decimal   `json:"fee"`
	FeePolicyVersion string            `json:"fee_policy_version,omitempty"`
	Description      string            `json:"description,omitempty"`
	From             *domain.PartyView `json:"from,omitempty"`
	To               *domain.PartyView `json:"to,omitempty"`
	FromAccountID    string            `json:"from_account_id,omitempty"`
	ToAccountID      string            `json:"to_account_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// TransactionViewFromUseCase converts a query view to response.
func TransactionViewFromUseCase(v *usecase.TransactionView) *TransactionViewResponse {
	return &TransactionViewResponse{
		ID:               v.ID,
		Type:             string(v.Type),
		Status:           string(v.Status),
		Amount:           v.Amount,
		Fee:              v.Fee,
		FeePolicyVersion: v.FeePolicyVersion,
		Description:      v.Description,
		From:             v.From,
		To:               v.To,
		FromAccountID:    v.FromAccountID,
		ToAccountID:      v.ToAccountID,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

// ListTransactionsResponse represents a page of transaction views.
type ListTransactionsResponse struct {
	Transactions []*TransactionViewResponse `json:"transactions"`
	Count        int                        `json:"count"`
}

// TransactionViewsFromUseCase converts query views to a page response.
func TransactionViewsFromUseCase(views []*usecase.TransactionView) ListTransactionsResponse {
	result := make([]*TransactionViewResponse, len(views))
	for i, v := range views {
		result[i] = TransactionViewFromUseCase(v)
	}
	return ListTransactionsResponse{Transactions: result, Count: len(result)}
}

// FeeQuoteResponse prices a movement.
type FeeQuoteResponse struct {
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	Total         decimal.Decimal `json:"total"`
	PolicyVersion string          `json:"policy_version"`
}

// FeeQuoteFromUseCase converts a quote to response.
func FeeQuoteFromUseCase(q *usecase.FeeQuote) *FeeQuoteResponse {
	return &FeeQuoteResponse{
		Type:          string(q.Type),
		Amount:        q.Amount,
		Fee:           q.Fee,
		Total:         q.Total,
		PolicyVersion: q.PolicyVersion,
	}
}

// ConsistencyResponse reports the ledger-wide conservation check.
type ConsistencyResponse struct {
	Consistent   bool            `json:"consistent"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	TotalEntries decimal.Decimal `json:"total_entries"`
	TotalMinted  decimal.Decimal `json:"total_minted"`
}

// ConsistencyFromUseCase converts a consistency report to response.
func ConsistencyFromUseCase(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent:   r.Consistent,
		TotalBalance: r.TotalBalance,
		TotalEntries: r.TotalEntries,
		TotalMinted:  r.TotalMinted,
	}
}

// DiscrepancyResponse is one account whose balance disagrees with its entries.
type DiscrepancyResponse struct {
	AccountID         string          `json:"account_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
}

// ReconciliationResponse is the full reconciliation report.
type ReconciliationResponse struct {
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	LedgerConsistent   bool                   `json:"ledger_consistent"`
	Ledger             *ConsistencyResponse   `json:"ledger,omitempty"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation report to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		LedgerConsistent:   r.LedgerConsistent,
		Discrepancies:      make([]*DiscrepancyResponse, 0, len(r.Discrepancies)),
		CheckedAt:          r.CheckedAt,
	}
	if r.Ledger != nil {
		resp.Ledger = ConsistencyFromUseCase(r.Ledger)
	}
	for _, d := range r.Discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, &DiscrepancyResponse{
			AccountID:         d.AccountID,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
		})
	}
	return resp
}

// ErrorResponse represents an error in API responses. Error is the stable
// kind code; Message is safe to show to the caller.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
