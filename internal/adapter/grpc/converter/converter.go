package converter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	v1 "github.com/iho/mfsledger/internal/adapter/grpc/api/mfsledger/v1"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// AccountToMessage converts domain.Account to its wire form.
func AccountToMessage(a *domain.Account) *v1.Account {
	if a == nil {
		return nil
	}
	return &v1.Account{
		ID:        a.ID,
		Name:      a.Name,
		Mobile:    a.Mobile,
		Email:     a.Email,
		Role:      string(a.Role),
		Status:    string(a.Status),
		Balance:   a.Balance.String(),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsToMessages converts a page of accounts.
func AccountsToMessages(accounts []*domain.Account) []*v1.Account {
	result := make([]*v1.Account, len(accounts))
	for i, a := range accounts {
		result[i] = AccountToMessage(a)
	}
	return result
}

// TransactionToMessage converts a freshly settled or created transaction.
// Party account ids stay server-side.
func TransactionToMessage(t *domain.Transaction) *v1.Transaction {
	if t == nil {
		return nil
	}
	return &v1.Transaction{
		ID:               t.ID,
		Type:             string(t.Type),
		Status:           string(t.Status),
		Amount:           t.Amount.String(),
		Fee:              t.Fee.String(),
		FeePolicyVersion: t.FeePolicyVersion,
		Description:      t.Description,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// ViewToMessage converts a query view.
func ViewToMessage(v *usecase.TransactionView) *v1.Transaction {
	if v == nil {
		return nil
	}
	return &v1.Transaction{
		ID:               v.ID,
		Type:             string(v.Type),
		Status:           string(v.Status),
		Amount:           v.Amount.String(),
		Fee:              v.Fee.String(),
		FeePolicyVersion: v.FeePolicyVersion,
		Description:      v.Description,
		From:             partyToMessage(v.From),
		To:               partyToMessage(v.To),
		FromAccountID:    v.FromAccountID,
		ToAccountID:      v.ToAccountID,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

// ViewsToMessages converts a page of query views.
func ViewsToMessages(views []*usecase.TransactionView) []*v1.Transaction {
	result := make([]*v1.Transaction, len(views))
	for i, v := range views {
		result[i] = ViewToMessage(v)
	}
	return result
}

// FeeQuoteToMessage converts a fee quote.
func FeeQuoteToMessage(q *usecase.FeeQuote) *v1.FeeQuote {
	if q == nil {
		return nil
	}
	return &v1.FeeQuote{
		Type:          string(q.Type),
		Amount:        q.Amount.String(),
		Fee:           q.Fee.String(),
		Total:         q.Total.String(),
		PolicyVersion: q.PolicyVersion,
	}
}

// ParseAmount reads a decimal amount from the wire. Malformed input is an
// invalid amount, the same as a non-positive one.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", domain.ErrInvalidAmount, s)
	}
	return amount, nil
}

func partyToMessage(p *domain.PartyView) *v1.Party {
	if p == nil {
		return nil
	}
	return &v1.Party{Name: p.Name, Mobile: p.Mobile}
}
