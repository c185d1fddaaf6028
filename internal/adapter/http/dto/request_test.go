package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

func TestOpenAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &OpenAccountRequest{
		Name:    "Rahim Agent",
		Mobile:  "01733333333",
		Email:   "rahim@example.com",
		PIN:     "54321",
		AsAgent: true,
	}

	got := req.ToUseCaseInput()
	want := usecase.OpenAccountInput{
		Name:    "Rahim Agent",
		Mobile:  "01733333333",
		Email:   "rahim@example.com",
		PIN:     "54321",
		AsAgent: true,
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestSendMoneyRequest_DecodesAmount(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		want        decimal.Decimal
		expectError bool
	}{
		{name: "string amount", body: `{"recipient":"017","amount":"150.50","pin":"1"}`, want: decimal.RequireFromString("150.50")},
		{name: "numeric amount", body: `{"recipient":"017","amount":101,"pin":"1"}`, want: decimal.NewFromInt(101)},
		{name: "garbage amount", body: `{"recipient":"017","amount":"lots","pin":"1"}`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SendMoneyRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			input := req.ToUseCaseInput()
			if input.Recipient != "017" || !input.Amount.Equal(tt.want) {
				t.Fatalf("unexpected input %+v", input)
			}
		})
	}
}

func TestCashRequests_ToUseCaseInput(t *testing.T) {
	in := (&CashInRequest{Agent: "01733333333", Amount: decimal.NewFromInt(200), PIN: "1", Description: "shop"}).ToUseCaseInput()
	if in.Agent != "01733333333" || !in.Amount.Equal(decimal.NewFromInt(200)) || in.Description != "shop" {
		t.Fatalf("unexpected cash-in input %+v", in)
	}

	out := (&CashOutRequest{Agent: "01733333333", Amount: decimal.NewFromInt(50)}).ToUseCaseInput()
	if out.Agent != "01733333333" || !out.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected cash-out input %+v", out)
	}
}

func TestTransactionFilterRequest_ToDomain(t *testing.T) {
	req := &TransactionFilterRequest{Type: "cash-out", Status: "approved", Limit: 20, Offset: 40}

	got := req.ToDomain()
	want := domain.TransactionFilter{
		Type:   domain.TransactionCashOut,
		Status: domain.StatusApproved,
		Limit:  20,
		Offset: 40,
	}

	if got != want {
		t.Fatalf("ToDomain() = %+v, want %+v", got, want)
	}
}
