package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
	"github.com/iho/mfsledger/internal/usecase/mocks"
)

func TestAuthUseCase_Authenticate(t *testing.T) {
	h := newHarness(t, usecase.DefaultBonuses)
	ctx := context.Background()

	alice := h.open(t, "Alice", false)

	tests := []struct {
		name       string
		identifier string
		pin        string
		wantErr    error
	}{
		{"by mobile", alice.Mobile, testPIN, nil},
		{"by email", "  " + alice.Email + " ", testPIN, nil},
		{"wrong pin", alice.Mobile, "54321", domain.ErrUnauthorized},
		{"unknown mobile", "01800000000", testPIN, domain.ErrUnauthorized},
		{"empty identifier", "", testPIN, domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := h.auth.Authenticate(ctx, tt.identifier, tt.pin)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.ID != alice.ID {
				t.Errorf("expected %s, got %s", alice.ID, account.ID)
			}
		})
	}
}

func TestAuthUseCase_VerifyPINGatesTheEngine(t *testing.T) {
	h := newHarness(t, usecase.DefaultBonuses)
	ctx := context.Background()

	agent := h.agent(t, "Agent")
	alice := h.open(t, "Alice", false)
	principal := domain.Principal{ID: alice.ID, Role: domain.RoleUser}

	wrong, err := h.auth.VerifyPIN(ctx, principal, "00000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wrong.PINVerified {
		t.Fatal("wrong pin must not verify")
	}

	_, err = h.settlement.RequestCashOut(ctx, wrong, usecase.CashOutInput{Agent: agent.ID, Amount: dec("10")})
	if !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	verified, err := h.auth.VerifyPIN(ctx, principal, testPIN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verified.PINVerified {
		t.Fatal("correct pin must verify")
	}

	if _, err := h.settlement.RequestCashOut(ctx, verified, usecase.CashOutInput{Agent: agent.ID, Amount: dec("10")}); err != nil {
		t.Fatalf("verified principal should be allowed: %v", err)
	}
}

func TestAuthUseCase_CredentialStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	credentialRepo := mocks.NewMockCredentialRepository(ctrl)
	hasher := mocks.NewMockPINHasher(ctrl)

	accountRepo.EXPECT().GetByMobile(gomock.Any(), "01700000001").Return(&domain.Account{ID: "acc-1"}, nil)
	credentialRepo.EXPECT().GetPINHash(gomock.Any(), "acc-1").Return("", errors.New("timeout"))

	uc := usecase.NewAuthUseCase(accountRepo, credentialRepo, hasher)

	_, err := uc.Authenticate(context.Background(), "01700000001", testPIN)
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
}
