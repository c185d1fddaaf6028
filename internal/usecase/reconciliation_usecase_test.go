package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
	"github.com/iho/mfsledger/internal/usecase/mocks"
)

func TestReconciliation_CleanLedger(t *testing.T) {
	h := newHarness(t, usecase.DefaultBonuses)
	ctx := context.Background()

	agent := h.agent(t, "Agent")
	alice := h.user(t, "Alice")
	bob := h.user(t, "Bob")
	h.fund(t, alice, agent, dec("500"))
	if _, err := h.settlement.SendMoney(ctx, alice, usecase.SendMoneyInput{Recipient: bob.ID, Amount: dec("300")}); err != nil {
		t.Fatalf("send: %v", err)
	}

	report, err := h.recon.GenerateReconciliationReport(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalAccounts != 4 {
		t.Errorf("expected 4 accounts, got %d", report.TotalAccounts)
	}
	if len(report.Discrepancies) != 0 {
		t.Errorf("expected no discrepancies, got %+v", report.Discrepancies)
	}
	if !report.LedgerConsistent {
		t.Errorf("expected consistent ledger, got %+v", report.Ledger)
	}
	if !report.Ledger.TotalMinted.Equal(dec("10080")) {
		t.Errorf("expected 10080 minted, got %s", report.Ledger.TotalMinted)
	}

	result, err := h.recon.ReconcileAccount(ctx, alice.ID)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if !result.IsReconciled || !result.RecordedBalance.Equal(dec("235")) {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestReconciliation_DetectsDrift(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	entryRepo := mocks.NewMockEntryRepository(ctrl)
	ledgerRepo := mocks.NewMockLedgerRepository(ctrl)

	accountRepo.EXPECT().List(gomock.Any(), 1000, 0).Return([]*domain.Account{
		{ID: "ok", Balance: decimal.NewFromInt(40)},
		{ID: "drift", Balance: decimal.NewFromInt(50)},
	}, nil)
	entryRepo.EXPECT().SumByAccount(gomock.Any(), "ok").Return(decimal.NewFromInt(40), nil)
	entryRepo.EXPECT().SumByAccount(gomock.Any(), "drift").Return(decimal.NewFromInt(40), nil)
	ledgerRepo.EXPECT().CheckConsistency(gomock.Any()).Return(decimal.NewFromInt(90), decimal.NewFromInt(80), decimal.NewFromInt(80), nil)

	uc := usecase.NewReconciliationUseCase(accountRepo, entryRepo, ledgerRepo)

	report, err := uc.GenerateReconciliationReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.ReconciledAccounts != 1 || len(report.Discrepancies) != 1 {
		t.Fatalf("expected one discrepancy, got %+v", report)
	}
	if d := report.Discrepancies[0]; d.AccountID != "drift" || !d.Difference.Equal(decimal.NewFromInt(10)) {
		t.Errorf("unexpected discrepancy %+v", d)
	}
	if report.LedgerConsistent {
		t.Error("expected ledger to be flagged inconsistent")
	}
	if report.CheckedAt.After(time.Now().Add(time.Second)) {
		t.Error("checked-at in the future")
	}
}

func TestReconciliation_AccountNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	accountRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrAccountNotFound)

	uc := usecase.NewReconciliationUseCase(accountRepo, nil, nil)

	if _, err := uc.ReconcileAccount(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
