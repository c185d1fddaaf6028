package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/adapter/repository/memory"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/metrics"
	"github.com/iho/mfsledger/internal/usecase"
)

const testPIN = "12345"

type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%08d", g.n.Add(1))
}

type plainHasher struct{}

func (plainHasher) Hash(pin string) (string, error) { return "hashed:" + pin, nil }
func (plainHasher) Compare(hash, pin string) bool   { return hash == "hashed:"+pin }

// harness wires every use case against one in-memory store.
type harness struct {
	store      *memory.Store
	metrics    *metrics.Metrics
	accounts   *usecase.AccountUseCase
	settlement *usecase.SettlementUseCase
	query      *usecase.QueryUseCase
	auth       *usecase.AuthUseCase
	ledger     *usecase.LedgerUseCase
	recon      *usecase.ReconciliationUseCase
	admin      domain.Principal
	mobiles    atomic.Int64
}

func newHarness(t *testing.T, bonuses usecase.Bonuses) *harness {
	t.Helper()

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	accountRepo := memory.NewAccountRepository(store)
	transactionRepo := memory.NewTransactionRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	outboxRepo := memory.NewOutboxRepository(store)
	auditRepo := memory.NewAuditRepository(store)
	credentialRepo := memory.NewCredentialRepository(store)
	ledgerRepo := memory.NewLedgerRepository(store)

	ids := &seqIDs{}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	logger := zerolog.Nop()
	accountStore := usecase.NewAccountStore(accountRepo, entryRepo, ids)

	h := &harness{
		store:   store,
		metrics: m,
		accounts: usecase.NewAccountUseCase(
			txManager, accountStore, accountRepo, transactionRepo, credentialRepo,
			outboxRepo, auditRepo, plainHasher{}, ids, memory.NoopRetrier{}, bonuses, m, logger,
		),
		settlement: usecase.NewSettlementUseCase(
			txManager, accountStore, accountRepo, transactionRepo, outboxRepo, auditRepo,
			ids, memory.NoopRetrier{}, usecase.SettlementConfig{}, m, logger,
		),
		query:  usecase.NewQueryUseCase(transactionRepo, accountRepo, nil, 0, logger),
		auth:   usecase.NewAuthUseCase(accountRepo, credentialRepo, plainHasher{}),
		ledger: usecase.NewLedgerUseCase(ledgerRepo),
		recon:  usecase.NewReconciliationUseCase(accountRepo, entryRepo, ledgerRepo),
		admin:  domain.Principal{ID: "admin-1", Role: domain.RoleAdmin, PINVerified: true},
	}

	if _, err := h.accounts.EnsureSystemAccount(context.Background(), usecase.DefaultFeeAccountID, "Fee collection"); err != nil {
		t.Fatalf("ensure fee account: %v", err)
	}

	return h
}

func (h *harness) nextMobile() string {
	return fmt.Sprintf("0170%07d", h.mobiles.Add(1))
}

func (h *harness) open(t *testing.T, name string, asAgent bool) *domain.Account {
	t.Helper()

	mobile := h.nextMobile()
	account, err := h.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{
		Name:    name,
		Mobile:  mobile,
		Email:   mobile + "@example.com",
		PIN:     testPIN,
		AsAgent: asAgent,
	})
	if err != nil {
		t.Fatalf("open account %s: %v", name, err)
	}
	return account
}

// user opens an approved user account and returns a PIN-verified principal.
func (h *harness) user(t *testing.T, name string) domain.Principal {
	t.Helper()
	a := h.open(t, name, false)
	return domain.Principal{ID: a.ID, Role: domain.RoleUser, PINVerified: true}
}

// agent opens and approves an agent account.
func (h *harness) agent(t *testing.T, name string) domain.Principal {
	t.Helper()
	a := h.open(t, name, true)
	if _, err := h.accounts.ApproveAgent(context.Background(), h.admin, a.ID); err != nil {
		t.Fatalf("approve agent %s: %v", name, err)
	}
	return domain.Principal{ID: a.ID, Role: domain.RoleAgent, PINVerified: true}
}

// fund moves amount from agent to user through an approved cash-in.
func (h *harness) fund(t *testing.T, user, agent domain.Principal, amount decimal.Decimal) {
	t.Helper()

	ctx := context.Background()
	req, err := h.settlement.RequestCashIn(ctx, user, usecase.CashInInput{Agent: agent.ID, Amount: amount})
	if err != nil {
		t.Fatalf("request cash-in: %v", err)
	}
	if _, err := h.settlement.ApproveCashIn(ctx, agent, req.ID); err != nil {
		t.Fatalf("approve cash-in: %v", err)
	}
}

func (h *harness) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	a, err := memory.NewAccountRepository(h.store).GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get account %s: %v", id, err)
	}
	return a.Balance
}

func (h *harness) assertBalance(t *testing.T, id, want string) {
	t.Helper()

	if got := h.balance(t, id); !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("balance of %s = %s, want %s", id, got.StringFixed(2), want)
	}
}

func (h *harness) assertConsistent(t *testing.T) {
	t.Helper()

	report, err := h.ledger.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("ledger inconsistent: %v (%+v)", err, report)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
