package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/mfsledger/internal/adapter/http/dto"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	ApproveAgent(ctx context.Context, principal domain.Principal, accountID string) (*domain.Account, error)
	GetBalance(ctx context.Context, principal domain.Principal) (decimal.Decimal, error)
	ListAccounts(ctx context.Context, principal domain.Principal, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// PINVerifier checks the caller's PIN and returns the principal with the verdict set.
type PINVerifier interface {
	VerifyPIN(ctx context.Context, principal domain.Principal, pin string) (domain.Principal, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	pins      PINVerifier
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, pins PINVerifier) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, pins: pins}
}

// Open registers a user or an agent applicant.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// ApproveAgent approves a pending agent application.
func (h *AccountHandler) ApproveAgent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "missing account ID")
		return
	}

	var req dto.PINRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.pins.VerifyPIN(r.Context(), p, req.PIN)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	account, err := h.accountUC.ApproveAgent(r.Context(), p, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Balance returns the caller's own balance.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	balance, err := h.accountUC.GetBalance(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: p.ID, Balance: balance})
}

// List lists accounts. Admin only.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), p, usecase.ListAccountsInput{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}
