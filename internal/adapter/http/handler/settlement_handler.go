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

// SettlementService defines the behavior needed by SettlementHandler.
type SettlementService interface {
	RequestCashIn(ctx context.Context, principal domain.Principal, input usecase.CashInInput) (*domain.Transaction, error)
	ApproveCashIn(ctx context.Context, principal domain.Principal, transactionID string) (*domain.Transaction, error)
	RejectCashIn(ctx context.Context, principal domain.Principal, transactionID string) (*domain.Transaction, error)
	RequestCashOut(ctx context.Context, principal domain.Principal, input usecase.CashOutInput) (*domain.Transaction, error)
	SendMoney(ctx context.Context, principal domain.Principal, input usecase.SendMoneyInput) (*domain.Transaction, error)
	QuoteFee(t domain.TransactionType, amount decimal.Decimal) (*usecase.FeeQuote, error)
}

// SettlementHandler handles money-movement requests. Every mutating call
// verifies the PIN in the body before the engine sees the principal.
type SettlementHandler struct {
	settlementUC SettlementService
	pins         PINVerifier
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementUC SettlementService, pins PINVerifier) *SettlementHandler {
	return &SettlementHandler{settlementUC: settlementUC, pins: pins}
}

// RequestCashIn records a pending cash-in with an agent.
func (h *SettlementHandler) RequestCashIn(w http.ResponseWriter, r *http.Request) {
	var req dto.CashInRequest
	p, ok := h.authorize(w, r, &req, func() string { return req.PIN })
	if !ok {
		return
	}

	tx, err := h.settlementUC.RequestCashIn(r.Context(), p, req.ToUseCaseInput())
	h.respond(w, r, http.StatusCreated, tx, err)
}

// ApproveCashIn settles a pending cash-in addressed to the calling agent.
func (h *SettlementHandler) ApproveCashIn(w http.ResponseWriter, r *http.Request) {
	var req dto.PINRequest
	p, ok := h.authorize(w, r, &req, func() string { return req.PIN })
	if !ok {
		return
	}

	tx, err := h.settlementUC.ApproveCashIn(r.Context(), p, chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, tx, err)
}

// RejectCashIn closes a pending cash-in without moving money.
func (h *SettlementHandler) RejectCashIn(w http.ResponseWriter, r *http.Request) {
	var req dto.PINRequest
	p, ok := h.authorize(w, r, &req, func() string { return req.PIN })
	if !ok {
		return
	}

	tx, err := h.settlementUC.RejectCashIn(r.Context(), p, chi.URLParam(r, "id"))
	h.respond(w, r, http.StatusOK, tx, err)
}

// RequestCashOut withdraws through an agent and settles at once.
func (h *SettlementHandler) RequestCashOut(w http.ResponseWriter, r *http.Request) {
	var req dto.CashOutRequest
	p, ok := h.authorize(w, r, &req, func() string { return req.PIN })
	if !ok {
		return
	}

	tx, err := h.settlementUC.RequestCashOut(r.Context(), p, req.ToUseCaseInput())
	h.respond(w, r, http.StatusCreated, tx, err)
}

// SendMoney transfers between two users and settles at once.
func (h *SettlementHandler) SendMoney(w http.ResponseWriter, r *http.Request) {
	var req dto.SendMoneyRequest
	p, ok := h.authorize(w, r, &req, func() string { return req.PIN })
	if !ok {
		return
	}

	tx, err := h.settlementUC.SendMoney(r.Context(), p, req.ToUseCaseInput())
	h.respond(w, r, http.StatusCreated, tx, err)
}

// QuoteFee prices a movement without storing anything.
func (h *SettlementHandler) QuoteFee(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(domain.KindInvalidAmount), "amount must be a decimal number")
		return
	}

	quote, err := h.settlementUC.QuoteFee(domain.TransactionType(r.URL.Query().Get("type")), amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FeeQuoteFromUseCase(quote))
}

// authorize decodes the body into req and returns the caller with the PIN
// verdict applied.
func (h *SettlementHandler) authorize(w http.ResponseWriter, r *http.Request, req any, pin func() string) (domain.Principal, bool) {
	p, ok := principal(w, r)
	if !ok {
		return p, false
	}

	if !decodeJSON(w, r, req) {
		return p, false
	}

	p, err := h.pins.VerifyPIN(r.Context(), p, pin())
	if err != nil {
		writeDomainError(w, r, err)
		return p, false
	}

	return p, true
}

func (h *SettlementHandler) respond(w http.ResponseWriter, r *http.Request, status int, tx *domain.Transaction, err error) {
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, status, dto.TransactionFromDomain(tx))
}
