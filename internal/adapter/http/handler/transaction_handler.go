package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/mfsledger/internal/adapter/http/dto"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// QueryService defines the behavior needed by TransactionHandler.
type QueryService interface {
	ListByParticipant(ctx context.Context, principal domain.Principal, limit, offset int) ([]*usecase.TransactionView, error)
	ListPendingCashIn(ctx context.Context, principal domain.Principal, limit, offset int) ([]*usecase.TransactionView, error)
	GetTransaction(ctx context.Context, principal domain.Principal, id string) (*usecase.TransactionView, error)
	ListAll(ctx context.Context, principal domain.Principal, filter domain.TransactionFilter) ([]*usecase.TransactionView, error)
}

// TransactionHandler serves read-only transaction views.
type TransactionHandler struct {
	queryUC QueryService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(queryUC QueryService) *TransactionHandler {
	return &TransactionHandler{queryUC: queryUC}
}

// ListMine lists the caller's transactions, newest first.
func (h *TransactionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	views, err := h.queryUC.ListByParticipant(r.Context(), p, parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionViewsFromUseCase(views))
}

// ListPendingCashIn lists cash-in requests waiting on the calling agent.
func (h *TransactionHandler) ListPendingCashIn(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	views, err := h.queryUC.ListPendingCashIn(r.Context(), p, parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionViewsFromUseCase(views))
}

// Get returns one transaction to a party or an admin.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	view, err := h.queryUC.GetTransaction(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionViewFromUseCase(view))
}

// ListAll lists every transaction with optional type and status filters. Admin only.
func (h *TransactionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	filter := dto.TransactionFilterRequest{
		Type:   r.URL.Query().Get("type"),
		Status: r.URL.Query().Get("status"),
		Limit:  parseIntQuery(r, "limit", 50),
		Offset: parseIntQuery(r, "offset", 0),
	}

	views, err := h.queryUC.ListAll(r.Context(), p, filter.ToDomain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionViewsFromUseCase(views))
}
