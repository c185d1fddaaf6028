package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/iho/mfsledger/internal/adapter/http/dto"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

// LedgerService runs the conservation check.
type LedgerService interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// ReconciliationService compares balances with their entries.
type ReconciliationService interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide operations. Admin only.
type LedgerHandler struct {
	ledgerUC LedgerService
	reconUC  ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconUC: reconUC}
}

// CheckConsistency checks if the ledger is consistent.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) && report != nil {
			writeJSON(w, http.StatusConflict, dto.ConsistencyFromUseCase(report))
			return
		}
		writeDomainError(w, r, domain.StorageFailure("check consistency", err))
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromUseCase(report))
}

// Reconciliation returns the per-account reconciliation report.
func (h *LedgerHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	report, err := h.reconUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, r, domain.StorageFailure("reconcile", err))
		return
	}

	status := http.StatusOK
	if !report.LedgerConsistent || len(report.Discrepancies) > 0 {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ReconciliationFromUseCase(report))
}

func (h *LedgerHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	p, ok := principal(w, r)
	if !ok {
		return false
	}
	if err := domain.CapListAll.Authorize(p); err != nil {
		writeDomainError(w, r, err)
		return false
	}
	return true
}
