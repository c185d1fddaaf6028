package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/mfsledger/internal/adapter/http/dto"
	"github.com/iho/mfsledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/transactions/me?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/transactions/me?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not authorized", domain.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound, "not_found"},
		{"transaction not found", domain.ErrTransactionNotFound, http.StatusNotFound, "not_found"},
		{"invalid state", domain.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{"account exists", domain.ErrAccountExists, http.StatusConflict, "invalid_state"},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
		{"below minimum", domain.ErrBelowMinimum, http.StatusBadRequest, "below_minimum"},
		{"invalid parties", fmt.Errorf("%w: same account", domain.ErrInvalidParties), http.StatusBadRequest, "invalid_parties"},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
		{"bad credentials", domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"storage failure", domain.StorageFailure("op", errors.New("conn reset")), http.StatusInternalServerError, "storage_failure"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "storage_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := mapDomainError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Fatalf("expected %d %s, got %d %s", tt.wantStatus, tt.wantCode, status, code)
			}
		})
	}
}

func TestWriteDomainErrorHidesStorageCause(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	rec := httptest.NewRecorder()

	writeDomainError(rec, req, domain.StorageFailure("send_money", errors.New("pq: relation missing")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "relation missing") {
		t.Fatalf("driver error leaked to client: %s", rec.Body.String())
	}
	if !strings.Contains(logs.String(), "relation missing") {
		t.Fatalf("expected driver error in logs, got %s", logs.String())
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "storage_failure" {
		t.Fatalf("expected storage_failure code, got %q", resp.Error)
	}
}

func TestWriteDomainErrorKeepsValidationMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	writeDomainError(rec, req, fmt.Errorf("%w: minimum is 50", domain.ErrBelowMinimum))

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "below_minimum" || !strings.Contains(resp.Message, "minimum is 50") {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPrincipalRequiresAuthentication(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if _, ok := principal(rec, req); ok {
		t.Fatal("expected no principal")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
