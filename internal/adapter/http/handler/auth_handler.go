package handler

import (
	"context"
	"net/http"

	"github.com/iho/mfsledger/internal/adapter/http/dto"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/metrics"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, pin string) (*domain.Account, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Generate(account *domain.Account) (string, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUC  Authenticator
	tokens  TokenIssuer
	metrics *metrics.Metrics
}

// NewAuthHandler creates a new auth handler. m may be nil.
func NewAuthHandler(authUC Authenticator, tokens TokenIssuer, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authUC:  authUC,
		tokens:  tokens,
		metrics: m,
	}
}

// Login exchanges a mobile number or email and PIN for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.authUC.Authenticate(r.Context(), req.Identifier, req.PIN)
	if err != nil {
		h.observe("failure", "invalid_credentials")
		writeDomainError(w, r, err)
		return
	}

	token, err := h.tokens.Generate(account)
	if err != nil {
		h.observe("failure", "token")
		writeDomainError(w, r, domain.StorageFailure("issue token", err))
		return
	}

	h.observe("success", "")
	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:   token,
		Account: dto.AccountFromDomain(account),
	})
}

func (h *AuthHandler) observe(status, reason string) {
	if h.metrics == nil {
		return
	}
	h.metrics.AuthAttempts.WithLabelValues(status).Inc()
	if reason != "" {
		h.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
}
