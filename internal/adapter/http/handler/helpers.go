package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/iho/mfsledger/internal/adapter/http/dto"
	"github.com/iho/mfsledger/internal/domain"
)

// Error codes outside the engine taxonomy.
const (
	codeInvalidRequest = "invalid_request"
	codeUnauthorized   = "unauthorized"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeDomainError renders err with the status and code of its kind.
// Storage failures are logged with their cause and never shown to the caller.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)

	message := err.Error()
	if code == string(domain.KindStorageFailure) {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			AnErr("cause", domain.StorageCause(err)).
			Msg("request failed")
		message = "the request could not be completed, try again later"
	}

	writeError(w, status, code, message)
}

// mapDomainError maps domain errors to HTTP status codes and stable codes.
func mapDomainError(err error) (int, string) {
	if errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrInvalidToken) ||
		errors.Is(err, domain.ErrExpiredToken) {
		return http.StatusUnauthorized, codeUnauthorized
	}

	kind := domain.KindOf(err)
	switch kind {
	case domain.KindNotAuthorized:
		return http.StatusForbidden, string(kind)
	case domain.KindNotFound:
		return http.StatusNotFound, string(kind)
	case domain.KindInvalidState:
		return http.StatusConflict, string(kind)
	case domain.KindInvalidAmount, domain.KindBelowMinimum, domain.KindInvalidParties, domain.KindInvalidInput:
		return http.StatusBadRequest, string(kind)
	case domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity, string(kind)
	default:
		return http.StatusInternalServerError, string(domain.KindStorageFailure)
	}
}

// decodeJSON reads the request body into v and reports a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// principal returns the authenticated caller or writes a 401.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok || p.ID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return domain.Principal{}, false
	}
	return p, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
