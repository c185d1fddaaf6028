package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"

	processingMarker = "processing"
)

// storedResponse is what a completed request leaves behind under its key.
type storedResponse struct {
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays the stored response of a repeated mutating
// request. It only acts on authenticated requests: keys are scoped to the
// principal, and a key reused with a different method, path or body is
// rejected with 422.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		p, ok := domain.PrincipalFromContext(r.Context())
		if !ok || p.ID == "" {
			next.ServeHTTP(w, r)
			return
		}
		key = p.ID + ":" + key

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		requestHash := hashRequest(r, body)

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if exists {
			replay(w, cached, requestHash)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		// The handler is done; a cancelled client must not leave the key held.
		ctx := context.WithoutCancel(r.Context())
		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			_ = m.store.Release(ctx, key)
			return
		}

		payload, err := json.Marshal(storedResponse{
			RequestHash: requestHash,
			Status:      recorder.statusCode,
			Body:        recorder.body.Bytes(),
		})
		if err != nil {
			_ = m.store.Release(ctx, key)
			return
		}
		if err := m.store.Update(ctx, key, payload, m.ttl); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("failed to store idempotent response")
		}
	})
}

func replay(w http.ResponseWriter, cached []byte, requestHash string) {
	if cached == nil || string(cached) == processingMarker {
		w.Header().Set("Retry-After", "1")
		http.Error(w, "a request with this idempotency key is in progress", http.StatusConflict)
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(cached, &stored); err != nil || stored.Status == 0 {
		http.Error(w, "stored idempotent response is unreadable", http.StatusInternalServerError)
		return
	}

	if stored.RequestHash != requestHash {
		http.Error(w, "idempotency key reused with different request", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotency-Replay", "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

// hashRequest fingerprints method, path and body so a reused key on a
// different request can be told apart from a retry.
func hashRequest(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
