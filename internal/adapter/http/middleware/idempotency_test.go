package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisrepo "github.com/iho/mfsledger/internal/adapter/repository/redis"
	"github.com/iho/mfsledger/internal/domain"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	released      []string
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Release(ctx context.Context, key string) error {
	f.released = append(f.released, key)
	return nil
}

func asAlice(req *http.Request) *http.Request {
	return req.WithContext(domain.ContextWithPrincipal(req.Context(), domain.Principal{ID: "alice", Role: domain.RoleUser}))
}

// stored encodes a completed response the way the middleware stores it.
func stored(t *testing.T, req *http.Request, body string, status int, response string) []byte {
	t.Helper()

	data, err := json.Marshal(storedResponse{
		RequestHash: hashRequest(req, []byte(body)),
		Status:      status,
		Body:        []byte(response),
	})
	if err != nil {
		t.Fatalf("encode stored response: %v", err)
	}
	return data
}

func TestIdempotencyMiddleware_FailsOnStoreErrors(t *testing.T) {
	var called bool
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := asAlice(httptest.NewRequest(http.MethodPost, "/api/v1/send-money", bytes.NewBufferString(`{}`)))
	req.Header.Set(IdempotencyKeyHeader, "key-err")
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if called {
		t.Fatalf("handler should not be called when store errors")
	}

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	var updated bool
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updated = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-money", bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "key-fail")
	req = asAlice(req)
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})).ServeHTTP(rr, req)

	if updated {
		t.Fatalf("expected error responses not to be cached")
	}
	if len(store.released) != 1 || store.released[0] != "alice:key-fail" {
		t.Fatalf("expected scoped key to be released, got %v", store.released)
	}
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatal("store must not be consulted for GET")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/me", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-get")
	rr := httptest.NewRecorder()

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected next handler to be called")
	}
}

func TestIdempotencyMiddleware_ReturnsCachedResponse(t *testing.T) {
	req := asAlice(httptest.NewRequest(http.MethodPost, "/api/v1/cash-out", bytes.NewBufferString(`{}`)))
	req.Header.Set(IdempotencyKeyHeader, "key-123")

	cached := stored(t, req, `{}`, http.StatusCreated, `{"cached":true}`)
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, cached, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called when cached response exists")
	})).ServeHTTP(rr, req)

	if rr.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatalf("expected X-Idempotency-Replay header to be set")
	}

	if got := rr.Body.String(); got != `{"cached":true}` {
		t.Fatalf("unexpected cached body: %s", got)
	}

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected the original 201 to be replayed, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_RejectsDifferentRequestUnderSameKey(t *testing.T) {
	first := asAlice(httptest.NewRequest(http.MethodPost, "/api/v1/send-money", nil))
	cached := stored(t, first, `{"recipient":"01722222222","amount":"100"}`, http.StatusCreated, `{"id":"tx-1"}`)

	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, cached, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run for a reused key")
	}))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"different amount", http.MethodPost, "/api/v1/send-money", `{"recipient":"01722222222","amount":"900"}`},
		{"different recipient", http.MethodPost, "/api/v1/send-money", `{"recipient":"01799999999","amount":"100"}`},
		{"different endpoint", http.MethodPost, "/api/v1/cash-out", `{"recipient":"01722222222","amount":"100"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asAlice(httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body)))
			req.Header.Set(IdempotencyKeyHeader, "key-1")
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rr.Code)
			}
			if strings.Contains(rr.Body.String(), "tx-1") {
				t.Fatalf("stored response leaked: %s", rr.Body.String())
			}
		})
	}
}

func TestIdempotencyMiddleware_IgnoresAnonymousRequests(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			t.Fatal("store must not be consulted without a principal")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{}`))
		req.Header.Set(IdempotencyKeyHeader, "shared")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Fatalf("expected every anonymous request to reach the handler, got %d", calls)
	}
}

func TestIdempotencyMiddleware_InFlightKeyConflicts(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
			return true, []byte(processingMarker), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := asAlice(httptest.NewRequest(http.MethodPost, "/api/v1/cash-out", bytes.NewBufferString(`{}`)))
	req.Header.Set(IdempotencyKeyHeader, "key-busy")
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run while the key is held")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotencyMiddleware_RedisStoreReplaysOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mw := NewIdempotencyMiddleware(redisrepo.NewIdempotencyStore(client), time.Hour)

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if body, _ := io.ReadAll(r.Body); string(body) != `{"amount":"60"}` {
			t.Errorf("handler saw body %q", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"tx-1"}`))
	}))

	for i := 0; i < 3; i++ {
		req := asAlice(httptest.NewRequest(http.MethodPost, "/api/v1/send-money", bytes.NewBufferString(`{"amount":"60"}`)))
		req.Header.Set(IdempotencyKeyHeader, "same-key")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Body.String() != `{"id":"tx-1"}` {
			t.Fatalf("request %d: unexpected body %s", i, rr.Body.String())
		}
		if rr.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, rr.Code)
		}
	}

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotencyMiddleware_StoresSuccessfulResponse(t *testing.T) {
	var updatedBody []byte
	store := &fakeIdempotencyStore{
		updateFn: func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
			updatedBody = append([]byte(nil), response...)
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, time.Hour)

	req := asAlice(httptest.NewRequest(http.MethodPost, "/api/v1/send-money", bytes.NewBufferString(`{}`)))
	req.Header.Set(IdempotencyKeyHeader, "key-456")
	rr := httptest.NewRecorder()

	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	var saved storedResponse
	if err := json.Unmarshal(updatedBody, &saved); err != nil {
		t.Fatalf("decode stored response: %v", err)
	}
	if string(saved.Body) != `{"ok":true}` || saved.Status != http.StatusCreated || saved.RequestHash == "" {
		t.Fatalf("unexpected stored response %+v", saved)
	}
	if len(store.released) != 0 {
		t.Fatalf("successful responses must not release the key")
	}
}
