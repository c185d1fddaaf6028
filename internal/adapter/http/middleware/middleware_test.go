package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/auth"
	"github.com/iho/mfsledger/internal/infrastructure/metrics"
)

func TestAuthMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate(&domain.Account{ID: "agent-1", Role: domain.RoleAgent})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var got domain.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = domain.PrincipalFromContext(r.Context())
	})
	handler := AuthMiddleware(jwtManager)(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = domain.Principal{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
			if tt.want == http.StatusOK {
				if got.ID != "agent-1" || got.Role != domain.RoleAgent || got.PINVerified {
					t.Fatalf("unexpected principal %+v", got)
				}
			}
		})
	}
}

func TestOptionalAuthContinuesWithoutToken(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)

	called := false
	handler := OptionalAuth(jwtManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := domain.PrincipalFromContext(r.Context()); ok {
			t.Fatal("no principal expected")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("expected next handler to run")
	}
}

func TestRequestMetaCarriesCallerDetails(t *testing.T) {
	var meta domain.RequestMeta
	handler := RequestMeta(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta = domain.RequestMetaFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.7"
	req.Header.Set("User-Agent", "wallet-app/2.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if meta.IPAddress != "10.0.0.7" || meta.UserAgent != "wallet-app/2.1" {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestRateLimiterBlocksAndCounts(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	rl := NewRateLimiter(1, 1).WithMetrics(m)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "1.2.3.4:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
	if got := testutil.ToFloat64(m.RateLimitHits.WithLabelValues("1.2.3.4")); got != 1 {
		t.Fatalf("expected one rate limit hit, got %v", got)
	}
}

func TestRateLimiterCleanupEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("1.1.1.1")
	now = now.Add(2 * time.Hour)
	rl.getLimiter("2.2.2.2")

	if removed := rl.CleanupLimiters(time.Hour); removed != 1 {
		t.Fatalf("expected one idle limiter removed, got %d", removed)
	}
	if _, ok := rl.clients["2.2.2.2"]; !ok {
		t.Fatal("active client must be kept")
	}
}

func TestGetIPPrefersFirstForwardedHop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := getIP(req); got != "203.0.113.9" {
		t.Fatalf("expected client hop, got %s", got)
	}
}

func TestRecoveryReturnsServerError(t *testing.T) {
	var logs bytes.Buffer
	handler := Recovery(zerolog.New(&logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(logs.String(), "panic recovered") {
		t.Fatalf("expected panic to be logged, got %s", logs.String())
	}
}

func TestLoggingMiddlewareAttachesLogger(t *testing.T) {
	var logs bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&logs))

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusAccepted)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	out := logs.String()
	if !strings.Contains(out, "inside handler") || !strings.Contains(out, `"status":202`) {
		t.Fatalf("unexpected log output %s", out)
	}
}
