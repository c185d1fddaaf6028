package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency the service needs to be ready. *pgxpool.Pool
// satisfies it directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger, e.g. a Redis client's Ping command.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	postgres Pinger
	redis    Pinger
}

// NewHealthHandler creates a new HealthHandler. Nil dependencies are
// reported as disabled, e.g. with the in-memory store or without Redis.
func NewHealthHandler(postgres, redis Pinger) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		redis:    redis,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := map[string]string{"status": "ready"}

	checks := []struct {
		name   string
		pinger Pinger
	}{
		{"postgres", h.postgres},
		{"redis", h.redis},
	}
	for _, c := range checks {
		if c.pinger == nil {
			resp[c.name] = "disabled"
			continue
		}
		if err := c.pinger.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, c.name+"_unhealthy", err.Error())
			return
		}
		resp[c.name] = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
