package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/mfsledger/internal/domain"
)

// RequestMeta records caller details for the audit trail. It must run after
// chi's RequestID and RealIP middleware.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := domain.ContextWithRequestMeta(r.Context(), domain.RequestMeta{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
			RequestID: chimiddleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
