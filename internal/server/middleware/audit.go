package middleware

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/audit"
)

// Audit returns middleware that records an audit log entry after each
// authenticated mutating request. Recording is best-effort and never fails
// the request. Reads and anonymous requests are not audited.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			if logger == nil {
				return
			}
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return
			}
			p, ok := GetPrincipal(r.Context())
			if !ok {
				return
			}
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			ar := audit.ParseRoute(pattern)
			orgID := chi.URLParam(r, "id")
			if orgID == "" {
				orgID = chi.URLParam(r, "orgId")
			}
			logger.LogEvent(r.Context(), orgID, p.UserID, ar.Action, ar.Resource, clientIP(r), pattern)
		})
	}
}

// clientIP returns the request's client IP without the port. Assumes the
// RealIP middleware has already resolved forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
