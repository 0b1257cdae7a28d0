// Package api implements the storefront REST API using chi.
package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/auth"
)

// RequireAuth rejects requests without a live admin session.
func RequireAuth(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := gate.FromRequest(r); !ok {
				writeError(w, r, apperr.New(apperr.ErrUnauthorized, apperr.CodeUnauthorized, "Authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuditLog records one entry per request on data routes.
func AuditLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info("data operation",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("ip", clientIP(r)),
				slog.String("user_agent", r.UserAgent()),
			)
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already replaced it with the forwarded address when one is present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
