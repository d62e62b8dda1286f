// Package middleware holds HTTP middleware applied ahead of the API
// handlers.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskstream/taskstream-api/internal/api/shared"
)

// userIDHeader carries the acting user's identifier. The API trusts it
// as-is; there is no authentication layer in front of it.
const userIDHeader = "X-User-ID"

// TraceMiddleware adds a trace ID to the request context. It should be
// applied early in the chain so all subsequent handlers see the ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		log := slog.With(slog.String("trace_id", shared.GetTraceID(ctx)))
		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDMiddleware records the X-User-ID header in the request context
// so handlers can attribute mutations to an actor. Absent or blank
// headers leave the request anonymous.
func UserIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if userID := strings.TrimSpace(r.Header.Get(userIDHeader)); userID != "" {
			ctx = shared.SetUserID(ctx, &userID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
