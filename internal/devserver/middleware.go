package devserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/subleasefinder/sublease-client/internal/auth"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
	"github.com/subleasefinder/sublease-client/internal/platform/metrics"
)

type contextKey string

const claimsKey contextKey = "authenticatedClaims"

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

// authenticate rejects requests without a valid "Bearer <token>" header.
func authenticate(secret []byte, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				log.Debug("authenticate: authorization header not found", "path", r.URL.Path)
				writeMessage(w, http.StatusUnauthorized, "authorization token is not provided")
				return
			}
			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("authenticate: invalid authorization header format", "path", r.URL.Path)
				writeMessage(w, http.StatusUnauthorized, "authorization token format is invalid, expected 'Bearer <token>'")
				return
			}
			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				log.Warn("authenticate: token validation failed", "path", r.URL.Path, "error", err)
				writeMessage(w, http.StatusUnauthorized, "token is invalid")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestLogger logs and counts every request by its route pattern.
func requestLogger(log *logger.Logger, m *metrics.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)
			m.ServerRequest(route, strconv.Itoa(status), duration)
			if status >= http.StatusInternalServerError {
				log.Error("HTTP request failed", "method", r.Method, "route", route, "status", status, "duration", duration)
				return
			}
			log.Info("HTTP request completed", "method", r.Method, "route", route, "status", status, "duration", duration,
				"request_id", r.Header.Get("X-Request-ID"))
		})
	}
}
