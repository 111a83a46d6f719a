package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vocabuddy/internal/apperr"
	"vocabuddy/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "user_id"

// UserIDHeader carries the caller identity set by the upstream gateway
const UserIDHeader = "X-User-ID"

// Codes only the HTTP layer produces
const (
	codeUnauthorized apperr.Code = "UNAUTHORIZED"
	codeRateLimited  apperr.Code = "RATE_LIMITED"
)

// RequireUser rejects requests without a caller identity
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			respondWithError(w, http.StatusUnauthorized, codeUnauthorized, "missing "+UserIDHeader+" header", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext retrieves the caller identity from the request context
func GetUserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDContextKey).(string)
	return userID
}

// RateLimit throttles each client IP with limiter
func RateLimit(limiter *security.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(limiter.ClientKey(r)) {
				w.Header().Set("Retry-After", "1")
				respondWithError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests", "", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request with its status and duration
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		})
	}
}
