package handlers

import (
	"log/slog"
	"net/http"

	"vocabuddy/internal/security"
)

// NewRouter wires the practice routes. A nil limiter disables rate limiting.
func NewRouter(h *PracticeHandler, limiter *security.RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", Healthz)

	// Practice sessions
	mux.HandleFunc("POST /api/practice/sessions", RequireUser(h.StartSession))
	mux.HandleFunc("GET /api/practice/sessions", RequireUser(h.ListSessions))
	mux.HandleFunc("GET /api/practice/sessions/{id}", RequireUser(h.GetSession))
	mux.HandleFunc("PATCH /api/practice/sessions/{id}", RequireUser(h.UpdateSession))
	mux.HandleFunc("DELETE /api/practice/sessions/{id}", RequireUser(h.DeleteSession))
	mux.HandleFunc("POST /api/practice/sessions/{id}/words/{wordId}", RequireUser(h.RecordWordPerformance))

	// Word selection
	mux.HandleFunc("POST /api/words/selection", RequireUser(h.SelectWords))

	var handler http.Handler = mux
	if limiter != nil {
		handler = RateLimit(limiter)(handler)
	}
	return Logging(logger)(handler)
}
