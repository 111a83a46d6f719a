package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"vocabuddy/internal/apperr"
)

// retryAfterSeconds is advertised when the store is unavailable
const retryAfterSeconds = "5"

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, code apperr.Code, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		slog.Error(logMsg, "status", status, "code", code, "error", err)
	}

	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: userMsg}})
}

// writeError maps a classified error onto its HTTP status
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	msg := apperr.MessageOf(err)

	switch code {
	case apperr.CodeNotFound:
		respondWithError(w, http.StatusNotFound, code, msg, "", nil)
	case apperr.CodeInvalidRequest:
		respondWithError(w, http.StatusBadRequest, code, msg, "", nil)
	case apperr.CodeInsufficientContent:
		respondWithError(w, http.StatusUnprocessableEntity, code, msg, "", nil)
	case apperr.CodeConflict:
		respondWithError(w, http.StatusConflict, code, msg, r.Method+" "+r.URL.Path+" conflict", err)
	case apperr.CodeStoreUnavailable:
		w.Header().Set("Retry-After", retryAfterSeconds)
		respondWithError(w, http.StatusServiceUnavailable, code, msg, r.Method+" "+r.URL.Path+" store unavailable", err)
	default:
		respondWithError(w, http.StatusInternalServerError, apperr.CodeInternal, "internal error", r.Method+" "+r.URL.Path, err)
	}
}
