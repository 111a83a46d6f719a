package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"vocabuddy/internal/apperr"
	"vocabuddy/internal/models"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// SessionService is the practice session surface the handlers drive
type SessionService interface {
	StartSession(ctx context.Context, userID string, sessionType models.SessionType, settings models.SessionSettings) (*models.PracticeSession, error)
	GetSession(ctx context.Context, userID, sessionID string) (*models.PracticeSession, error)
	ListSessions(ctx context.Context, userID string) ([]*models.PracticeSession, error)
	UpdateSession(ctx context.Context, userID, sessionID string, update models.SessionUpdate) (*models.PracticeSession, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
	RecordWordPerformance(ctx context.Context, userID, sessionID string, perf models.WordPerformance) (*models.PracticeSession, error)
}

// WordSelector is direct access to candidate word selection
type WordSelector interface {
	SelectWords(ctx context.Context, req models.SelectionRequest) (models.SelectionResult, error)
}

// PracticeHandler handles practice HTTP requests
type PracticeHandler struct {
	sessions SessionService
	selector WordSelector
}

// NewPracticeHandler creates a new practice handler
func NewPracticeHandler(sessions SessionService, selector WordSelector) *PracticeHandler {
	return &PracticeHandler{
		sessions: sessions,
		selector: selector,
	}
}

type startSessionRequest struct {
	SessionType models.SessionType     `json:"sessionType"`
	Settings    models.SessionSettings `json:"settings"`
}

type recordPerformanceRequest struct {
	Performance models.Performance `json:"performance"`
	TimeSpent   int                `json:"timeSpent"`
	Attempts    int                `json:"attempts"`
	Metadata    map[string]any     `json:"metadata"`
}

type selectWordsRequest struct {
	Count            int                      `json:"count"`
	Strategy         models.SelectionStrategy `json:"strategy"`
	RandomPercentage *int                     `json:"randomPercentage"`
	Filter           models.SelectionFilter   `json:"filter"`
	UseCache         *bool                    `json:"useCache"`
}

type listSessionsResponse struct {
	Sessions []*models.PracticeSession `json:"sessions"`
}

// StartSession handles POST /api/practice/sessions
func (h *PracticeHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.sessions.StartSession(r.Context(), GetUserIDFromContext(r.Context()), req.SessionType, req.Settings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// ListSessions handles GET /api/practice/sessions
func (h *PracticeHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessions(r.Context(), GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*models.PracticeSession{}
	}
	respondJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

// GetSession handles GET /api/practice/sessions/{id}
func (h *PracticeHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), GetUserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// UpdateSession handles PATCH /api/practice/sessions/{id}
func (h *PracticeHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var update models.SessionUpdate
	if !decodeBody(w, r, &update) {
		return
	}

	session, err := h.sessions.UpdateSession(r.Context(), GetUserIDFromContext(r.Context()), r.PathValue("id"), update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /api/practice/sessions/{id}
func (h *PracticeHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), GetUserIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordWordPerformance handles POST /api/practice/sessions/{id}/words/{wordId}
func (h *PracticeHandler) RecordWordPerformance(w http.ResponseWriter, r *http.Request) {
	var req recordPerformanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	perf := models.WordPerformance{
		WordID:      r.PathValue("wordId"),
		Performance: req.Performance,
		TimeSpent:   req.TimeSpent,
		Attempts:    req.Attempts,
		Metadata:    req.Metadata,
	}
	session, err := h.sessions.RecordWordPerformance(r.Context(), GetUserIDFromContext(r.Context()), r.PathValue("id"), perf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// SelectWords handles POST /api/words/selection
func (h *PracticeHandler) SelectWords(w http.ResponseWriter, r *http.Request) {
	var req selectWordsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sel := models.SelectionRequest{
		UserID:           GetUserIDFromContext(r.Context()),
		Count:            req.Count,
		Strategy:         req.Strategy,
		RandomPercentage: models.DefaultRandomPercentage,
		Filter:           req.Filter,
		UseCache:         true,
	}
	if req.RandomPercentage != nil {
		sel.RandomPercentage = *req.RandomPercentage
	}
	if req.UseCache != nil {
		sel.UseCache = *req.UseCache
	}

	result, err := h.selector.SelectWords(r.Context(), sel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Healthz handles GET /healthz
func Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, apperr.InvalidRequest("invalid request body: %v", err))
		return false
	}
	return true
}
