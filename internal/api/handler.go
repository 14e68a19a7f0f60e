// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/domain/quizsession"
	"github.com/quizforge/backend/internal/service"
	"github.com/quizforge/backend/internal/source"
	"github.com/quizforge/backend/internal/store"
)

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	store    store.Store
	quiz     *service.QuizService
	fallback service.TopicLister
	logger   *slog.Logger
}

// NewHandler creates a Handler. fallback may be nil when no static topics
// are served.
func NewHandler(s store.Store, quiz *service.QuizService, fallback service.TopicLister, logger *slog.Logger) *Handler {
	return &Handler{
		store:    s,
		quiz:     quiz,
		fallback: fallback,
		logger:   logger,
	}
}

type ErrorResponse struct {
	Error  string           `json:"error"`
	Issues []question.Issue `json:"issues,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

type validator interface {
	Validate() error
}

// decodeJSON decodes the request body into v. It writes a 400 and returns
// false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v validator) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := v.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// handleStoreError checks for common store errors and writes the appropriate
// HTTP response. Returns true if an error was handled (caller should return).
func (h *Handler) handleStoreError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}

	var invalid *question.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, entity+" already exists")
	case errors.As(err, &invalid):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: invalid.Error(), Issues: invalid.Issues})
	default:
		h.logger.Error("store error", "error", err, "entity", entity)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}

// handleSessionError maps quiz errors to HTTP statuses. Returns true if an
// error was handled.
func (h *Handler) handleSessionError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, quizsession.ErrUnknownQuestion):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, source.ErrNoQuestions):
		respondError(w, http.StatusNotFound, "no questions for this topic")
	case errors.Is(err, quizsession.ErrNoTopic),
		errors.Is(err, quizsession.ErrNoAnswer):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quizsession.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, err.Error())
	default:
		h.handleStoreError(w, err, "session")
	}
	return true
}
