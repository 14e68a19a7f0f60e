package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quizforge/backend/internal/domain/quizsession"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateSessionRequest struct {
	Topic            string `json:"topic" example:"rxjs"`
	ShuffleQuestions *bool  `json:"shuffle_questions,omitempty"`
	ShuffleOptions   *bool  `json:"shuffle_options,omitempty"`
	MaxQuestions     *int   `json:"max_questions,omitempty" example:"10"`
}

func (r *CreateSessionRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return errors.New("topic is required")
	}
	if r.MaxQuestions != nil && *r.MaxQuestions < 1 {
		return errors.New("max_questions must be positive")
	}
	return nil
}

func (r *CreateSessionRequest) config() quizsession.Config {
	cfg := quizsession.DefaultConfig()
	if r.ShuffleQuestions != nil {
		cfg.ShuffleQuestions = *r.ShuffleQuestions
	}
	if r.ShuffleOptions != nil {
		cfg.ShuffleOptions = *r.ShuffleOptions
	}
	cfg.MaxQuestions = r.MaxQuestions
	return cfg
}

// SessionQuestion is a question as shown to the learner: the answers stay
// hidden until the question is validated.
type SessionQuestion struct {
	ID            string                `json:"id" example:"rx-1"`
	Title         string                `json:"title"`
	Code          string                `json:"code,omitempty"`
	Kind          string                `json:"kind" example:"single"`
	Options       []string              `json:"options"`
	State         quizsession.State     `json:"state" example:"unanswered"`
	Selection     string                `json:"selection"`
	SubmitEnabled bool                  `json:"submit_enabled"`
	Feedback      *quizsession.Feedback `json:"feedback,omitempty"`
}

type SessionResponse struct {
	ID        string              `json:"id"`
	Topic     string              `json:"topic"`
	CreatedAt time.Time           `json:"created_at"`
	Questions []SessionQuestion   `json:"questions"`
	Summary   quizsession.Summary `json:"summary"`
}

type SelectionRequest struct {
	Answer string `json:"answer" example:"switchMap"`
}

// ValidateRequest carries the answer to grade. When Answer is omitted the
// recorded selection is graded.
type ValidateRequest struct {
	Answer *string `json:"answer,omitempty" example:"switchMap"`
}

func newSessionQuestion(it quizsession.Item) SessionQuestion {
	return SessionQuestion{
		ID:            it.Question.ID,
		Title:         it.Question.Title,
		Code:          it.Question.Code,
		Kind:          string(it.Question.Kind),
		Options:       it.Question.Options,
		State:         it.State,
		Selection:     it.Selection,
		SubmitEnabled: it.SubmitEnabled,
		Feedback:      it.Feedback,
	}
}

func newSessionResponse(sess *quizsession.Session) SessionResponse {
	items := sess.Items()
	questions := make([]SessionQuestion, len(items))
	for i, it := range items {
		questions[i] = newSessionQuestion(it)
	}
	return SessionResponse{
		ID:        sess.ID,
		Topic:     sess.Topic,
		CreatedAt: sess.CreatedAt,
		Questions: questions,
		Summary:   sess.Summary(),
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// createSession starts a quiz on a topic.
// @Summary      Start a quiz session
// @Description  Loads the topic from the database, or from the bundled files when the database has none, and hides questions the learner has mastered.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        body  body      CreateSessionRequest  true  "Session options"
// @Success      201   {object}  SessionResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse  "no questions for this topic"
// @Router       /sessions [post]
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sess, err := h.quiz.StartSession(ctx, learnerFrom(ctx), strings.TrimSpace(req.Topic), req.config())
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// getSession returns the state of a session.
// @Summary      Get a quiz session
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session id"
// @Success      200        {object}  SessionResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /sessions/{sessionID} [get]
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.quiz.Session(learnerFrom(r.Context()), r.PathValue("sessionID"))
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

// deleteSession ends a session. Mastery counters are kept.
// @Summary      End a quiz session
// @Tags         Sessions
// @Param        sessionID  path  string  true  "Session id"
// @Success      204
// @Failure      404        {object}  ErrorResponse
// @Router       /sessions/{sessionID} [delete]
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	err := h.quiz.EndSession(learnerFrom(r.Context()), r.PathValue("sessionID"))
	if h.handleSessionError(w, err) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selectAnswer records the current answer of a question without grading it.
// @Summary      Record a selection
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID   path      string            true  "Session id"
// @Param        questionID  path      string            true  "Question id"
// @Param        body        body      SelectionRequest  true  "Current answer"
// @Success      200         {object}  SessionQuestion
// @Failure      404         {object}  ErrorResponse
// @Failure      409         {object}  ErrorResponse  "question already submitted"
// @Router       /sessions/{sessionID}/questions/{questionID}/selection [put]
func (h *Handler) selectAnswer(w http.ResponseWriter, r *http.Request) {
	learnerID := learnerFrom(r.Context())
	sessionID, qid := r.PathValue("sessionID"), r.PathValue("questionID")

	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if h.handleSessionError(w, h.quiz.Select(learnerID, sessionID, qid, req.Answer)) {
		return
	}

	sess, err := h.quiz.Session(learnerID, sessionID)
	if h.handleSessionError(w, err) {
		return
	}
	it, err := sess.Item(qid)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, newSessionQuestion(it))
}

// validateAnswer grades a question once and updates the learner's mastery.
// @Summary      Validate an answer
// @Description  An empty body grades the recorded selection. A blank answer is rejected and the question stays open.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID   path      string           true   "Session id"
// @Param        questionID  path      string           true   "Question id"
// @Param        body        body      ValidateRequest  false  "Answer"
// @Success      200         {object}  quizsession.Feedback
// @Failure      400         {object}  ErrorResponse  "no answer given"
// @Failure      404         {object}  ErrorResponse
// @Failure      409         {object}  ErrorResponse  "question already submitted"
// @Router       /sessions/{sessionID}/questions/{questionID}/validate [post]
func (h *Handler) validateAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	feedback, err := h.quiz.Validate(ctx, learnerFrom(ctx), r.PathValue("sessionID"), r.PathValue("questionID"), req.Answer)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, feedback)
}
