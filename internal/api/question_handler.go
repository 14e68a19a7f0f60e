package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/source"
)

// ── Request / Response types ────────────────────────────────────────────────

type QuestionRequest struct {
	ID          string   `json:"id,omitempty" example:"rx-12"`
	Title       string   `json:"title" example:"Opérateur d'annulation"`
	Code        string   `json:"code,omitempty" example:"Quel opérateur annule la requête précédente ?"`
	Kind        string   `json:"kind" example:"single"`
	Options     []string `json:"options,omitempty" example:"switchMap,mergeMap,concatMap"`
	Answers     []string `json:"answers" example:"switchMap"`
	Explanation string   `json:"explanation,omitempty"`
	Example     string   `json:"example,omitempty"`
}

func (r *QuestionRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if len(r.Answers) == 0 {
		return errors.New("answers is required")
	}
	return nil
}

// apply copies the request onto q. Options are dropped for free-text
// questions.
func (r *QuestionRequest) apply(q *question.Question) error {
	kind, err := question.ParseKind(r.Kind)
	if err != nil {
		return err
	}
	q.Title = strings.TrimSpace(r.Title)
	q.Code = r.Code
	q.Kind = kind
	q.Options = trimmed(r.Options)
	q.Answers = trimmed(r.Answers)
	q.Explanation = r.Explanation
	q.Example = r.Example
	if kind == question.KindText {
		q.Options = []string{}
	}
	return nil
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listQuestions lists the questions of a category.
// @Summary      List questions
// @Tags         Questions
// @Produce      json
// @Param        name             path      string  true   "Category name"
// @Param        include_deleted  query     bool    false  "Include soft-deleted questions"
// @Success      200              {array}   question.Question
// @Failure      404              {object}  ErrorResponse
// @Router       /categories/{name}/questions [get]
func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")
	if _, err := h.store.GetCategory(ctx, name); h.handleStoreError(w, err, "category") {
		return
	}

	includeDeleted := r.URL.Query().Get("include_deleted") == "true"
	questions, err := h.store.ListQuestions(ctx, name, includeDeleted)
	if h.handleStoreError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusOK, questions)
}

// createQuestion adds a question to a category.
// @Summary      Create a question
// @Description  The id is generated when omitted. Choice answers must be among the options.
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        name  path      string           true  "Category name"
// @Param        body  body      QuestionRequest  true  "Question to create"
// @Success      201   {object}  question.Question
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse  "category not found"
// @Failure      409   {object}  ErrorResponse  "question id already used"
// @Router       /categories/{name}/questions [post]
func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.store.GetCategory(ctx, r.PathValue("name")); h.handleStoreError(w, err, "category") {
		return
	}

	var req QuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	kind, err := question.ParseKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := question.New(r.PathValue("name"), req.Title, kind)
	if id := strings.TrimSpace(req.ID); id != "" {
		q.ID = id
	}
	if err := req.apply(q); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.handleStoreError(w, q.Validate(), "question") {
		return
	}

	if h.handleStoreError(w, h.store.CreateQuestion(ctx, q), "question") {
		return
	}

	h.logger.Info("question created", "topic", q.Topic, "question_id", q.ID)
	respondJSON(w, http.StatusCreated, q)
}

// getQuestion returns one question, deleted or not.
// @Summary      Get a question
// @Tags         Questions
// @Produce      json
// @Param        topic  path      string  true  "Category name"
// @Param        id     path      string  true  "Question id"
// @Success      200    {object}  question.Question
// @Failure      404    {object}  ErrorResponse
// @Router       /questions/{topic}/{id} [get]
func (h *Handler) getQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.GetQuestion(r.Context(), r.PathValue("topic"), r.PathValue("id"))
	if h.handleStoreError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// updateQuestion replaces the content of a question.
// @Summary      Update a question
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        topic  path      string           true  "Category name"
// @Param        id     path      string           true  "Question id"
// @Param        body   body      QuestionRequest  true  "New content"
// @Success      200    {object}  question.Question
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /questions/{topic}/{id} [put]
func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := h.store.GetQuestion(ctx, r.PathValue("topic"), r.PathValue("id"))
	if h.handleStoreError(w, err, "question") {
		return
	}

	var req QuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := req.apply(q); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.handleStoreError(w, q.Validate(), "question") {
		return
	}

	if h.handleStoreError(w, h.store.UpdateQuestion(ctx, q), "question") {
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// deleteQuestion moves a question to the trash.
// @Summary      Soft-delete a question
// @Tags         Questions
// @Param        topic  path  string  true  "Category name"
// @Param        id     path  string  true  "Question id"
// @Success      204
// @Failure      404    {object}  ErrorResponse
// @Router       /questions/{topic}/{id} [delete]
func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	topic, qid := r.PathValue("topic"), r.PathValue("id")
	if h.handleStoreError(w, h.store.SoftDeleteQuestion(r.Context(), topic, qid), "question") {
		return
	}
	h.logger.Info("question moved to trash", "topic", topic, "question_id", qid)
	w.WriteHeader(http.StatusNoContent)
}

// restoreQuestion takes a question out of the trash.
// @Summary      Restore a question
// @Tags         Questions
// @Param        topic  path  string  true  "Category name"
// @Param        id     path  string  true  "Question id"
// @Success      204
// @Failure      404    {object}  ErrorResponse
// @Router       /questions/{topic}/{id}/restore [post]
func (h *Handler) restoreQuestion(w http.ResponseWriter, r *http.Request) {
	if h.handleStoreError(w, h.store.RestoreQuestion(r.Context(), r.PathValue("topic"), r.PathValue("id")), "question") {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// purgeQuestion deletes a question for good and drops the current learner's
// counter for it.
// @Summary      Permanently delete a question
// @Tags         Questions
// @Param        topic  path  string  true  "Category name"
// @Param        id     path  string  true  "Question id"
// @Success      204
// @Failure      404    {object}  ErrorResponse
// @Router       /questions/{topic}/{id}/permanent [delete]
func (h *Handler) purgeQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topic, qid := r.PathValue("topic"), r.PathValue("id")
	if h.handleStoreError(w, h.store.DeleteQuestionPermanently(ctx, topic, qid), "question") {
		return
	}
	h.quiz.RemoveMastery(ctx, learnerFrom(ctx), topic, qid)

	h.logger.Info("question deleted permanently", "topic", topic, "question_id", qid)
	w.WriteHeader(http.StatusNoContent)
}

// importQuestions bulk-imports records into a category.
// @Summary      Import questions
// @Description  Accepts a JSON array of records using either the English or the legacy French field names. Invalid records are reported, valid ones are stored.
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        name  path      string           true  "Category name"
// @Param        body  body      []source.Record  true  "Records"
// @Success      200   {object}  service.ImportResult
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /categories/{name}/import [post]
func (h *Handler) importQuestions(w http.ResponseWriter, r *http.Request) {
	var records []source.Record
	if !decodeJSON(w, r, &records) {
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusBadRequest, "no records to import")
		return
	}

	result, err := h.quiz.Import(r.Context(), r.PathValue("name"), records)
	if h.handleStoreError(w, err, "category") {
		return
	}
	respondJSON(w, http.StatusOK, result)
}
