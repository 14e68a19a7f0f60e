package api

import (
	"net/http"

	"github.com/quizforge/backend/internal/mastery"
)

type MasteryResponse struct {
	Topic     string         `json:"topic" example:"rxjs"`
	Threshold int            `json:"threshold" example:"5"`
	Counts    map[string]int `json:"counts"`
}

// getMastery returns the current learner's counters for a topic.
// @Summary      Get mastery counters
// @Tags         Mastery
// @Produce      json
// @Param        topic  path      string  true  "Topic"
// @Success      200    {object}  MasteryResponse
// @Router       /mastery/{topic} [get]
func (h *Handler) getMastery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topic := r.PathValue("topic")
	respondJSON(w, http.StatusOK, MasteryResponse{
		Topic:     topic,
		Threshold: mastery.Threshold,
		Counts:    h.quiz.Mastery(ctx, learnerFrom(ctx), topic),
	})
}

// resetMastery clears the current learner's counters for a topic.
// @Summary      Reset mastery
// @Tags         Mastery
// @Param        topic  path  string  true  "Topic"
// @Success      204
// @Router       /mastery/{topic} [delete]
func (h *Handler) resetMastery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topic := r.PathValue("topic")
	h.quiz.ResetMastery(ctx, learnerFrom(ctx), topic)
	h.logger.Info("mastery reset", "topic", topic)
	w.WriteHeader(http.StatusNoContent)
}

// forgetQuestion drops one counter so the question shows again.
// @Summary      Forget one question
// @Tags         Mastery
// @Param        topic       path  string  true  "Topic"
// @Param        questionID  path  string  true  "Question id"
// @Success      204
// @Router       /mastery/{topic}/{questionID} [delete]
func (h *Handler) forgetQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.quiz.RemoveMastery(ctx, learnerFrom(ctx), r.PathValue("topic"), r.PathValue("questionID"))
	w.WriteHeader(http.StatusNoContent)
}
