package api

import (
	"net/http"

	"github.com/quizforge/backend/internal/domain/level"
)

const overviewWorkers = 4

// listLevels returns the difficulty levels in display order.
// @Summary      List levels
// @Tags         Catalogue
// @Produce      json
// @Success      200  {array}  level.Level
// @Router       /levels [get]
func (h *Handler) listLevels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, level.All())
}

// listTopics returns every topic a quiz can be started on.
// @Summary      List quiz topics
// @Description  Active categories first merged with the bundled topics the database does not override.
// @Tags         Catalogue
// @Produce      json
// @Success      200  {array}   service.TopicSummary
// @Failure      500  {object}  ErrorResponse
// @Router       /topics [get]
func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.quiz.Topics(r.Context(), h.fallback)
	if h.handleStoreError(w, err, "topic") {
		return
	}
	respondJSON(w, http.StatusOK, topics)
}

// getTopicReport returns the statistics of any topic for the current
// learner, bundled topics included.
// @Summary      Topic report
// @Tags         Catalogue
// @Produce      json
// @Param        topic  path      string  true  "Topic"
// @Success      200    {object}  service.TopicReport
// @Failure      404    {object}  ErrorResponse
// @Router       /topics/{topic}/report [get]
func (h *Handler) getTopicReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.quiz.TopicReport(ctx, learnerFrom(ctx), r.PathValue("topic"))
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// getStats returns the global statistics of the question base.
// @Summary      Global statistics
// @Tags         Stats
// @Produce      json
// @Success      200  {object}  store.GlobalStats
// @Failure      500  {object}  ErrorResponse
// @Router       /stats [get]
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GlobalStats(r.Context())
	if h.handleStoreError(w, err, "stats") {
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// getStatsOverview returns the detailed statistics of every category.
// @Summary      Per-category statistics
// @Tags         Stats
// @Produce      json
// @Success      200  {array}   store.TopicStats
// @Failure      500  {object}  ErrorResponse
// @Router       /stats/categories [get]
func (h *Handler) getStatsOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.quiz.Overview(r.Context(), overviewWorkers)
	if h.handleStoreError(w, err, "stats") {
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
