package api

import (
	"net/http"
)

type EmptyTrashResponse struct {
	Deleted int64 `json:"deleted" example:"3"`
}

// listTrash lists soft-deleted questions.
// @Summary      List the trash
// @Tags         Trash
// @Produce      json
// @Param        category  query     string  false  "Only this category"
// @Success      200       {array}   question.Question
// @Router       /trash [get]
func (h *Handler) listTrash(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListTrash(r.Context(), r.URL.Query().Get("category"))
	if h.handleStoreError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusOK, questions)
}

// emptyTrash permanently deletes soft-deleted questions.
// @Summary      Empty the trash
// @Tags         Trash
// @Produce      json
// @Param        category  query     string  false  "Only this category"
// @Success      200       {object}  EmptyTrashResponse
// @Router       /trash [delete]
func (h *Handler) emptyTrash(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	n, err := h.store.EmptyTrash(r.Context(), category)
	if h.handleStoreError(w, err, "question") {
		return
	}
	h.logger.Info("trash emptied", "category", category, "deleted", n)
	respondJSON(w, http.StatusOK, EmptyTrashResponse{Deleted: n})
}
