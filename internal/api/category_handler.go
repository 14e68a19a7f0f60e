package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quizforge/backend/internal/domain/category"
	"github.com/quizforge/backend/internal/domain/level"
	"github.com/quizforge/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateCategoryRequest struct {
	Name        string `json:"name" example:"rxjs"`
	DisplayName string `json:"display_name" example:"RxJS"`
	Description string `json:"description,omitempty" example:"Observables et opérateurs"`
	Level       string `json:"level,omitempty" example:"Avancé"`
	Color       string `json:"color,omitempty" example:"#3b82f6"`
	Icon        string `json:"icon,omitempty" example:"⚡"`
	Active      *bool  `json:"is_active,omitempty"`
}

func (r *CreateCategoryRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.DisplayName) == "" {
		return errors.New("display_name is required")
	}
	return nil
}

// UpdateCategoryRequest replaces the editable fields of a category. The
// name is the key and cannot change.
type UpdateCategoryRequest struct {
	DisplayName string `json:"display_name" example:"RxJS"`
	Description string `json:"description" example:"Observables et opérateurs"`
	Level       string `json:"level" example:"Expert"`
	Color       string `json:"color" example:"#ef4444"`
	Icon        string `json:"icon" example:"⚡"`
	Active      bool   `json:"is_active"`
}

func (r *UpdateCategoryRequest) Validate() error {
	if strings.TrimSpace(r.DisplayName) == "" {
		return errors.New("display_name is required")
	}
	return nil
}

type CategoryResponse struct {
	*category.Category
	Questions int `json:"questions" example:"12"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// createCategory creates a new category.
// @Summary      Create a category
// @Description  Create a new quiz topic. The name is slugged and used as the topic key.
// @Tags         Categories
// @Accept       json
// @Produce      json
// @Param        body  body      CreateCategoryRequest  true  "Category to create"
// @Success      201   {object}  CategoryResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse  "category already exists"
// @Failure      500   {object}  ErrorResponse
// @Router       /categories [post]
func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cat := category.New(req.Name, req.DisplayName)
	cat.Description = strings.TrimSpace(req.Description)
	cat.Icon = req.Icon
	if req.Level != "" {
		cat.Level = req.Level
	}
	if req.Color != "" {
		cat.Color = req.Color
	}
	if req.Active != nil {
		cat.Active = *req.Active
	}
	if err := cat.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.handleStoreError(w, h.store.CreateCategory(r.Context(), cat), "category") {
		return
	}

	h.logger.Info("category created", "name", cat.Name)
	respondJSON(w, http.StatusCreated, CategoryResponse{Category: cat})
}

// listCategories lists categories.
// @Summary      List categories
// @Description  Returns categories ordered by name, with their question counts.
// @Tags         Categories
// @Produce      json
// @Param        active  query     bool    false  "Only active categories"
// @Param        q       query     string  false  "Search in name, display name and description"
// @Success      200     {array}   CategoryResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /categories [get]
func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := store.CategoryFilter{
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Search:     r.URL.Query().Get("q"),
	}

	categories, err := h.store.ListCategories(ctx, filter)
	if h.handleStoreError(w, err, "category") {
		return
	}
	counts, err := h.store.QuestionCounts(ctx)
	if h.handleStoreError(w, err, "category") {
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		response = append(response, CategoryResponse{Category: cat, Questions: counts[cat.Name]})
	}
	respondJSON(w, http.StatusOK, response)
}

// getCategory returns one category.
// @Summary      Get a category
// @Tags         Categories
// @Produce      json
// @Param        name  path      string  true  "Category name"
// @Success      200   {object}  CategoryResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /categories/{name} [get]
func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat, err := h.store.GetCategory(ctx, r.PathValue("name"))
	if h.handleStoreError(w, err, "category") {
		return
	}
	counts, err := h.store.QuestionCounts(ctx)
	if h.handleStoreError(w, err, "category") {
		return
	}
	respondJSON(w, http.StatusOK, CategoryResponse{Category: cat, Questions: counts[cat.Name]})
}

// updateCategory updates a category.
// @Summary      Update a category
// @Tags         Categories
// @Accept       json
// @Produce      json
// @Param        name  path      string                 true  "Category name"
// @Param        body  body      UpdateCategoryRequest  true  "New values"
// @Success      200   {object}  CategoryResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /categories/{name} [put]
func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat, err := h.store.GetCategory(ctx, r.PathValue("name"))
	if h.handleStoreError(w, err, "category") {
		return
	}

	var req UpdateCategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cat.DisplayName = strings.TrimSpace(req.DisplayName)
	cat.Description = strings.TrimSpace(req.Description)
	cat.Icon = req.Icon
	cat.Active = req.Active
	cat.Level = req.Level
	if cat.Level == "" {
		cat.Level = level.Default
	}
	cat.Color = req.Color
	if cat.Color == "" {
		cat.Color = category.DefaultColor
	}
	if err := cat.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.handleStoreError(w, h.store.UpdateCategory(ctx, cat), "category") {
		return
	}
	respondJSON(w, http.StatusOK, CategoryResponse{Category: cat})
}

// deleteCategory deletes a category with all of its questions.
// @Summary      Delete a category
// @Tags         Categories
// @Param        name  path  string  true  "Category name"
// @Success      204
// @Failure      404   {object}  ErrorResponse
// @Router       /categories/{name} [delete]
func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if h.handleStoreError(w, h.store.DeleteCategory(r.Context(), name), "category") {
		return
	}
	h.logger.Info("category deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

// getCategoryStats returns question statistics of a category for the
// current learner.
// @Summary      Category statistics
// @Description  Kind breakdown, deleted count and how many questions the current learner has mastered.
// @Tags         Categories
// @Produce      json
// @Param        name  path      string  true  "Category name"
// @Success      200   {object}  service.TopicReport
// @Failure      404   {object}  ErrorResponse
// @Router       /categories/{name}/stats [get]
func (h *Handler) getCategoryStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")
	if _, err := h.store.GetCategory(ctx, name); h.handleStoreError(w, err, "category") {
		return
	}

	report, err := h.quiz.TopicReport(ctx, learnerFrom(ctx), name)
	if h.handleSessionError(w, err) {
		return
	}
	respondJSON(w, http.StatusOK, report)
}
