package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/quizforge/backend/internal/domain/category"
	"github.com/quizforge/backend/internal/source"
	"github.com/quizforge/backend/internal/store"
)

// ── Request / Response types ────────────────────────────────────────────────

type ExportCategory struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Description string          `json:"description,omitempty"`
	Level       string          `json:"level"`
	Color       string          `json:"color"`
	Icon        string          `json:"icon,omitempty"`
	Active      bool            `json:"is_active"`
	Questions   []source.Record `json:"questions"`
}

type ExportData struct {
	Version    string           `json:"version"`
	ExportedAt string           `json:"exported_at"`
	Categories []ExportCategory `json:"categories"`
}

type ImportSummary struct {
	CategoriesCreated int `json:"categories_created"`
	QuestionsImported int `json:"questions_imported"`
	QuestionsFailed   int `json:"questions_failed"`
}

const exportVersion = "1.0"

// ── Handlers ────────────────────────────────────────────────────────────────

// exportAll dumps every category with its questions, trash included.
// @Summary      Export everything
// @Tags         Export
// @Produce      json
// @Success      200  {object}  ExportData
// @Failure      500  {object}  ErrorResponse
// @Router       /export [get]
func (h *Handler) exportAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.store.ListCategories(ctx, store.CategoryFilter{})
	if h.handleStoreError(w, err, "category") {
		return
	}

	exportData := ExportData{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Categories: make([]ExportCategory, 0, len(categories)),
	}

	for _, cat := range categories {
		questions, err := h.store.ListQuestions(ctx, cat.Name, true)
		if h.handleStoreError(w, err, "question") {
			return
		}

		exportCat := ExportCategory{
			Name:        cat.Name,
			DisplayName: cat.DisplayName,
			Description: cat.Description,
			Level:       cat.Level,
			Color:       cat.Color,
			Icon:        cat.Icon,
			Active:      cat.Active,
			Questions:   make([]source.Record, len(questions)),
		}
		for i, q := range questions {
			exportCat.Questions[i] = source.FromQuestion(q)
		}
		exportData.Categories = append(exportData.Categories, exportCat)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=quiz-export.json")
	json.NewEncoder(w).Encode(exportData)
}

// importAll restores an export. Missing categories are created; questions
// are upserted into their category.
// @Summary      Import an export
// @Tags         Export
// @Accept       json
// @Produce      json
// @Param        body  body      ExportData  true  "Export document"
// @Success      200   {object}  ImportSummary
// @Failure      400   {object}  ErrorResponse
// @Router       /import [post]
func (h *Handler) importAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var importData ExportData
	if !decodeJSON(w, r, &importData) {
		return
	}

	summary := ImportSummary{}

	for _, exported := range importData.Categories {
		cat := category.New(exported.Name, exported.DisplayName)
		cat.Description = exported.Description
		cat.Icon = exported.Icon
		cat.Active = exported.Active
		if exported.Level != "" {
			cat.Level = exported.Level
		}
		if exported.Color != "" {
			cat.Color = exported.Color
		}
		if err := cat.Validate(); err != nil {
			h.logger.Warn("skipping invalid category", "name", exported.Name, "error", err)
			continue
		}

		err := h.store.CreateCategory(ctx, cat)
		switch {
		case err == nil:
			summary.CategoriesCreated++
		case errors.Is(err, store.ErrConflict):
		default:
			h.logger.Error("failed to create category", "name", cat.Name, "error", err)
			continue
		}

		if len(exported.Questions) == 0 {
			continue
		}
		result, err := h.quiz.Import(ctx, cat.Name, exported.Questions)
		if err != nil {
			h.logger.Error("failed to import questions", "name", cat.Name, "error", err)
			summary.QuestionsFailed += len(exported.Questions)
			continue
		}
		summary.QuestionsImported += result.Imported
		summary.QuestionsFailed += result.Failed

		for _, rec := range exported.Questions {
			if !rec.Deleted {
				continue
			}
			if err := h.store.SoftDeleteQuestion(ctx, cat.Name, rec.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				h.logger.Warn("failed to restore trash state", "name", cat.Name, "question_id", rec.ID, "error", err)
			}
		}
	}

	h.logger.Info("import finished",
		"categories_created", summary.CategoriesCreated,
		"questions_imported", summary.QuestionsImported,
		"questions_failed", summary.QuestionsFailed,
	)
	respondJSON(w, http.StatusOK, summary)
}
