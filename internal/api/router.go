// internal/api/router.go
package api

import "net/http"

// RegisterRoutes sets up all API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Catalogue
	mux.HandleFunc("GET /levels", h.listLevels)
	mux.HandleFunc("GET /topics", h.listTopics)
	mux.HandleFunc("GET /topics/{topic}/report", h.getTopicReport)

	// Categories
	mux.HandleFunc("POST /categories", h.createCategory)
	mux.HandleFunc("GET /categories", h.listCategories)
	mux.HandleFunc("GET /categories/{name}", h.getCategory)
	mux.HandleFunc("PUT /categories/{name}", h.updateCategory)
	mux.HandleFunc("DELETE /categories/{name}", h.deleteCategory)
	mux.HandleFunc("GET /categories/{name}/stats", h.getCategoryStats)

	// Questions
	mux.HandleFunc("GET /categories/{name}/questions", h.listQuestions)
	mux.HandleFunc("POST /categories/{name}/questions", h.createQuestion)
	mux.HandleFunc("POST /categories/{name}/import", h.importQuestions)
	mux.HandleFunc("GET /questions/{topic}/{id}", h.getQuestion)
	mux.HandleFunc("PUT /questions/{topic}/{id}", h.updateQuestion)
	mux.HandleFunc("DELETE /questions/{topic}/{id}", h.deleteQuestion)
	mux.HandleFunc("POST /questions/{topic}/{id}/restore", h.restoreQuestion)
	mux.HandleFunc("DELETE /questions/{topic}/{id}/permanent", h.purgeQuestion)

	// Trash
	mux.HandleFunc("GET /trash", h.listTrash)
	mux.HandleFunc("DELETE /trash", h.emptyTrash)

	// Stats
	mux.HandleFunc("GET /stats", h.getStats)
	mux.HandleFunc("GET /stats/categories", h.getStatsOverview)

	// Export / Import
	mux.HandleFunc("GET /export", h.exportAll)
	mux.HandleFunc("POST /import", h.importAll)

	// Sessions
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("GET /sessions/{sessionID}", h.getSession)
	mux.HandleFunc("DELETE /sessions/{sessionID}", h.deleteSession)
	mux.HandleFunc("PUT /sessions/{sessionID}/questions/{questionID}/selection", h.selectAnswer)
	mux.HandleFunc("POST /sessions/{sessionID}/questions/{questionID}/validate", h.validateAnswer)

	// Mastery
	mux.HandleFunc("GET /mastery/{topic}", h.getMastery)
	mux.HandleFunc("DELETE /mastery/{topic}", h.resetMastery)
	mux.HandleFunc("DELETE /mastery/{topic}/{questionID}", h.forgetQuestion)
}
