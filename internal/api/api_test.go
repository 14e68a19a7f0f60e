package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/quizforge/backend/internal/api"
	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/mastery"
	"github.com/quizforge/backend/internal/service"
	"github.com/quizforge/backend/internal/source"
	"github.com/quizforge/backend/internal/store"
)

type client struct {
	t      *testing.T
	server *httptest.Server
	http   *http.Client
	db     *store.SQLiteStore
}

func newClient(t *testing.T) *client {
	t.Helper()
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := source.NewFallback("")
	chain := source.NewChain(source.NewStoreSource(db), fallback, logger)
	quiz := service.NewQuizService(db, chain, service.MasteryBackendFunc(db.MasteryPersistence), logger, time.Hour)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.NewHandler(db, quiz, fallback, logger))
	server := httptest.NewServer(api.Logging(logger)(api.CORS("*")(api.Learner(mux))))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &client{t: t, server: server, http: &http.Client{Jar: jar}, db: db}
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	if err != nil {
		c.t.Fatalf("failed to build request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *client) expect(resp *http.Response, status int, out any) {
	c.t.Helper()
	if resp.StatusCode != status {
		data, _ := io.ReadAll(resp.Body)
		c.t.Fatalf("%s %s: expected status %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, status, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("failed to decode response: %v", err)
		}
	}
}

func TestLearnerCookie(t *testing.T) {
	c := newClient(t)

	resp := c.do(http.MethodGet, "/levels", nil)
	c.expect(resp, http.StatusOK, nil)

	var found *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == api.LearnerCookie {
			found = ck
		}
	}
	if found == nil || len(found.Value) != 16 {
		t.Fatalf("expected a learner cookie, got %v", resp.Cookies())
	}

	again := c.do(http.MethodGet, "/levels", nil)
	c.expect(again, http.StatusOK, nil)
	if len(again.Cookies()) != 0 {
		t.Errorf("expected the cookie to be reused, got %v", again.Cookies())
	}
}

func TestLearnerCookie_ReplacesMalformedValue(t *testing.T) {
	c := newClient(t)

	req, err := http.NewRequest(http.MethodGet, c.server.URL+"/levels", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: api.LearnerCookie, Value: "../../etc"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var issued string
	for _, ck := range resp.Cookies() {
		if ck.Name == api.LearnerCookie {
			issued = ck.Value
		}
	}
	if issued == "" || issued == "../../etc" {
		t.Errorf("expected a fresh learner id, got %q", issued)
	}
}

func TestCORSPreflight(t *testing.T) {
	c := newClient(t)

	resp := c.do(http.MethodOptions, "/categories", nil)
	c.expect(resp, http.StatusNoContent, nil)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected %q, got %q", "*", got)
	}
}

func TestCategories_CRUD(t *testing.T) {
	c := newClient(t)

	var created api.CategoryResponse
	c.expect(c.do(http.MethodPost, "/categories", map[string]any{
		"name": "Go Lang", "display_name": "Go", "level": "Avancé",
	}), http.StatusCreated, &created)
	if created.Name != "go-lang" || created.Level != "Avancé" || !created.Active {
		t.Errorf("unexpected category: %+v", created.Category)
	}

	c.expect(c.do(http.MethodPost, "/categories", map[string]any{
		"name": "go-lang", "display_name": "Again",
	}), http.StatusConflict, nil)
	c.expect(c.do(http.MethodPost, "/categories", map[string]any{
		"name": "x", "display_name": "X", "color": "red",
	}), http.StatusBadRequest, nil)
	c.expect(c.do(http.MethodPost, "/categories", map[string]any{"name": "x"}), http.StatusBadRequest, nil)

	var updated api.CategoryResponse
	c.expect(c.do(http.MethodPut, "/categories/go-lang", map[string]any{
		"display_name": "Golang", "level": "Expert", "is_active": false,
	}), http.StatusOK, &updated)
	if updated.DisplayName != "Golang" || updated.Active || updated.Color != "#3b82f6" {
		t.Errorf("unexpected update: %+v", updated.Category)
	}

	var active []api.CategoryResponse
	c.expect(c.do(http.MethodGet, "/categories?active=true", nil), http.StatusOK, &active)
	if len(active) != 0 {
		t.Errorf("expected no active category, got %d", len(active))
	}

	c.expect(c.do(http.MethodDelete, "/categories/go-lang", nil), http.StatusNoContent, nil)
	c.expect(c.do(http.MethodGet, "/categories/go-lang", nil), http.StatusNotFound, nil)
}

func TestQuestions_Lifecycle(t *testing.T) {
	c := newClient(t)
	c.expect(c.do(http.MethodPost, "/categories", map[string]any{"name": "rx", "display_name": "RxJS"}), http.StatusCreated, nil)

	var invalid api.ErrorResponse
	c.expect(c.do(http.MethodPost, "/categories/rx/questions", map[string]any{
		"title": "Pick", "kind": "single", "options": []string{"a", "b"}, "answers": []string{"c"},
	}), http.StatusBadRequest, &invalid)
	if len(invalid.Issues) == 0 {
		t.Errorf("expected field issues, got %+v", invalid)
	}

	var q question.Question
	c.expect(c.do(http.MethodPost, "/categories/rx/questions", map[string]any{
		"id": "rx-1", "title": "Annulation", "kind": "qcm",
		"options": []string{"switchMap", "mergeMap"}, "answers": []string{"switchMap"},
	}), http.StatusCreated, &q)
	if q.ID != "rx-1" || q.Kind != question.KindSingle {
		t.Errorf("unexpected question: %+v", q)
	}
	c.expect(c.do(http.MethodPost, "/categories/missing/questions", map[string]any{
		"title": "t", "kind": "text", "answers": []string{"a"},
	}), http.StatusNotFound, nil)

	c.expect(c.do(http.MethodPut, "/questions/rx/rx-1", map[string]any{
		"title": "Annulation", "kind": "text", "options": []string{"ignored"}, "answers": []string{"switchMap"},
	}), http.StatusOK, &q)
	if q.Kind != question.KindText || len(q.Options) != 0 {
		t.Errorf("expected a text question without options, got %+v", q)
	}

	c.expect(c.do(http.MethodDelete, "/questions/rx/rx-1", nil), http.StatusNoContent, nil)

	var list []question.Question
	c.expect(c.do(http.MethodGet, "/categories/rx/questions", nil), http.StatusOK, &list)
	if len(list) != 0 {
		t.Errorf("expected deleted question hidden, got %d", len(list))
	}
	var trash []question.Question
	c.expect(c.do(http.MethodGet, "/trash?category=rx", nil), http.StatusOK, &trash)
	if len(trash) != 1 {
		t.Errorf("expected 1 question in the trash, got %d", len(trash))
	}

	c.expect(c.do(http.MethodPost, "/questions/rx/rx-1/restore", nil), http.StatusNoContent, nil)
	c.expect(c.do(http.MethodDelete, "/questions/rx/rx-1/permanent", nil), http.StatusNoContent, nil)
	c.expect(c.do(http.MethodGet, "/questions/rx/rx-1", nil), http.StatusNotFound, nil)
}

func TestImportQuestions(t *testing.T) {
	c := newClient(t)
	c.expect(c.do(http.MethodPost, "/categories", map[string]any{"name": "db", "display_name": "DB"}), http.StatusCreated, nil)

	var result service.ImportResult
	c.expect(c.do(http.MethodPost, "/categories/db/import", []map[string]any{
		{"id": "a", "titre": "SGBD", "reponse": "DDL", "type": "input"},
		{"id": "b", "titre": "", "reponse": "x"},
		{"id": "c", "title": "ACID", "options": []string{"ACID", "BASE"}, "correct_answer": "ACID"},
	}), http.StatusOK, &result)
	if result.Imported != 2 || result.Failed != 1 || result.Errors[0].ID != "b" {
		t.Errorf("unexpected result: %+v", result)
	}

	c.expect(c.do(http.MethodPost, "/categories/none/import", []map[string]any{{"id": "a", "title": "t", "reponse": "x"}}), http.StatusNotFound, nil)
	c.expect(c.do(http.MethodPost, "/categories/db/import", []map[string]any{}), http.StatusBadRequest, nil)
}

func TestSession_FullRound(t *testing.T) {
	c := newClient(t)
	c.expect(c.do(http.MethodPost, "/categories", map[string]any{"name": "go", "display_name": "Go"}), http.StatusCreated, nil)
	c.expect(c.do(http.MethodPost, "/categories/go/questions", map[string]any{
		"id": "k", "title": "Keyword", "kind": "single", "options": []string{"go", "defer"}, "answers": []string{"defer"},
	}), http.StatusCreated, nil)
	c.expect(c.do(http.MethodPost, "/categories/go/questions", map[string]any{
		"id": "m", "title": "Multi", "kind": "multi", "answers": []string{"chan", "select"},
	}), http.StatusCreated, nil)

	var sess api.SessionResponse
	c.expect(c.do(http.MethodPost, "/sessions", map[string]any{"topic": "go"}), http.StatusCreated, &sess)
	if len(sess.Questions) != 2 || sess.Summary.Total != 2 {
		t.Fatalf("unexpected session: %+v", sess)
	}

	base := "/sessions/" + sess.ID + "/questions/"

	var sq api.SessionQuestion
	c.expect(c.do(http.MethodPut, base+"k/selection", map[string]any{"answer": "defer"}), http.StatusOK, &sq)
	if !sq.SubmitEnabled || sq.Selection != "defer" {
		t.Errorf("expected submit enabled, got %+v", sq)
	}

	var fb struct {
		Correct bool `json:"correct"`
		Count   int  `json:"count"`
	}
	c.expect(c.do(http.MethodPost, base+"k/validate", nil), http.StatusOK, &fb)
	if !fb.Correct || fb.Count != 1 {
		t.Errorf("expected correct with count 1, got %+v", fb)
	}
	c.expect(c.do(http.MethodPost, base+"k/validate", nil), http.StatusConflict, nil)
	c.expect(c.do(http.MethodPut, base+"k/selection", map[string]any{"answer": "go"}), http.StatusConflict, nil)

	c.expect(c.do(http.MethodPost, base+"m/validate", map[string]any{"answer": "   "}), http.StatusBadRequest, nil)
	c.expect(c.do(http.MethodPost, base+"m/validate", map[string]any{"answer": "select, chan"}), http.StatusOK, &fb)
	if !fb.Correct {
		t.Errorf("expected order-independent multi answer to be correct")
	}
	c.expect(c.do(http.MethodPost, base+"nope/validate", map[string]any{"answer": "x"}), http.StatusNotFound, nil)

	var mr api.MasteryResponse
	c.expect(c.do(http.MethodGet, "/mastery/go", nil), http.StatusOK, &mr)
	if mr.Counts["k"] != 1 || mr.Counts["m"] != 1 || mr.Threshold != mastery.Threshold {
		t.Errorf("unexpected mastery: %+v", mr)
	}

	c.expect(c.do(http.MethodGet, "/sessions/"+sess.ID, nil), http.StatusOK, &sess)
	if sess.Summary.Answered != 2 || sess.Summary.Correct != 2 {
		t.Errorf("unexpected summary: %+v", sess.Summary)
	}

	c.expect(c.do(http.MethodDelete, "/sessions/"+sess.ID, nil), http.StatusNoContent, nil)
	c.expect(c.do(http.MethodGet, "/sessions/"+sess.ID, nil), http.StatusNotFound, nil)

	c.expect(c.do(http.MethodDelete, "/mastery/go/k", nil), http.StatusNoContent, nil)
	c.expect(c.do(http.MethodDelete, "/mastery/go", nil), http.StatusNoContent, nil)
	mr = api.MasteryResponse{}
	c.expect(c.do(http.MethodGet, "/mastery/go", nil), http.StatusOK, &mr)
	if len(mr.Counts) != 0 {
		t.Errorf("expected counters cleared, got %v", mr.Counts)
	}
}

func TestSession_HidesAnswersAndRejectsUnknownTopic(t *testing.T) {
	c := newClient(t)

	resp := c.do(http.MethodPost, "/sessions", map[string]any{"topic": "angular", "max_questions": 2})
	var raw map[string]any
	c.expect(resp, http.StatusCreated, &raw)
	questions := raw["questions"].([]any)
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if _, ok := questions[0].(map[string]any)["answers"]; ok {
		t.Error("expected answers to stay hidden")
	}

	c.expect(c.do(http.MethodPost, "/sessions", map[string]any{"topic": "unknown"}), http.StatusNotFound, nil)
	c.expect(c.do(http.MethodPost, "/sessions", map[string]any{"topic": " "}), http.StatusBadRequest, nil)
}

func TestTopicsAndStats(t *testing.T) {
	c := newClient(t)
	c.expect(c.do(http.MethodPost, "/categories", map[string]any{"name": "go", "display_name": "Go"}), http.StatusCreated, nil)
	c.expect(c.do(http.MethodPost, "/categories/go/questions", map[string]any{
		"title": "Loop", "kind": "text", "answers": []string{"for"},
	}), http.StatusCreated, nil)

	var topics []service.TopicSummary
	c.expect(c.do(http.MethodGet, "/topics", nil), http.StatusOK, &topics)
	names := map[string]bool{}
	for _, tp := range topics {
		names[tp.Name] = true
	}
	if !names["go"] || !names["angular"] || !names["promise"] {
		t.Errorf("expected stored and bundled topics, got %+v", topics)
	}

	var global store.GlobalStats
	c.expect(c.do(http.MethodGet, "/stats", nil), http.StatusOK, &global)
	if global.Questions != 1 || global.ActiveCategories != 1 {
		t.Errorf("unexpected global stats: %+v", global)
	}

	var report service.TopicReport
	c.expect(c.do(http.MethodGet, "/categories/go/stats", nil), http.StatusOK, &report)
	if report.Total != 1 || report.Remaining != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	c.expect(c.do(http.MethodGet, "/topics/promise/report", nil), http.StatusOK, &report)
	if report.Total == 0 {
		t.Errorf("expected bundled topic report, got %+v", report)
	}

	var overview []store.TopicStats
	c.expect(c.do(http.MethodGet, "/stats/categories", nil), http.StatusOK, &overview)
	if len(overview) != 1 || overview[0].Text != 1 {
		t.Errorf("unexpected overview: %+v", overview)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newClient(t)
	src.expect(src.do(http.MethodPost, "/categories", map[string]any{"name": "go", "display_name": "Go", "level": "Expert"}), http.StatusCreated, nil)
	src.expect(src.do(http.MethodPost, "/categories/go/questions", map[string]any{
		"id": "a", "title": "Loop", "kind": "text", "answers": []string{"for"},
	}), http.StatusCreated, nil)
	src.expect(src.do(http.MethodPost, "/categories/go/questions", map[string]any{
		"id": "b", "title": "Gone", "kind": "text", "answers": []string{"x"},
	}), http.StatusCreated, nil)
	src.expect(src.do(http.MethodDelete, "/questions/go/b", nil), http.StatusNoContent, nil)

	var export api.ExportData
	src.expect(src.do(http.MethodGet, "/export", nil), http.StatusOK, &export)
	if len(export.Categories) != 1 || len(export.Categories[0].Questions) != 2 {
		t.Fatalf("unexpected export: %+v", export)
	}

	dst := newClient(t)
	var summary api.ImportSummary
	dst.expect(dst.do(http.MethodPost, "/import", export), http.StatusOK, &summary)
	if summary.CategoriesCreated != 1 || summary.QuestionsImported != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	var trash []question.Question
	dst.expect(dst.do(http.MethodGet, "/trash", nil), http.StatusOK, &trash)
	if len(trash) != 1 || trash[0].ID != "b" {
		t.Errorf("expected the deleted question back in the trash, got %+v", trash)
	}
}
