package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/quizforge/backend/internal/domain/category"
	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/domain/quizsession"
	"github.com/quizforge/backend/internal/mastery"
	"github.com/quizforge/backend/internal/service"
	"github.com/quizforge/backend/internal/source"
	"github.com/quizforge/backend/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	db  *store.SQLiteStore
	svc *service.QuizService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	chain := source.NewChain(source.NewStoreSource(db), source.NewFallback(""), discardLogger())
	svc := service.NewQuizService(db, chain, service.MasteryBackendFunc(db.MasteryPersistence), discardLogger(), time.Hour)
	return &fixture{db: db, svc: svc}
}

func (f *fixture) seed(t *testing.T, topic string, qs ...question.Question) {
	t.Helper()
	ctx := context.Background()
	if err := f.db.CreateCategory(ctx, category.New(topic, topic)); err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	for i := range qs {
		q := qs[i]
		q.Topic = topic
		if err := f.db.CreateQuestion(ctx, &q); err != nil {
			t.Fatalf("failed to create question %s: %v", q.ID, err)
		}
	}
}

func textQ(id, answer string) question.Question {
	return question.Question{ID: id, Title: "Q " + id, Kind: question.KindText, Options: []string{}, Answers: []string{answer}}
}

func ordered() quizsession.Config {
	return quizsession.Config{}
}

func TestStartSession_FromStore(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "go", textQ("a", "goroutine"), textQ("b", "channel"))

	sess, err := f.svc.StartSession(context.Background(), "learner", "go", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Len() != 2 {
		t.Errorf("expected 2 questions, got %d", sess.Len())
	}

	got, err := f.svc.Session("learner", sess.ID)
	if err != nil || got != sess {
		t.Errorf("expected the same session back, got %v (%v)", got, err)
	}
}

func TestStartSession_FallsBackToBundledTopic(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.StartSession(context.Background(), "learner", "db", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Len() == 0 {
		t.Error("expected bundled questions")
	}
}

func TestStartSession_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.StartSession(ctx, "learner", "", ordered()); !errors.Is(err, quizsession.ErrNoTopic) {
		t.Errorf("expected ErrNoTopic, got %v", err)
	}
	if _, err := f.svc.StartSession(ctx, "learner", "nope", ordered()); !errors.Is(err, source.ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}
}

func TestSession_OwnedByLearner(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "go", textQ("a", "goroutine"))

	sess, err := f.svc.StartSession(context.Background(), "alice", "go", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Session("bob", sess.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := f.svc.EndSession("bob", sess.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := f.svc.EndSession("alice", sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Session("alice", sess.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected ended session to be gone, got %v", err)
	}
}

func TestValidate_PersistsMasteryAcrossSessions(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "go", textQ("a", "goroutine"), textQ("b", "channel"))
	ctx := context.Background()

	for i := 1; i <= mastery.Threshold; i++ {
		sess, err := f.svc.StartSession(ctx, "learner", "go", ordered())
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", i, err)
		}
		answer := "  GOROUTINE "
		fb, err := f.svc.Validate(ctx, "learner", sess.ID, "a", &answer)
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", i, err)
		}
		if !fb.Correct || fb.Count != i {
			t.Errorf("round %d: expected correct with count %d, got %+v", i, i, fb)
		}
	}

	sess, err := f.svc.StartSession(ctx, "learner", "go", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Len() != 1 || sess.Summary().Hidden != 1 {
		t.Errorf("expected mastered question hidden, got len=%d summary=%+v", sess.Len(), sess.Summary())
	}

	other, err := f.svc.StartSession(ctx, "someone-else", "go", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Len() != 2 {
		t.Errorf("expected counters to be per learner, got %d questions", other.Len())
	}
}

func TestValidate_UsesRecordedSelection(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "go", question.Question{
		ID: "k", Title: "Keyword", Kind: question.KindSingle,
		Options: []string{"go", "defer"}, Answers: []string{"defer"},
	})
	ctx := context.Background()

	sess, err := f.svc.StartSession(ctx, "learner", "go", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.Select("learner", sess.ID, "k", "defer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fb, err := f.svc.Validate(ctx, "learner", sess.ID, "k", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fb.Correct {
		t.Errorf("expected correct feedback, got %+v", fb)
	}
	if _, err := f.svc.Validate(ctx, "learner", sess.ID, "k", nil); !errors.Is(err, quizsession.ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestMastery_ResetAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.db.MasteryPersistence("learner")
	if err := p.Put(ctx, "go", map[string]int{"a": 2, "b": 5}); err != nil {
		t.Fatalf("failed to seed mastery: %v", err)
	}

	f.svc.RemoveMastery(ctx, "learner", "go", "b")
	if got := f.svc.Mastery(ctx, "learner", "go"); len(got) != 1 || got["a"] != 2 {
		t.Errorf("expected only a=2, got %v", got)
	}

	f.svc.ResetMastery(ctx, "learner", "go")
	if got := f.svc.Mastery(ctx, "learner", "go"); len(got) != 0 {
		t.Errorf("expected empty counters, got %v", got)
	}
}

func TestCleanupExpired(t *testing.T) {
	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := service.NewQuizService(db, source.NewFallback(""), service.NewMemoryMastery(), discardLogger(), time.Hour)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	service.SetClock(svc, func() time.Time { return now })

	sess, err := svc.StartSession(context.Background(), "learner", "db", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(30 * time.Minute)
	if n := svc.CleanupExpired(); n != 0 {
		t.Errorf("expected nothing removed, got %d", n)
	}
	if _, err := svc.Session("learner", sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(61 * time.Minute)
	if n := svc.CleanupExpired(); n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
}

func answer(t *testing.T, svc *service.QuizService, sessionID, questionID, raw string) {
	t.Helper()
	fb, err := svc.Validate(context.Background(), "learner", sessionID, questionID, &raw)
	if err != nil {
		t.Fatalf("validate %s: unexpected error: %v", questionID, err)
	}
	if !fb.Correct {
		t.Fatalf("validate %s: expected correct feedback, got %+v", questionID, fb)
	}
}

func TestMastery_ResetDuringSessionSticks(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "go", textQ("a", "goroutine"), textQ("b", "channel"))
	ctx := context.Background()

	sess, err := f.svc.StartSession(ctx, "learner", "go", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	answer(t, f.svc, sess.ID, "a", "goroutine")

	f.svc.ResetMastery(ctx, "learner", "go")
	answer(t, f.svc, sess.ID, "b", "channel")

	persisted, err := f.db.MasteryPersistence("learner").Get(ctx, "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persisted["a"] != 0 || persisted["b"] != 1 {
		t.Errorf("expected only b=1 after the reset, got %v", persisted)
	}
	if got := f.svc.Mastery(ctx, "learner", "go"); got["a"] != 0 || got["b"] != 1 {
		t.Errorf("expected only b=1 after the reset, got %v", got)
	}
}

func TestMastery_ConcurrentSessionsShareCounters(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "go", textQ("a", "goroutine"), textQ("b", "channel"))
	ctx := context.Background()

	first, err := f.svc.StartSession(ctx, "learner", "go", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.StartSession(ctx, "learner", "go", ordered())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	answer(t, f.svc, first.ID, "a", "goroutine")
	answer(t, f.svc, second.ID, "b", "channel")
	answer(t, f.svc, second.ID, "a", "goroutine")

	persisted, err := f.db.MasteryPersistence("learner").Get(ctx, "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persisted["a"] != 2 || persisted["b"] != 1 {
		t.Errorf("expected a=2 b=1, got %v", persisted)
	}
}

func TestCleanupExpired_ReleasesIdleMastery(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "go", textQ("a", "goroutine"))
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	service.SetClock(f.svc, func() time.Time { return now })

	if got := f.svc.Mastery(ctx, "learner", "go"); len(got) != 0 {
		t.Fatalf("expected empty counters, got %v", got)
	}

	// Written behind the service's back; only visible once the cached store
	// is released.
	if err := f.db.MasteryPersistence("learner").Put(ctx, "go", map[string]int{"a": 3}); err != nil {
		t.Fatalf("failed to seed mastery: %v", err)
	}
	if got := f.svc.Mastery(ctx, "learner", "go"); got["a"] != 0 {
		t.Errorf("expected the cached counters, got %v", got)
	}

	now = now.Add(2 * time.Hour)
	f.svc.CleanupExpired()
	if got := f.svc.Mastery(ctx, "learner", "go"); got["a"] != 3 {
		t.Errorf("expected reloaded counters, got %v", got)
	}
}
