package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/store"
)

func TestGlobalStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "rxjs")
	db := seedCategory(t, s, "db")
	db.Active = false
	s.UpdateCategory(ctx, db)

	s.CreateQuestion(ctx, &question.Question{
		ID: "r1", Topic: "rxjs", Title: "t", Kind: question.KindSingle,
		Options: []string{"a", "b"}, Answers: []string{"a"},
	})
	s.CreateQuestion(ctx, &question.Question{
		ID: "r2", Topic: "rxjs", Title: "t", Kind: question.KindMulti, Answers: []string{"a", "b"},
	})
	s.CreateQuestion(ctx, textQuestion("rxjs", "r3"))
	s.CreateQuestion(ctx, textQuestion("db", "d1"))
	s.SoftDeleteQuestion(ctx, "rxjs", "r3")

	stats, err := s.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.ActiveCategories != 1 {
		t.Errorf("expected 1 active category, got %d", stats.ActiveCategories)
	}
	if stats.Questions != 3 || stats.Deleted != 1 {
		t.Errorf("expected 3 questions and 1 deleted, got %d and %d", stats.Questions, stats.Deleted)
	}
	if len(stats.PerCategory) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(stats.PerCategory))
	}

	rxjs := stats.PerCategory[1]
	if rxjs.Topic != "rxjs" || rxjs.Total != 2 || rxjs.Single != 1 || rxjs.Multi != 1 || rxjs.Text != 0 {
		t.Errorf("unexpected rxjs breakdown: %+v", rxjs)
	}

	counts, err := s.QuestionCounts(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts["rxjs"] != 2 || counts["db"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestTopicStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "rxjs")

	s.CreateQuestion(ctx, &question.Question{
		ID: "r1", Topic: "rxjs", Title: "t", Kind: question.KindSingle,
		Options: []string{"a", "b", "c", "d"}, Answers: []string{"a"}, Code: "x", Explanation: "e",
	})
	s.CreateQuestion(ctx, &question.Question{
		ID: "r2", Topic: "rxjs", Title: "t", Kind: question.KindSingle,
		Options: []string{"a", "b"}, Answers: []string{"a"}, Example: "ex",
	})
	s.CreateQuestion(ctx, textQuestion("rxjs", "r3"))
	s.SoftDeleteQuestion(ctx, "rxjs", "r3")

	stats, err := s.TopicStats(ctx, "rxjs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 || stats.Deleted != 1 || stats.Single != 2 || stats.Text != 0 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.WithCode != 1 || stats.WithExplanation != 1 || stats.WithExample != 1 {
		t.Errorf("unexpected content counts: %+v", stats)
	}
	if stats.AvgOptions != 3 {
		t.Errorf("expected 3 options on average, got %v", stats.AvgOptions)
	}

	if _, err := s.TopicStats(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
