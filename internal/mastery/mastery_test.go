package mastery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/quizforge/backend/internal/mastery"
)

type failingPersistence struct {
	getErr error
	putErr error
	puts   int
}

func (f *failingPersistence) Get(context.Context, string) (map[string]int, error) {
	return nil, f.getErr
}

func (f *failingPersistence) Put(context.Context, string, map[string]int) error {
	f.puts++
	return f.putErr
}

func TestStore_NeverAnswered(t *testing.T) {
	s := mastery.Open(context.Background(), "rxjs", mastery.NewMemoryPersistence(), nil)

	if got := s.Count("rxjs-1"); got != 0 {
		t.Errorf("expected count 0, got %d", got)
	}
	if s.ShouldHide("rxjs-1") {
		t.Error("expected unanswered question to be visible")
	}
}

func TestStore_IncrementPersists(t *testing.T) {
	ctx := context.Background()
	p := mastery.NewMemoryPersistence()
	s := mastery.Open(ctx, "rxjs", p, nil)

	if got := s.Increment(ctx, "rxjs-1"); got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}
	if got := s.Increment(ctx, "rxjs-1"); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}

	stored, err := p.Get(ctx, "rxjs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored["rxjs-1"] != 2 {
		t.Errorf("expected persisted count 2, got %d", stored["rxjs-1"])
	}

	reopened := mastery.Open(ctx, "rxjs", p, nil)
	if got := reopened.Count("rxjs-1"); got != 2 {
		t.Errorf("expected reloaded count 2, got %d", got)
	}
}

func TestStore_HiddenAtThreshold(t *testing.T) {
	ctx := context.Background()
	s := mastery.Open(ctx, "rxjs", nil, nil)

	for i := 1; i < mastery.Threshold; i++ {
		s.Increment(ctx, "rxjs-1")
		if s.ShouldHide("rxjs-1") {
			t.Fatalf("expected question visible after %d correct answers", i)
		}
	}

	s.Increment(ctx, "rxjs-1")
	if !s.ShouldHide("rxjs-1") {
		t.Errorf("expected question hidden after %d correct answers", mastery.Threshold)
	}
}

func TestStore_TopicsAreIsolated(t *testing.T) {
	ctx := context.Background()
	p := mastery.NewMemoryPersistence()

	rxjs := mastery.Open(ctx, "rxjs", p, nil)
	rxjs.Increment(ctx, "q1")

	db := mastery.Open(ctx, "db", p, nil)
	if got := db.Count("q1"); got != 0 {
		t.Errorf("expected other topic to be untouched, got %d", got)
	}
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	p := mastery.NewMemoryPersistence()
	s := mastery.Open(ctx, "rxjs", p, nil)
	s.Increment(ctx, "q1")
	s.Increment(ctx, "q2")

	s.Reset(ctx)

	if len(s.Snapshot()) != 0 {
		t.Errorf("expected empty snapshot, got %v", s.Snapshot())
	}
	stored, _ := p.Get(ctx, "rxjs")
	if len(stored) != 0 {
		t.Errorf("expected persisted map to be empty, got %v", stored)
	}
}

func TestStore_RemoveQuestion(t *testing.T) {
	ctx := context.Background()
	p := mastery.NewMemoryPersistence()
	s := mastery.Open(ctx, "rxjs", p, nil)
	s.Increment(ctx, "q1")
	s.Increment(ctx, "q2")

	s.RemoveQuestion(ctx, "q1")

	if s.Count("q1") != 0 {
		t.Errorf("expected q1 removed, got %d", s.Count("q1"))
	}
	stored, _ := p.Get(ctx, "rxjs")
	if _, ok := stored["q1"]; ok {
		t.Error("expected q1 removed from persisted map")
	}
	if stored["q2"] != 1 {
		t.Errorf("expected q2 kept, got %d", stored["q2"])
	}
}

func TestStore_MalformedStartsEmpty(t *testing.T) {
	ctx := context.Background()
	p := &failingPersistence{getErr: mastery.ErrMalformed}
	s := mastery.Open(ctx, "rxjs", p, nil)

	if len(s.Snapshot()) != 0 {
		t.Errorf("expected empty store, got %v", s.Snapshot())
	}

	s.Increment(ctx, "q1")
	if p.puts != 1 {
		t.Errorf("expected malformed data to be overwritten, got %d writes", p.puts)
	}
	if s.Degraded() {
		t.Error("expected store to keep persisting after malformed load")
	}
}

func TestStore_UnavailableStorageStaysInMemory(t *testing.T) {
	ctx := context.Background()
	p := &failingPersistence{getErr: errors.New("connection refused")}
	s := mastery.Open(ctx, "rxjs", p, nil)

	if got := s.Increment(ctx, "q1"); got != 1 {
		t.Errorf("expected in-memory count 1, got %d", got)
	}
	if p.puts != 0 {
		t.Errorf("expected no writes to unavailable storage, got %d", p.puts)
	}
	if !s.Degraded() {
		t.Error("expected store to be degraded")
	}
}

func TestStore_WriteFailureDegrades(t *testing.T) {
	ctx := context.Background()
	p := &failingPersistence{putErr: errors.New("disk full")}
	s := mastery.Open(ctx, "rxjs", p, nil)

	s.Increment(ctx, "q1")
	s.Increment(ctx, "q1")

	if got := s.Count("q1"); got != 2 {
		t.Errorf("expected count 2, got %d", got)
	}
	if p.puts != 1 {
		t.Errorf("expected writes to stop after first failure, got %d", p.puts)
	}
}

func TestDecodeCounts(t *testing.T) {
	counts, err := mastery.DecodeCounts([]byte(`{"a":3,"b":5}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts["a"] != 3 || counts["b"] != 5 {
		t.Errorf("unexpected counts: %v", counts)
	}

	for _, bad := range []string{`not json`, `{"a":"x"}`, `{"a":-1}`, `[1,2]`} {
		if _, err := mastery.DecodeCounts([]byte(bad)); !errors.Is(err, mastery.ErrMalformed) {
			t.Errorf("DecodeCounts(%s): expected ErrMalformed, got %v", bad, err)
		}
	}

	counts, err = mastery.DecodeCounts([]byte(`null`))
	if err != nil || counts == nil || len(counts) != 0 {
		t.Errorf("expected empty map for null, got %v, %v", counts, err)
	}
}
