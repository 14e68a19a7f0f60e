package tui_test

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/domain/quizsession"
	"github.com/quizforge/backend/internal/mastery"
	"github.com/quizforge/backend/internal/tui"
)

func questions() []question.Question {
	return []question.Question{
		{ID: "kw", Title: "Deferred call keyword", Kind: question.KindSingle, Options: []string{"go", "defer", "select"}, Answers: []string{"defer"}},
		{ID: "ch", Title: "Concurrency keywords", Kind: question.KindMulti, Options: []string{"chan", "func", "select"}, Answers: []string{"chan", "select"}},
		{ID: "loop", Title: "The only loop keyword", Kind: question.KindText, Answers: []string{"for"}, Explanation: "Go has no while."},
	}
}

func newModel(t *testing.T) (tui.Model, *mastery.Store) {
	t.Helper()
	ctx := context.Background()
	store := mastery.Open(ctx, "go", mastery.NewMemoryPersistence(), nil)
	sess, err := quizsession.New("go", questions(), store, quizsession.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tui.New(ctx, sess, tui.Options{NoColor: true}), store
}

func send(m tui.Model, keys ...tea.KeyMsg) tui.Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(tui.Model)
	}
	return m
}

var (
	down  = tea.KeyMsg{Type: tea.KeyDown}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SingleChoice(t *testing.T) {
	m, store := newModel(t)

	if !strings.Contains(m.View(), "> ( ) go") {
		t.Fatalf("expected the cursor on the first option, got:\n%s", m.View())
	}

	m = send(m, down, enter)
	if !strings.Contains(m.View(), "Correct! 1/5") {
		t.Errorf("expected positive feedback, got:\n%s", m.View())
	}
	if store.Count("kw") != 1 {
		t.Errorf("expected count 1, got %d", store.Count("kw"))
	}

	m = send(m, enter)
	if !strings.Contains(m.View(), "go · 2/3") {
		t.Errorf("expected the second question, got:\n%s", m.View())
	}
}

func TestModel_MultiChoiceToggles(t *testing.T) {
	m, store := newModel(t)
	m = send(m, runes("n"))

	m = send(m, space, down, down, space)
	if !strings.Contains(m.View(), "[x] chan") || !strings.Contains(m.View(), "[x] select") {
		t.Fatalf("expected two picked options, got:\n%s", m.View())
	}

	m = send(m, enter)
	if !strings.Contains(m.View(), "Correct!") {
		t.Errorf("expected positive feedback, got:\n%s", m.View())
	}
	if store.Count("ch") != 1 {
		t.Errorf("expected count 1, got %d", store.Count("ch"))
	}
}

func TestModel_TextInput(t *testing.T) {
	m, store := newModel(t)
	m = send(m, runes("n"), runes("n"))

	m = send(m, enter)
	if !strings.Contains(m.View(), "Give an answer first.") {
		t.Fatalf("expected a notice for an empty answer, got:\n%s", m.View())
	}

	m = send(m, runes("while"), enter)
	view := m.View()
	if !strings.Contains(view, "Wrong.") || !strings.Contains(view, "Expected: for") || !strings.Contains(view, "Go has no while.") {
		t.Errorf("expected negative feedback with explanation, got:\n%s", view)
	}
	if store.Count("loop") != 0 {
		t.Errorf("expected no count for a wrong answer, got %d", store.Count("loop"))
	}

	m = send(m, enter)
	if !m.Done() {
		t.Fatal("expected the quiz to be finished")
	}
	if !strings.Contains(m.View(), "Correct: 0/3") {
		t.Errorf("unexpected summary:\n%s", m.View())
	}
	if s := m.Summary(); s.Incorrect != 1 || s.Remaining != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestModel_TypingLettersDoesNotQuit(t *testing.T) {
	m, _ := newModel(t)
	m = send(m, runes("n"), runes("n"))

	m = send(m, runes("q"))
	if m.Done() {
		t.Fatal("expected q to be typed into the answer")
	}
	if !strings.Contains(m.View(), "> q") {
		t.Errorf("expected the typed letter in the view, got:\n%s", m.View())
	}
}

func TestModel_EmptySessionIsDone(t *testing.T) {
	ctx := context.Background()
	store := mastery.Open(ctx, "go", mastery.NewMemoryPersistence(), nil)
	for i := 0; i < mastery.Threshold; i++ {
		store.Increment(ctx, "only")
	}
	sess, err := quizsession.New("go", []question.Question{
		{ID: "only", Title: "t", Kind: question.KindText, Answers: []string{"x"}},
	}, store, quizsession.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := tui.New(ctx, sess, tui.Options{NoColor: true})
	if !m.Done() {
		t.Fatal("expected an empty session to be done")
	}
	if !strings.Contains(m.View(), "Mastered and skipped: 1") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}
