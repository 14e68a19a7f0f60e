package quizsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/quizforge/backend/internal/answer"
	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/grader"
	"github.com/quizforge/backend/internal/id"
	"github.com/quizforge/backend/internal/mastery"
	"github.com/quizforge/backend/internal/shuffle"
)

var (
	ErrNoTopic          = errors.New("quiz session needs a topic")
	ErrNoMastery        = errors.New("quiz session needs a mastery store")
	ErrUnknownQuestion  = errors.New("question is not part of this session")
	ErrAlreadySubmitted = errors.New("question already submitted")
	ErrNoAnswer         = errors.New("no answer given")
)

type State string

const (
	StateUnanswered State = "unanswered"
	StateCorrect    State = "correct"
	StateIncorrect  State = "incorrect"
)

func (s State) Submitted() bool {
	return s == StateCorrect || s == StateIncorrect
}

// Feedback is produced once per question, when it is validated.
type Feedback struct {
	QuestionID    string `json:"question_id"`
	Correct       bool   `json:"correct"`
	Count         int    `json:"count"`
	Threshold     int    `json:"threshold"`
	Mastered      bool   `json:"mastered"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
	Example       string `json:"example,omitempty"`
}

// Item is a read-only view of one question for renderers.
type Item struct {
	Question      question.Question `json:"question"`
	State         State             `json:"state"`
	Selection     string            `json:"selection"`
	SubmitEnabled bool              `json:"submit_enabled"`
	Feedback      *Feedback         `json:"feedback,omitempty"`
}

type Summary struct {
	Total     int `json:"total"`
	Answered  int `json:"answered"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Remaining int `json:"remaining"`
	Hidden    int `json:"hidden"`
}

type Option func(*Session)

func WithGrader(g grader.Grader) Option {
	return func(s *Session) { s.grader = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRand makes question and option order reproducible.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

type item struct {
	question  question.Question
	selection string
	state     State
	feedback  *Feedback
}

// Session is one pass over the visible questions of a topic. Each question
// can be validated once; a new Session is needed to try again.
type Session struct {
	ID        string
	Topic     string
	CreatedAt time.Time

	mastery *mastery.Store
	grader  grader.Grader
	logger  *slog.Logger
	rng     *rand.Rand

	mu     sync.Mutex
	items  []*item
	byID   map[string]*item
	hidden int
}

// New builds a session from the questions of topic. Soft-deleted questions
// and questions the mastery store hides are left out.
func New(topic string, questions []question.Question, store *mastery.Store, cfg Config, opts ...Option) (*Session, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrNoTopic
	}
	if store == nil {
		return nil, ErrNoMastery
	}

	s := &Session{
		ID:        id.GenerateID(),
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
		mastery:   store,
		grader:    grader.Exact{},
		logger:    slog.New(slog.DiscardHandler),
		byID:      make(map[string]*item),
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[string]struct{}, len(questions))
	visible := make([]question.Question, 0, len(questions))
	for _, q := range questions {
		if q.Deleted {
			continue
		}
		if store.ShouldHide(q.ID) {
			s.hidden++
			continue
		}
		if _, dup := seen[q.ID]; dup {
			s.logger.Warn("skipping duplicate question id", "topic", topic, "question_id", q.ID)
			continue
		}
		seen[q.ID] = struct{}{}
		visible = append(visible, q)
	}

	if cfg.ShuffleQuestions {
		visible = reorder(s, visible)
	}
	if cfg.MaxQuestions != nil && *cfg.MaxQuestions > 0 && *cfg.MaxQuestions < len(visible) {
		visible = visible[:*cfg.MaxQuestions]
	}

	s.items = make([]*item, 0, len(visible))
	for _, q := range visible {
		if cfg.ShuffleOptions && q.HasOptions() && q.Kind != question.KindText {
			q.Options = reorder(s, q.Options)
		}
		it := &item{question: q, state: StateUnanswered}
		s.items = append(s.items, it)
		s.byID[q.ID] = it
	}

	return s, nil
}

func reorder[T any](s *Session, in []T) []T {
	if s.rng != nil {
		return shuffle.WithRand(in, s.rng)
	}
	return shuffle.Shuffle(in)
}

// Select records the current input for a question without validating it.
func (s *Session) Select(questionID, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.byID[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if it.state.Submitted() {
		return ErrAlreadySubmitted
	}
	it.selection = raw
	return nil
}

// SubmitEnabled reports whether the question has an input and is still open.
func (s *Session) SubmitEnabled(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.byID[questionID]
	if !ok {
		return false
	}
	return submitEnabled(it)
}

func submitEnabled(it *item) bool {
	return !it.state.Submitted() && strings.TrimSpace(it.selection) != ""
}

// Validate grades raw for the question, moves it to a terminal state and
// records a correct answer in the mastery store. A blank input returns
// ErrNoAnswer and leaves the question open.
func (s *Session) Validate(ctx context.Context, questionID, raw string) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.byID[questionID]
	if !ok {
		return Feedback{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if it.state.Submitted() {
		return Feedback{}, ErrAlreadySubmitted
	}
	if strings.TrimSpace(raw) == "" {
		return Feedback{}, ErrNoAnswer
	}

	it.selection = raw
	q := it.question
	result := s.grader.Grade(q, raw)

	var count int
	if result.Correct {
		it.state = StateCorrect
		count = s.mastery.Increment(ctx, q.ID)
	} else {
		it.state = StateIncorrect
		count = s.mastery.Count(q.ID)
	}

	fb := Feedback{
		QuestionID:    q.ID,
		Correct:       result.Correct,
		Count:         count,
		Threshold:     mastery.Threshold,
		Mastered:      result.Correct && count >= mastery.Threshold,
		UserAnswer:    answer.EscapeHTML(raw),
		CorrectAnswer: q.CorrectAnswerText(),
		Explanation:   q.Explanation,
		Example:       q.Example,
	}
	it.feedback = &fb

	s.logger.Debug("question validated",
		"session_id", s.ID,
		"question_id", q.ID,
		"correct", result.Correct,
		"count", count,
	)
	return fb, nil
}

// ValidateSelection validates the input last recorded with Select.
func (s *Session) ValidateSelection(ctx context.Context, questionID string) (Feedback, error) {
	s.mu.Lock()
	it, ok := s.byID[questionID]
	var raw string
	if ok {
		raw = it.selection
	}
	s.mu.Unlock()

	return s.Validate(ctx, questionID, raw)
}

func (s *Session) Item(questionID string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.byID[questionID]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	return it.view(), nil
}

// Items returns the questions in presentation order.
func (s *Session) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]Item, len(s.items))
	for i, it := range s.items {
		views[i] = it.view()
	}
	return views
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Total: len(s.items), Hidden: s.hidden}
	for _, it := range s.items {
		switch it.state {
		case StateCorrect:
			sum.Correct++
		case StateIncorrect:
			sum.Incorrect++
		}
	}
	sum.Answered = sum.Correct + sum.Incorrect
	sum.Remaining = sum.Total - sum.Answered
	return sum
}

// Mastery exposes the store the session records into.
func (s *Session) Mastery() *mastery.Store {
	return s.mastery
}

func (it *item) view() Item {
	q := it.question
	q.Options = append([]string(nil), q.Options...)
	q.Answers = append([]string(nil), q.Answers...)

	v := Item{
		Question:      q,
		State:         it.state,
		Selection:     it.selection,
		SubmitEnabled: submitEnabled(it),
	}
	if it.feedback != nil {
		fb := *it.feedback
		v.Feedback = &fb
	}
	return v
}
