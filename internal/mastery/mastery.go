package mastery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	// Threshold is the number of correct answers after which a question is
	// no longer shown.
	Threshold = 5

	// Retention is how long persisted counters live after their last write.
	Retention = 365 * 24 * time.Hour
)

// Store holds the correct-answer counters of one topic. It loads eagerly from
// its Persistence and writes the whole map back on every mutation.
//
// Persistence is best-effort: an unreadable or malformed payload starts the
// store empty, and once a read or write fails for any other reason the store
// keeps working in memory only for the rest of its life.
type Store struct {
	topic       string
	persistence Persistence
	logger      *slog.Logger

	mu       sync.Mutex
	counts   map[string]int
	degraded bool
}

// Open creates the store for topic and loads what is currently persisted.
// It never fails.
func Open(ctx context.Context, topic string, p Persistence, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if p == nil {
		p = NewMemoryPersistence()
	}

	s := &Store{
		topic:       topic,
		persistence: p,
		logger:      logger,
		counts:      map[string]int{},
	}

	counts, err := p.Get(ctx, topic)
	switch {
	case errors.Is(err, ErrMalformed):
		logger.Warn("discarding malformed mastery data", "topic", topic, "error", err)
	case err != nil:
		logger.Warn("mastery storage unavailable, keeping counts in memory", "topic", topic, "error", err)
		s.degraded = true
	case counts != nil:
		s.counts = counts
	}

	return s
}

func (s *Store) Topic() string {
	return s.topic
}

// Count returns the number of correct answers recorded for questionID.
func (s *Store) Count(questionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[questionID]
}

// ShouldHide reports whether questionID reached the mastery threshold.
func (s *Store) ShouldHide(questionID string) bool {
	return s.Count(questionID) >= Threshold
}

// Increment records one more correct answer and returns the new count.
func (s *Store) Increment(ctx context.Context, questionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[questionID]++
	n := s.counts[questionID]
	s.persist(ctx)
	return n
}

// Reset clears every counter of the topic.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts = map[string]int{}
	s.persist(ctx)
}

// RemoveQuestion drops the counter of a single question.
func (s *Store) RemoveQuestion(ctx context.Context, questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.counts[questionID]; !ok {
		return
	}
	delete(s.counts, questionID)
	s.persist(ctx)
}

// Snapshot returns a copy of all counters.
func (s *Store) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounts(s.counts)
}

// Degraded reports whether the store stopped writing to its persistence.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context) {
	if s.degraded {
		return
	}
	if err := s.persistence.Put(ctx, s.topic, copyCounts(s.counts)); err != nil {
		s.logger.Warn("failed to persist mastery, keeping counts in memory", "topic", s.topic, "error", err)
		s.degraded = true
	}
}
