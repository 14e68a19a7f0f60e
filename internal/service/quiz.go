// internal/service/quiz.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quizforge/backend/internal/domain/quizsession"
	"github.com/quizforge/backend/internal/mastery"
	"github.com/quizforge/backend/internal/source"
	"github.com/quizforge/backend/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")

// QuizService owns the live quiz sessions. Sessions are kept in memory and
// dropped after ttl without activity; mastery counters outlive them through
// the MasteryBackend.
//
// Every session, reset and removal for one learner and topic goes through the
// same *mastery.Store, so writers inside the process never overwrite each
// other with stale counters.
type QuizService struct {
	store   store.Store
	source  source.Source
	mastery MasteryBackend
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*liveSession

	storesMu sync.Mutex
	stores   map[masteryKey]*openStore
}

type liveSession struct {
	session   *quizsession.Session
	learnerID string
	lastSeen  time.Time
}

type masteryKey struct {
	learnerID string
	topic     string
}

type openStore struct {
	counters *mastery.Store
	lastUsed time.Time
}

// NewQuizService creates a QuizService. st may be nil when no database is
// used, e.g. by the terminal quiz.
func NewQuizService(st store.Store, src source.Source, mb MasteryBackend, logger *slog.Logger, ttl time.Duration) *QuizService {
	return &QuizService{
		store:    st,
		source:   src,
		mastery:  mb,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
		stores:   make(map[masteryKey]*openStore),
	}
}

// ============================================================================
// Sessions
// ============================================================================

// StartSession loads the topic's questions and the learner's counters and
// registers a new session.
func (s *QuizService) StartSession(ctx context.Context, learnerID, topic string, cfg quizsession.Config) (*quizsession.Session, error) {
	if topic == "" {
		return nil, quizsession.ErrNoTopic
	}

	questions, err := s.source.Questions(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	counters := s.openMastery(ctx, learnerID, topic)
	sess, err := quizsession.New(topic, questions, counters, cfg, quizsession.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &liveSession{session: sess, learnerID: learnerID, lastSeen: s.now()}
	s.mu.Unlock()

	s.logger.Info("quiz session started",
		"session_id", sess.ID,
		"topic", topic,
		"questions", sess.Len(),
		"hidden", sess.Summary().Hidden,
	)
	return sess, nil
}

// Session returns a live session owned by learnerID.
func (s *QuizService) Session(learnerID, sessionID string) (*quizsession.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live, ok := s.sessions[sessionID]
	if !ok || live.learnerID != learnerID {
		return nil, ErrSessionNotFound
	}
	live.lastSeen = s.now()
	return live.session, nil
}

func (s *QuizService) Select(learnerID, sessionID, questionID, raw string) error {
	sess, err := s.Session(learnerID, sessionID)
	if err != nil {
		return err
	}
	return sess.Select(questionID, raw)
}

// Validate grades raw, or the recorded selection when raw is nil.
func (s *QuizService) Validate(ctx context.Context, learnerID, sessionID, questionID string, raw *string) (quizsession.Feedback, error) {
	sess, err := s.Session(learnerID, sessionID)
	if err != nil {
		return quizsession.Feedback{}, err
	}
	if raw == nil {
		return sess.ValidateSelection(ctx, questionID)
	}
	return sess.Validate(ctx, questionID, *raw)
}

func (s *QuizService) EndSession(learnerID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	live, ok := s.sessions[sessionID]
	if !ok || live.learnerID != learnerID {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// CleanupExpired drops sessions idle for longer than the ttl and returns how
// many were dropped. Mastery stores idle for as long and not used by a
// remaining session are closed too.
func (s *QuizService) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	inUse := make(map[masteryKey]bool, len(s.sessions))
	for id, live := range s.sessions {
		if live.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
			continue
		}
		inUse[masteryKey{learnerID: live.learnerID, topic: live.session.Topic}] = true
	}

	s.storesMu.Lock()
	for key, open := range s.stores {
		if !inUse[key] && open.lastUsed.Before(cutoff) {
			delete(s.stores, key)
		}
	}
	s.storesMu.Unlock()

	return removed
}

// RunCleanup sweeps expired sessions and mastery rows every interval until
// ctx is done.
func (s *QuizService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.CleanupExpired(); n > 0 {
				s.logger.Info("expired quiz sessions removed", "count", n)
			}
			if s.store == nil {
				continue
			}
			if n, err := s.store.PurgeExpiredMastery(ctx); err != nil {
				s.logger.Warn("failed to purge expired mastery", "error", err)
			} else if n > 0 {
				s.logger.Info("expired mastery removed", "count", n)
			}
		}
	}
}

// ============================================================================
// Mastery
// ============================================================================

// openMastery returns the shared store of learnerID and topic, loading it on
// first use.
func (s *QuizService) openMastery(ctx context.Context, learnerID, topic string) *mastery.Store {
	s.storesMu.Lock()
	defer s.storesMu.Unlock()

	key := masteryKey{learnerID: learnerID, topic: topic}
	if open, ok := s.stores[key]; ok {
		open.lastUsed = s.now()
		return open.counters
	}

	counters := mastery.Open(ctx, topic, s.mastery.For(learnerID), s.logger.With("learner_id", learnerID))
	s.stores[key] = &openStore{counters: counters, lastUsed: s.now()}
	return counters
}

// Mastery returns the learner's counters for topic.
func (s *QuizService) Mastery(ctx context.Context, learnerID, topic string) map[string]int {
	return s.openMastery(ctx, learnerID, topic).Snapshot()
}

func (s *QuizService) ResetMastery(ctx context.Context, learnerID, topic string) {
	s.openMastery(ctx, learnerID, topic).Reset(ctx)
}

func (s *QuizService) RemoveMastery(ctx context.Context, learnerID, topic, questionID string) {
	s.openMastery(ctx, learnerID, topic).RemoveQuestion(ctx, questionID)
}
