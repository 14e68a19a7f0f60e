package service

import (
	"sync"

	"github.com/quizforge/backend/internal/mastery"
)

// MasteryBackend hands out the mastery persistence of one learner.
type MasteryBackend interface {
	For(learnerID string) mastery.Persistence
}

// MasteryBackendFunc adapts a function such as
// (*store.SQLiteStore).MasteryPersistence to a MasteryBackend.
type MasteryBackendFunc func(learnerID string) mastery.Persistence

func (f MasteryBackendFunc) For(learnerID string) mastery.Persistence {
	return f(learnerID)
}

// MemoryMastery keeps every learner's counters in process memory.
type MemoryMastery struct {
	mu       sync.Mutex
	learners map[string]*mastery.MemoryPersistence
}

func NewMemoryMastery() *MemoryMastery {
	return &MemoryMastery{learners: make(map[string]*mastery.MemoryPersistence)}
}

func (m *MemoryMastery) For(learnerID string) mastery.Persistence {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.learners[learnerID]
	if !ok {
		p = mastery.NewMemoryPersistence()
		m.learners[learnerID] = p
	}
	return p
}
