package mastery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrMalformed reports a persisted payload that could not be decoded.
var ErrMalformed = errors.New("malformed mastery payload")

// Persistence stores one counter map per topic. Get returns a nil map and a
// nil error when nothing has been stored for the topic yet.
type Persistence interface {
	Get(ctx context.Context, topic string) (map[string]int, error)
	Put(ctx context.Context, topic string, counts map[string]int) error
}

// EncodeCounts serializes a counter map as a JSON object of question id to count.
func EncodeCounts(counts map[string]int) ([]byte, error) {
	if counts == nil {
		counts = map[string]int{}
	}
	return json.Marshal(counts)
}

// DecodeCounts parses a payload written by EncodeCounts. Negative counts are
// rejected as malformed.
func DecodeCounts(data []byte) (map[string]int, error) {
	var counts map[string]int
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for id, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative count %d for %q", ErrMalformed, n, id)
		}
	}
	if counts == nil {
		counts = map[string]int{}
	}
	return counts, nil
}

// MemoryPersistence keeps counters in process memory.
type MemoryPersistence struct {
	mu     sync.RWMutex
	topics map[string]map[string]int
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{topics: make(map[string]map[string]int)}
}

func (m *MemoryPersistence) Get(_ context.Context, topic string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts, ok := m.topics[topic]
	if !ok {
		return nil, nil
	}
	return copyCounts(counts), nil
}

func (m *MemoryPersistence) Put(_ context.Context, topic string, counts map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.topics[topic] = copyCounts(counts)
	return nil
}

func copyCounts(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
