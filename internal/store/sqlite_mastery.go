package store

import (
	"context"
	"database/sql"

	"github.com/quizforge/backend/internal/mastery"
)

// ============================================================================
// Mastery
// ============================================================================

// MasteryPersistence returns the counters of one learner, stored in the
// mastery table.
func (s *SQLiteStore) MasteryPersistence(learnerID string) mastery.Persistence {
	return &sqliteMastery{store: s, learnerID: learnerID}
}

// PurgeExpiredMastery deletes counters whose retention has elapsed.
func (s *SQLiteStore) PurgeExpiredMastery(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM mastery WHERE expires_at <= ?", s.now().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type sqliteMastery struct {
	store     *SQLiteStore
	learnerID string
}

func (m *sqliteMastery) Get(ctx context.Context, topic string) (map[string]int, error) {
	var payload string
	var expiresAt int64
	err := m.store.db.QueryRowContext(ctx,
		"SELECT counts, expires_at FROM mastery WHERE learner_id = ? AND topic = ?",
		m.learnerID, topic,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.store.now().Unix() >= expiresAt {
		return nil, nil
	}
	return mastery.DecodeCounts([]byte(payload))
}

func (m *sqliteMastery) Put(ctx context.Context, topic string, counts map[string]int) error {
	payload, err := mastery.EncodeCounts(counts)
	if err != nil {
		return err
	}
	expiresAt := m.store.now().Add(mastery.Retention)

	_, err = m.store.db.ExecContext(ctx, `
		INSERT INTO mastery (learner_id, topic, counts, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(learner_id, topic) DO UPDATE SET
			counts = excluded.counts, expires_at = excluded.expires_at`,
		m.learnerID, topic, string(payload), expiresAt.Unix(),
	)
	return err
}
