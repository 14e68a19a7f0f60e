package store

import (
	"context"
	"database/sql"

	"github.com/quizforge/backend/internal/domain/question"
)

// ============================================================================
// Statistics
// ============================================================================

// QuestionCounts returns the number of non-deleted questions per category.
// Categories without questions are present with a zero count.
func (s *SQLiteStore) QuestionCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, COUNT(q.id)
		FROM categories c
		LEFT JOIN questions q ON q.topic = c.name AND q.deleted = FALSE
		GROUP BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.display_name, c.is_active,
		       COUNT(q.id),
		       COALESCE(SUM(q.kind = 'single'), 0),
		       COALESCE(SUM(q.kind = 'multi'), 0),
		       COALESCE(SUM(q.kind = 'text'), 0)
		FROM categories c
		LEFT JOIN questions q ON q.topic = c.name AND q.deleted = FALSE
		GROUP BY c.name
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &GlobalStats{PerCategory: []CategoryCount{}}
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Topic, &cc.DisplayName, &cc.Active, &cc.Total, &cc.Single, &cc.Multi, &cc.Text); err != nil {
			return nil, err
		}
		if cc.Active {
			stats.ActiveCategories++
		}
		stats.Questions += cc.Total
		stats.PerCategory = append(stats.PerCategory, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions WHERE deleted = TRUE").Scan(&stats.Deleted)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// TopicStats works on stored questions only; mastery-dependent figures are
// added by the service layer.
func (s *SQLiteStore) TopicStats(ctx context.Context, topic string) (*TopicStats, error) {
	var name string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM categories WHERE name = ?", topic).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	qs, err := s.ListQuestions(ctx, topic, true)
	if err != nil {
		return nil, err
	}
	return ComputeTopicStats(topic, qs), nil
}

// ComputeTopicStats aggregates a topic's questions. It is shared with
// sources that do not live in the database.
func ComputeTopicStats(topic string, qs []question.Question) *TopicStats {
	stats := &TopicStats{Topic: topic, Total: len(qs)}
	choiceWithOptions, optionTotal := 0, 0

	for _, q := range qs {
		if q.Deleted {
			stats.Deleted++
			continue
		}
		switch q.Kind {
		case question.KindSingle:
			stats.Single++
		case question.KindMulti:
			stats.Multi++
		case question.KindText:
			stats.Text++
		}
		if q.Code != "" {
			stats.WithCode++
		}
		if q.Explanation != "" {
			stats.WithExplanation++
		}
		if q.Example != "" {
			stats.WithExample++
		}
		if q.Kind != question.KindText && len(q.Options) > 0 {
			choiceWithOptions++
			optionTotal += len(q.Options)
		}
	}

	if choiceWithOptions > 0 {
		stats.AvgOptions = float64(optionTotal) / float64(choiceWithOptions)
	}
	return stats
}
