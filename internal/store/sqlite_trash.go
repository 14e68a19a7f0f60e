package store

import (
	"context"

	"github.com/quizforge/backend/internal/domain/question"
)

// ============================================================================
// Trash
// ============================================================================

func (s *SQLiteStore) SoftDeleteQuestion(ctx context.Context, topic, id string) error {
	return s.setDeleted(ctx, topic, id, true)
}

func (s *SQLiteStore) RestoreQuestion(ctx context.Context, topic, id string) error {
	return s.setDeleted(ctx, topic, id, false)
}

func (s *SQLiteStore) setDeleted(ctx context.Context, topic, id string, deleted bool) error {
	var deletedAt any
	if deleted {
		deletedAt = s.now().Unix()
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE questions SET deleted = ?, deleted_at = ? WHERE topic = ? AND id = ?",
		deleted, deletedAt, topic, id,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQuestionPermanently removes a question whether or not it is in the trash.
func (s *SQLiteStore) DeleteQuestionPermanently(ctx context.Context, topic, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM questions WHERE topic = ? AND id = ?", topic, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTrash returns soft-deleted questions, most recently deleted first.
// An empty topic lists the whole trash.
func (s *SQLiteStore) ListTrash(ctx context.Context, topic string) ([]question.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions WHERE deleted = TRUE"
	args := []any{}
	if topic != "" {
		query += " AND topic = ?"
		args = append(args, topic)
	}
	query += " ORDER BY deleted_at DESC, topic, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectQuestions(rows)
}

// EmptyTrash permanently removes soft-deleted questions and returns how many
// were removed. An empty topic empties the whole trash.
func (s *SQLiteStore) EmptyTrash(ctx context.Context, topic string) (int64, error) {
	query := "DELETE FROM questions WHERE deleted = TRUE"
	args := []any{}
	if topic != "" {
		query += " AND topic = ?"
		args = append(args, topic)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
