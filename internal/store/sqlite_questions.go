package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/quizforge/backend/internal/domain/question"
)

const questionColumns = "topic, id, title, code, kind, options, answers, explanation, example, deleted, position"

// ============================================================================
// Questions
// ============================================================================

// CreateQuestion appends q at the end of its topic. The topic must be an
// existing category.
func (s *SQLiteStore) CreateQuestion(ctx context.Context, q *question.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := categoryExists(ctx, tx, q.Topic); err != nil {
		return err
	}

	position, err := nextPosition(ctx, tx, q.Topic)
	if err != nil {
		return err
	}
	q.Position = position

	options, answers, err := encodeLists(q)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO questions ("+questionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(topic, id) DO NOTHING",
		q.Topic, q.ID, q.Title, q.Code, string(q.Kind), options, answers, q.Explanation, q.Example, q.Deleted, q.Position,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrConflict
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, topic, id string) (*question.Question, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+questionColumns+" FROM questions WHERE topic = ? AND id = ?", topic, id,
	)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuestion replaces the content of a question. Deleted state and
// position are left as they are.
func (s *SQLiteStore) UpdateQuestion(ctx context.Context, q *question.Question) error {
	options, answers, err := encodeLists(q)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE questions
		SET title = ?, code = ?, kind = ?, options = ?, answers = ?, explanation = ?, example = ?
		WHERE topic = ? AND id = ?`,
		q.Title, q.Code, string(q.Kind), options, answers, q.Explanation, q.Example, q.Topic, q.ID,
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

// ListQuestions returns the questions of a topic in position order.
func (s *SQLiteStore) ListQuestions(ctx context.Context, topic string, includeDeleted bool) ([]question.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions WHERE topic = ?"
	if !includeDeleted {
		query += " AND deleted = FALSE"
	}
	query += " ORDER BY position, id"

	rows, err := s.db.QueryContext(ctx, query, topic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectQuestions(rows)
}

// ImportQuestions inserts or replaces qs in one transaction. New questions
// are appended after the existing ones; replaced questions keep their
// position and are restored from the trash.
func (s *SQLiteStore) ImportQuestions(ctx context.Context, topic string, qs []question.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := categoryExists(ctx, tx, topic); err != nil {
		return err
	}

	position, err := nextPosition(ctx, tx, topic)
	if err != nil {
		return err
	}

	for i := range qs {
		q := &qs[i]
		q.Topic = topic
		options, answers, err := encodeLists(q)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (`+questionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?)
			ON CONFLICT(topic, id) DO UPDATE SET
				title = excluded.title, code = excluded.code, kind = excluded.kind,
				options = excluded.options, answers = excluded.answers,
				explanation = excluded.explanation, example = excluded.example,
				deleted = FALSE, deleted_at = NULL`,
			q.Topic, q.ID, q.Title, q.Code, string(q.Kind), options, answers, q.Explanation, q.Example, position,
		)
		if err != nil {
			return fmt.Errorf("import %s: %w", q.ID, err)
		}
		position++
	}

	return tx.Commit()
}

func categoryExists(ctx context.Context, tx *sql.Tx, name string) error {
	var found string
	err := tx.QueryRowContext(ctx, "SELECT name FROM categories WHERE name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func nextPosition(ctx context.Context, tx *sql.Tx, topic string) (int, error) {
	var next int
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM questions WHERE topic = ?", topic,
	).Scan(&next)
	return next, err
}

func encodeLists(q *question.Question) (string, string, error) {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	o, err := json.Marshal(options)
	if err != nil {
		return "", "", err
	}
	a, err := json.Marshal(q.Answers)
	if err != nil {
		return "", "", err
	}
	return string(o), string(a), nil
}

func scanQuestion(row rowScanner) (*question.Question, error) {
	var q question.Question
	var kind, options, answers string
	if err := row.Scan(
		&q.Topic, &q.ID, &q.Title, &q.Code, &kind, &options, &answers,
		&q.Explanation, &q.Example, &q.Deleted, &q.Position,
	); err != nil {
		return nil, err
	}
	q.Kind = question.Kind(kind)
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, fmt.Errorf("question %s/%s: bad options: %w", q.Topic, q.ID, err)
	}
	if err := json.Unmarshal([]byte(answers), &q.Answers); err != nil {
		return nil, fmt.Errorf("question %s/%s: bad answers: %w", q.Topic, q.ID, err)
	}
	return &q, nil
}

func collectQuestions(rows *sql.Rows) ([]question.Question, error) {
	questions := []question.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}
