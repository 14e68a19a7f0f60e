// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quizforge/backend/internal/domain/category"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
    name TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    level TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    icon TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
    topic TEXT NOT NULL,
    id TEXT NOT NULL,
    title TEXT NOT NULL,
    code TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL,
    options TEXT NOT NULL DEFAULT '[]',
    answers TEXT NOT NULL,
    explanation TEXT NOT NULL DEFAULT '',
    example TEXT NOT NULL DEFAULT '',
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    deleted_at INTEGER,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (topic, id)
);

CREATE INDEX IF NOT EXISTS idx_questions_deleted ON questions(deleted);

CREATE TABLE IF NOT EXISTS mastery (
    learner_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    counts TEXT NOT NULL,
    expires_at INTEGER NOT NULL,
    PRIMARY KEY (learner_id, topic)
);
`

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check: *SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Categories
// ============================================================================

const categoryColumns = "name, display_name, description, level, color, icon, is_active, created_at"

func (s *SQLiteStore) CreateCategory(ctx context.Context, cat *category.Category) error {
	if cat.CreatedAt.IsZero() {
		cat.CreatedAt = s.now().UTC()
	}
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(name) DO NOTHING",
		cat.Name, cat.DisplayName, cat.Description, cat.Level, cat.Color, cat.Icon, cat.Active, cat.CreatedAt.Unix(),
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
	return nil
}

func (s *SQLiteStore) GetCategory(ctx context.Context, name string) (*category.Category, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE name = ?", name)
	cat, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// ListCategories returns categories ordered by name.
func (s *SQLiteStore) ListCategories(ctx context.Context, filter CategoryFilter) ([]*category.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories"
	if filter.ActiveOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*category.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		if !cat.Matches(filter.Search) {
			continue
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) UpdateCategory(ctx context.Context, cat *category.Category) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET display_name = ?, description = ?, level = ?, color = ?, icon = ?, is_active = ?
		WHERE name = ?`,
		cat.DisplayName, cat.Description, cat.Level, cat.Color, cat.Icon, cat.Active, cat.Name,
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

// DeleteCategory removes a category together with all of its questions.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM questions WHERE topic = ?", name); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE name = ?", name)
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

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*category.Category, error) {
	var cat category.Category
	var createdAt int64
	if err := row.Scan(
		&cat.Name, &cat.DisplayName, &cat.Description, &cat.Level,
		&cat.Color, &cat.Icon, &cat.Active, &createdAt,
	); err != nil {
		return nil, err
	}
	cat.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &cat, nil
}
