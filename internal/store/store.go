package store

import (
	"context"
	"errors"

	"github.com/quizforge/backend/internal/domain/category"
	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/mastery"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// CategoryFilter narrows ListCategories. Zero value lists everything.
type CategoryFilter struct {
	ActiveOnly bool
	Search     string
}

// Store is the persistence layer used by the service and API packages.
type Store interface {
	CreateCategory(ctx context.Context, cat *category.Category) error
	GetCategory(ctx context.Context, name string) (*category.Category, error)
	ListCategories(ctx context.Context, filter CategoryFilter) ([]*category.Category, error)
	UpdateCategory(ctx context.Context, cat *category.Category) error
	DeleteCategory(ctx context.Context, name string) error

	CreateQuestion(ctx context.Context, q *question.Question) error
	GetQuestion(ctx context.Context, topic, id string) (*question.Question, error)
	UpdateQuestion(ctx context.Context, q *question.Question) error
	ListQuestions(ctx context.Context, topic string, includeDeleted bool) ([]question.Question, error)
	ImportQuestions(ctx context.Context, topic string, qs []question.Question) error

	SoftDeleteQuestion(ctx context.Context, topic, id string) error
	RestoreQuestion(ctx context.Context, topic, id string) error
	DeleteQuestionPermanently(ctx context.Context, topic, id string) error
	ListTrash(ctx context.Context, topic string) ([]question.Question, error)
	EmptyTrash(ctx context.Context, topic string) (int64, error)

	QuestionCounts(ctx context.Context) (map[string]int, error)
	GlobalStats(ctx context.Context) (*GlobalStats, error)
	TopicStats(ctx context.Context, topic string) (*TopicStats, error)

	MasteryPersistence(learnerID string) mastery.Persistence
	PurgeExpiredMastery(ctx context.Context) (int64, error)

	Close() error
}

// CategoryCount breaks down the non-deleted questions of one category.
type CategoryCount struct {
	Topic       string `json:"topic"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"is_active"`
	Total       int    `json:"total"`
	Single      int    `json:"single"`
	Multi       int    `json:"multi"`
	Text        int    `json:"text"`
}

type GlobalStats struct {
	ActiveCategories int             `json:"active_categories"`
	Questions        int             `json:"questions"`
	Deleted          int             `json:"deleted"`
	PerCategory      []CategoryCount `json:"per_category"`
}

// TopicStats describes the questions stored for one topic. Kind and content
// counts only include non-deleted questions.
type TopicStats struct {
	Topic           string  `json:"topic"`
	Total           int     `json:"total"`
	Deleted         int     `json:"deleted"`
	Single          int     `json:"single"`
	Multi           int     `json:"multi"`
	Text            int     `json:"text"`
	WithCode        int     `json:"with_code"`
	WithExplanation int     `json:"with_explanation"`
	WithExample     int     `json:"with_example"`
	AvgOptions      float64 `json:"avg_options"`
}
