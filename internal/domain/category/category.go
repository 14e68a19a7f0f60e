package category

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/quizforge/backend/internal/domain/level"
)

// Category is a quiz topic. Name is the slug used as the topic key for
// questions and mastery counters.
type Category struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Level       string    `json:"level"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

const DefaultColor = "#3b82f6"

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func New(name, displayName string) *Category {
	return &Category{
		Name:        Slug(name),
		DisplayName: strings.TrimSpace(displayName),
		Level:       level.Default,
		Color:       DefaultColor,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
}

// Slug lower-cases and trims a category name and replaces inner whitespace
// with dashes.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.Name != Slug(c.Name) {
		return errors.New("name must be lower-case without spaces")
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return errors.New("display_name is required")
	}
	if !level.IsValid(c.Level) {
		return errors.New("level must be one of Intermédiaire, Avancé, Expert")
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		return errors.New("color must look like #rrggbb")
	}
	return nil
}

// Matches reports whether term appears in the name, display name or
// description, ignoring case.
func (c *Category) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(c.Name, term) ||
		strings.Contains(strings.ToLower(c.DisplayName), term) ||
		strings.Contains(strings.ToLower(c.Description), term)
}
