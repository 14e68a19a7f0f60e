package question

import (
	"fmt"
	"strings"

	"github.com/quizforge/backend/internal/answer"
	"github.com/quizforge/backend/internal/id"
)

type Kind string

const (
	KindSingle Kind = "single"
	KindMulti  Kind = "multi"
	KindText   Kind = "text"
)

// ParseKind accepts the canonical kind names and the legacy tags "qcm" and
// "input" used by older question files.
func ParseKind(tag string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "single", "qcm":
		return KindSingle, nil
	case "multi", "qcm-multiple":
		return KindMulti, nil
	case "text", "input":
		return KindText, nil
	}
	return "", fmt.Errorf("unknown question kind %q", tag)
}

// Question is read-only to quiz sessions. IDs are scoped by Topic.
type Question struct {
	ID          string   `json:"id"`
	Topic       string   `json:"topic"`
	Title       string   `json:"title"`
	Code        string   `json:"code,omitempty"`
	Kind        Kind     `json:"kind"`
	Options     []string `json:"options"`
	Answers     []string `json:"answers"`
	Explanation string   `json:"explanation,omitempty"`
	Example     string   `json:"example,omitempty"`
	Deleted     bool     `json:"deleted"`
	Position    int      `json:"position"`
}

// New creates a question with a generated ID.
func New(topic, title string, kind Kind) *Question {
	return &Question{
		ID:      id.GenerateID(),
		Topic:   topic,
		Title:   title,
		Kind:    kind,
		Options: []string{},
		Answers: []string{},
	}
}

func (q Question) HasOptions() bool {
	return len(q.Options) > 0
}

// CorrectAnswerText is the canonical answer as shown to a learner:
// entities decoded and multiple answers joined with ", ".
func (q Question) CorrectAnswerText() string {
	decoded := make([]string, len(q.Answers))
	for i, a := range q.Answers {
		decoded[i] = answer.DecodeEntities(a)
	}
	return strings.Join(decoded, ", ")
}

// Validate checks the question invariants and reports every problem found.
func (q Question) Validate() error {
	c := &issueCollector{}
	q.collect(c, "")
	return c.result()
}

// Issues is Validate without the error wrapper; each field is prefixed.
func (q Question) Issues(prefix string) []Issue {
	c := &issueCollector{}
	q.collect(c, prefix)
	return c.issues
}

func (q Question) collect(c *issueCollector, prefix string) {
	if strings.TrimSpace(q.ID) == "" {
		c.add(prefix+"id", "is required")
	}
	if strings.TrimSpace(q.Topic) == "" {
		c.add(prefix+"topic", "is required")
	}
	if strings.TrimSpace(q.Title) == "" {
		c.add(prefix+"title", "is required")
	}

	switch q.Kind {
	case KindSingle, KindMulti, KindText:
	default:
		c.add(prefix+"kind", fmt.Sprintf("unknown kind %q", q.Kind))
		return
	}

	if len(q.Answers) == 0 {
		c.add(prefix+"answers", "must include at least one entry")
	}
	for i, a := range q.Answers {
		if strings.TrimSpace(a) == "" {
			c.add(fmt.Sprintf("%sanswers[%d]", prefix, i), "is required")
		}
	}
	if q.Kind != KindMulti && len(q.Answers) > 1 {
		c.add(prefix+"answers", fmt.Sprintf("%s questions take exactly one answer", q.Kind))
	}
	if q.Kind == KindSingle && len(q.Options) == 0 {
		c.add(prefix+"options", "must include at least one entry")
	}

	if q.Kind == KindText || len(q.Options) == 0 {
		return
	}

	optionSet := make(map[string]struct{}, len(q.Options))
	for i, o := range q.Options {
		key := answer.NormalizeSingle(o)
		if key == "" {
			c.add(fmt.Sprintf("%soptions[%d]", prefix, i), "is required")
			continue
		}
		if _, dup := optionSet[key]; dup {
			c.add(fmt.Sprintf("%soptions[%d]", prefix, i), fmt.Sprintf("duplicate option %q", o))
		}
		optionSet[key] = struct{}{}
	}
	for i, a := range q.Answers {
		if strings.TrimSpace(a) == "" {
			continue
		}
		if _, ok := optionSet[answer.NormalizeSingle(a)]; !ok {
			c.add(fmt.Sprintf("%sanswers[%d]", prefix, i), fmt.Sprintf("%q is not one of the options", a))
		}
	}
}
