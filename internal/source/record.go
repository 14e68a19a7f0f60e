package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quizforge/backend/internal/domain/question"
)

// Record is a question as it arrives from a question file, an import payload
// or an older export. Several fields have a legacy French alias; Map is the
// only place that resolves them.
type Record struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Titre       string     `json:"titre,omitempty" yaml:"titre,omitempty"`
	Code        string     `json:"code,omitempty" yaml:"code,omitempty"`
	Options     []string   `json:"options,omitempty" yaml:"options,omitempty"`
	Answers     AnswerList `json:"correct_answer,omitempty" yaml:"correct_answer,omitempty"`
	Reponse     AnswerList `json:"reponse,omitempty" yaml:"reponse,omitempty"`
	Type        string     `json:"type,omitempty" yaml:"type,omitempty"`
	Explanation string     `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Explication string     `json:"explication,omitempty" yaml:"explication,omitempty"`
	Example     string     `json:"example,omitempty" yaml:"example,omitempty"`
	Exemple     string     `json:"exemple,omitempty" yaml:"exemple,omitempty"`
	Deleted     bool       `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// AnswerList decodes either a single string or a list of strings.
type AnswerList []string

func (a *AnswerList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = AnswerList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("answer must be a string or a list of strings")
	}
	*a = list
	return nil
}

func (a *AnswerList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = AnswerList{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*a = list
		return nil
	}
	return fmt.Errorf("line %d: answer must be a string or a list of strings", node.Line)
}

// Map converts records of topic into questions. It validates every record and
// returns a *question.ValidationError listing all issues when any record is
// invalid.
func Map(topic string, records []Record) ([]question.Question, error) {
	var issues []question.Issue
	seen := make(map[string]int, len(records))
	out := make([]question.Question, 0, len(records))

	for i, r := range records {
		prefix := fmt.Sprintf("records[%d].", i)
		q, recordIssues := mapRecord(topic, r, i, prefix)
		issues = append(issues, recordIssues...)

		if q.ID != "" {
			if first, dup := seen[q.ID]; dup {
				issues = append(issues, question.Issue{
					Field:   prefix + "id",
					Message: fmt.Sprintf("duplicate id %q (first at records[%d])", q.ID, first),
				})
			} else {
				seen[q.ID] = i
			}
		}
		out = append(out, q)
	}

	if len(issues) > 0 {
		return nil, &question.ValidationError{Issues: issues}
	}
	return out, nil
}

// MapOne converts a single record at the given position.
func MapOne(topic string, r Record, position int) (question.Question, error) {
	q, issues := mapRecord(topic, r, position, "")
	if len(issues) > 0 {
		return question.Question{}, &question.ValidationError{Issues: issues}
	}
	return q, nil
}

func mapRecord(topic string, r Record, position int, prefix string) (question.Question, []question.Issue) {
	var issues []question.Issue

	answers := trimAll(firstNonEmptyList(r.Answers, r.Reponse))
	options := trimAll(r.Options)

	kind, err := resolveKind(r.Type, options, answers)
	if err != nil {
		issues = append(issues, question.Issue{Field: prefix + "type", Message: err.Error()})
	}
	if kind == question.KindText {
		options = []string{}
	}

	q := question.Question{
		ID:          strings.TrimSpace(r.ID),
		Topic:       topic,
		Title:       strings.TrimSpace(firstNonEmpty(r.Title, r.Titre)),
		Code:        r.Code,
		Kind:        kind,
		Options:     options,
		Answers:     answers,
		Explanation: firstNonEmpty(r.Explanation, r.Explication),
		Example:     firstNonEmpty(r.Example, r.Exemple),
		Deleted:     r.Deleted,
		Position:    position,
	}
	if err == nil {
		issues = append(issues, q.Issues(prefix)...)
	}
	return q, issues
}

// resolveKind infers a kind when the record has none: options make a
// single-choice question, several answers a multi-answer one.
func resolveKind(tag string, options, answers []string) (question.Kind, error) {
	if strings.TrimSpace(tag) != "" {
		return question.ParseKind(tag)
	}
	switch {
	case len(options) > 0:
		return question.KindSingle, nil
	case len(answers) > 1:
		return question.KindMulti, nil
	default:
		return question.KindText, nil
	}
}

// FromQuestion is the inverse of MapOne, used when exporting.
func FromQuestion(q question.Question) Record {
	return Record{
		ID:          q.ID,
		Title:       q.Title,
		Code:        q.Code,
		Options:     q.Options,
		Answers:     AnswerList(q.Answers),
		Type:        string(q.Kind),
		Explanation: q.Explanation,
		Example:     q.Example,
		Deleted:     q.Deleted,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyList(lists ...AnswerList) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
