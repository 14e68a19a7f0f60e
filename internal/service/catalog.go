package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/quizforge/backend/internal/domain/question"
	"github.com/quizforge/backend/internal/source"
	"github.com/quizforge/backend/internal/store"
	"github.com/quizforge/backend/internal/worker"
)

// TopicReport is the stored statistics of a topic seen by one learner.
type TopicReport struct {
	store.TopicStats
	Hidden    int `json:"hidden"`
	Remaining int `json:"remaining"`
}

// TopicSummary is one entry of the topic catalogue.
type TopicSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Level       string `json:"level,omitempty"`
	Questions   int    `json:"questions"`
	Fallback    bool   `json:"fallback"`
}

// TopicLister is implemented by sources that can enumerate their topics.
type TopicLister interface {
	Topics() ([]source.Topic, error)
}

// Topics lists active categories with their question counts, followed by
// fallback-only topics when fallback is not nil.
func (s *QuizService) Topics(ctx context.Context, fallback TopicLister) ([]TopicSummary, error) {
	seen := map[string]bool{}
	var out []TopicSummary

	if s.store != nil {
		cats, err := s.store.ListCategories(ctx, store.CategoryFilter{ActiveOnly: true})
		if err != nil {
			return nil, err
		}
		counts, err := s.store.QuestionCounts(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range cats {
			seen[c.Name] = true
			out = append(out, TopicSummary{
				Name:        c.Name,
				DisplayName: c.DisplayName,
				Level:       c.Level,
				Questions:   counts[c.Name],
			})
		}
	}

	if fallback != nil {
		topics, err := fallback.Topics()
		if err != nil {
			return nil, err
		}
		for _, t := range topics {
			if seen[t.Name] {
				continue
			}
			out = append(out, TopicSummary{
				Name:        t.Name,
				DisplayName: t.DisplayName,
				Questions:   t.Questions,
				Fallback:    true,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TopicReport combines stored statistics with the learner's mastery. Topics
// that only exist in the fallback files are computed from the source.
func (s *QuizService) TopicReport(ctx context.Context, learnerID, topic string) (*TopicReport, error) {
	var questions []question.Question
	var stats *store.TopicStats

	if s.store != nil {
		var err error
		stats, err = s.store.TopicStats(ctx, topic)
		switch {
		case err == nil:
			questions, err = s.store.ListQuestions(ctx, topic, false)
			if err != nil {
				return nil, err
			}
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	if stats == nil {
		qs, err := s.source.Questions(ctx, topic)
		if err != nil {
			return nil, err
		}
		questions = qs
		stats = store.ComputeTopicStats(topic, qs)
	}

	counters := s.openMastery(ctx, learnerID, topic)
	report := &TopicReport{TopicStats: *stats}
	for _, q := range questions {
		if !q.Deleted && counters.ShouldHide(q.ID) {
			report.Hidden++
		}
	}
	report.Remaining = stats.Total - stats.Deleted - report.Hidden
	return report, nil
}

// Overview computes the statistics of every category concurrently.
func (s *QuizService) Overview(ctx context.Context, workers int) ([]*store.TopicStats, error) {
	if s.store == nil {
		return []*store.TopicStats{}, nil
	}
	cats, err := s.store.ListCategories(ctx, store.CategoryFilter{})
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool[*store.TopicStats](ctx, workers, len(cats))
	for _, c := range cats {
		name := c.Name
		err := pool.Submit(name, func(ctx context.Context) (*store.TopicStats, error) {
			return s.store.TopicStats(ctx, name)
		})
		if err != nil {
			pool.Close()
			return nil, err
		}
	}
	pool.Close()

	out := make([]*store.TopicStats, 0, len(cats))
	var errs []error
	for r := range pool.Results() {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.JobID, r.Err))
			continue
		}
		out = append(out, r.Output)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out, nil
}

// ============================================================================
// Import
// ============================================================================

type ImportError struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

type ImportResult struct {
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Errors   []ImportError `json:"errors"`
}

// Import maps each record on its own; invalid records are reported and the
// valid ones are stored in a single transaction.
func (s *QuizService) Import(ctx context.Context, topic string, records []source.Record) (*ImportResult, error) {
	if s.store == nil {
		return nil, errors.New("import needs a store")
	}
	if _, err := s.store.GetCategory(ctx, topic); err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []ImportError{}}
	valid := make([]question.Question, 0, len(records))
	seen := map[string]bool{}

	for i, r := range records {
		q, err := source.MapOne(topic, r, i)
		if err == nil && seen[q.ID] {
			err = fmt.Errorf("duplicate id %q in payload", q.ID)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportError{Index: i, ID: r.ID, Error: err.Error()})
			s.logger.Warn("skipping invalid import record", "topic", topic, "index", i, "error", err)
			continue
		}
		seen[q.ID] = true
		valid = append(valid, q)
	}

	if len(valid) > 0 {
		if err := s.store.ImportQuestions(ctx, topic, valid); err != nil {
			return nil, err
		}
	}
	result.Imported = len(valid)

	s.logger.Info("questions imported", "topic", topic, "imported", result.Imported, "failed", result.Failed)
	return result, nil
}
