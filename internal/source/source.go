package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quizforge/backend/internal/domain/question"
)

// ErrNoQuestions is returned when a source knows nothing about a topic.
var ErrNoQuestions = errors.New("no questions for topic")

// Source loads the questions of a topic in their canonical form.
type Source interface {
	Questions(ctx context.Context, topic string) ([]question.Question, error)
}

// QuestionLister is the part of the store a StoreSource reads from.
type QuestionLister interface {
	ListQuestions(ctx context.Context, topic string, includeDeleted bool) ([]question.Question, error)
}

// StoreSource reads non-deleted questions from the store.
type StoreSource struct {
	store QuestionLister
}

func NewStoreSource(s QuestionLister) *StoreSource {
	return &StoreSource{store: s}
}

func (s *StoreSource) Questions(ctx context.Context, topic string) ([]question.Question, error) {
	qs, err := s.store.ListQuestions(ctx, topic, false)
	if err != nil {
		return nil, fmt.Errorf("load %s from store: %w", topic, err)
	}
	return qs, nil
}

// Chain asks its primary source first and falls back when the primary fails
// or has no questions for the topic.
type Chain struct {
	primary  Source
	fallback Source
	delay    time.Duration
	logger   *slog.Logger
}

type ChainOption func(*Chain)

// WithLoadDelay waits d before every load. The wait honours cancellation.
func WithLoadDelay(d time.Duration) ChainOption {
	return func(c *Chain) { c.delay = d }
}

func NewChain(primary, fallback Source, logger *slog.Logger, opts ...ChainOption) *Chain {
	c := &Chain{primary: primary, fallback: fallback, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chain) Questions(ctx context.Context, topic string) ([]question.Question, error) {
	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	qs, err := c.primary.Questions(ctx, topic)
	if err == nil && len(qs) > 0 {
		return qs, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if err != nil {
		c.logger.Warn("primary question source failed, using fallback", "topic", topic, "error", err)
	} else {
		c.logger.Info("no stored questions, using fallback", "topic", topic)
	}

	fqs, ferr := c.fallback.Questions(ctx, topic)
	if ferr != nil {
		if err != nil {
			return nil, errors.Join(err, ferr)
		}
		return nil, ferr
	}
	return fqs, nil
}
