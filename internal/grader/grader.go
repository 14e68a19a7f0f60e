package grader

import "github.com/quizforge/backend/internal/domain/question"

// Grader decides whether a raw learner answer is correct for a question.
// Implementations must not mutate the question.
type Grader interface {
	Grade(q question.Question, raw string) Result
}

// Result carries the verdict and the canonical form of the learner's input
// that was compared.
type Result struct {
	Correct   bool
	Canonical string
}
