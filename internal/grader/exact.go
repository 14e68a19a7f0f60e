package grader

import (
	"strings"

	"github.com/quizforge/backend/internal/answer"
	"github.com/quizforge/backend/internal/domain/question"
)

// Exact compares canonical forms. Single-choice and free-text answers must be
// equal after answer.NormalizeSingle. Multi-answer questions compare token
// sets, ignoring order and repeated tokens on both sides: a canonical answer
// of fulfilled, rejected, fulfilled accepts "fulfilled rejected" and rejects
// "rejected rejected rejected".
type Exact struct{}

// Compile-time check: Exact satisfies the Grader interface.
var _ Grader = Exact{}

func (Exact) Grade(q question.Question, raw string) Result {
	if q.Kind == question.KindMulti {
		got := tokenSet(answer.NormalizeMulti(raw))
		want := tokenSet(answer.NormalizeMulti(strings.Join(q.Answers, " ")))
		return Result{
			Correct:   len(got) > 0 && sameSet(got, want),
			Canonical: strings.Join(answer.NormalizeMulti(raw), " "),
		}
	}

	got := answer.NormalizeSingle(raw)
	for _, a := range q.Answers {
		if got != "" && got == answer.NormalizeSingle(a) {
			return Result{Correct: true, Canonical: got}
		}
	}
	return Result{Correct: false, Canonical: got}
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[answer.DecodeEntities(t)] = struct{}{}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
