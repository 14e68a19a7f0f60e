package shuffle_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/quizforge/backend/internal/shuffle"
)

func TestShuffle_IsPermutation(t *testing.T) {
	options := []string{"switchMap", "mergeMap", "concatMap", "exhaustMap", "map"}

	for i := 0; i < 50; i++ {
		got := shuffle.Shuffle(options)
		if len(got) != len(options) {
			t.Fatalf("expected %d elements, got %d", len(options), len(got))
		}

		sortedGot := slices.Clone(got)
		sortedWant := slices.Clone(options)
		slices.Sort(sortedGot)
		slices.Sort(sortedWant)
		if !slices.Equal(sortedGot, sortedWant) {
			t.Fatalf("expected a permutation of %v, got %v", options, got)
		}
	}
}

func TestShuffle_DoesNotMutateInput(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	orig := slices.Clone(in)

	for i := 0; i < 10; i++ {
		shuffle.Shuffle(in)
	}

	if !slices.Equal(in, orig) {
		t.Errorf("expected input %v to be untouched, got %v", orig, in)
	}
}

func TestShuffle_ChangesOrder(t *testing.T) {
	in := make([]int, 20)
	for i := range in {
		in[i] = i
	}

	// 20! orders make ten identical draws practically impossible
	for i := 0; i < 10; i++ {
		if !slices.Equal(shuffle.Shuffle(in), in) {
			return
		}
	}
	t.Error("expected shuffled order to differ from input")
}

func TestShuffle_EmptyAndSingle(t *testing.T) {
	if got := shuffle.Shuffle([]string{}); len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
	if got := shuffle.Shuffle([]string{"only"}); len(got) != 1 || got[0] != "only" {
		t.Errorf("expected [only], got %v", got)
	}
}

func TestWithRand_Deterministic(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}

	first := shuffle.WithRand(in, rand.New(rand.NewPCG(1, 2)))
	second := shuffle.WithRand(in, rand.New(rand.NewPCG(1, 2)))

	if !slices.Equal(first, second) {
		t.Errorf("expected same seed to give same order, got %v and %v", first, second)
	}
}
