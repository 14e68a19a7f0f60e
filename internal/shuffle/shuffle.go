package shuffle

import "math/rand/v2"

// Shuffle returns a new slice holding the elements of in, in uniformly random
// order. The input slice is not modified.
func Shuffle[T any](in []T) []T {
	return shuffle(in, rand.IntN)
}

// WithRand is Shuffle driven by r, for reproducible orders.
func WithRand[T any](in []T, r *rand.Rand) []T {
	return shuffle(in, r.IntN)
}

// shuffle runs Fisher-Yates from the last index down to 1, swapping each
// element with one chosen uniformly among indexes 0..i.
func shuffle[T any](in []T, intN func(int) int) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := intN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
