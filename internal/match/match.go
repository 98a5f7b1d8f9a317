package match

import (
	"fmt"

	"subbub/internal/services"
)

// Pair binds one left item to one right item. Pairing never reorders
// either collection; order is fixed at input resolution so results are
// reproducible across runs on an unchanged filesystem.
type Pair[L, R any] struct {
	Left  L
	Right R
}

// Positional pairs lefts[i] with rights[i]. Collections of differing
// length fail outright rather than guessing a best-effort pairing.
func Positional[L, R any](lefts []L, rights []R) ([]Pair[L, R], error) {
	if len(lefts) != len(rights) {
		return nil, services.Wrap(services.ErrArity, "match", "positional",
			fmt.Sprintf("%d left items cannot pair with %d right items", len(lefts), len(rights)), nil)
	}
	pairs := make([]Pair[L, R], len(lefts))
	for i := range lefts {
		pairs[i] = Pair[L, R]{Left: lefts[i], Right: rights[i]}
	}
	return pairs, nil
}

// Broadcast pairs every left with the same right, for runs where one
// reference serves a whole directory of targets.
func Broadcast[L, R any](lefts []L, right R) []Pair[L, R] {
	pairs := make([]Pair[L, R], len(lefts))
	for i := range lefts {
		pairs[i] = Pair[L, R]{Left: lefts[i], Right: right}
	}
	return pairs
}
