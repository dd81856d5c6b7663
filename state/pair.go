package state

import (
	"cmp"
	"slices"
)

type Pair[Ty1, Ty2 any] struct {
	V1 Ty1
	V2 Ty2
}

type Triple[Ty1, Ty2, Ty3 any] struct {
	V1 Ty1
	V2 Ty2
	V3 Ty3
}

// Swap returns the pair with its elements reversed.
func (p Pair[Ty1, Ty2]) Swap() Pair[Ty2, Ty1] {
	return Pair[Ty2, Ty1]{p.V2, p.V1}
}

// SortPairs sorts pairs lexicographically, first by V1 then by V2.
func SortPairs[Ty1, Ty2 cmp.Ordered](pairs []Pair[Ty1, Ty2]) {
	slices.SortFunc(pairs, func(a, b Pair[Ty1, Ty2]) int {
		return cmp.Or(cmp.Compare(a.V1, b.V1), cmp.Compare(a.V2, b.V2))
	})
}
