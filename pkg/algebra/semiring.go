package algebra

import "math"

// Semiring pairs an additive monoid with a multiplicative operator, the
// parameterisation spec §4.1/§6.3 requires mxm/mxv to take. AddIdentity is
// the monoid's zero element — the value an empty sum collapses to, and the
// value treated as "absent" when deciding whether a computed entry is
// worth storing in a sparse result.
type Semiring[T any] struct {
	Name        string
	Add         func(a, b T) T
	Mul         func(a, b T) T
	AddIdentity T
	// IsZero reports whether v is the additive identity, used to decide
	// whether to store a computed cell in a sparse output. Kept distinct
	// from a comparable-constraint equality check so float NaN/Inf and
	// bool all work uniformly.
	IsZero func(v T) bool
}

// AnyPairBool is boolean reachability matmul: OR over AND, the semiring
// behind ConditionalTraverse and general adjacency composition.
var AnyPairBool = Semiring[bool]{
	Name:        "any_pair_bool",
	Add:         func(a, b bool) bool { return a || b },
	Mul:         func(a, b bool) bool { return a && b },
	AddIdentity: false,
	IsZero:      func(v bool) bool { return !v },
}

// LorLandBool is the standard boolean semiring (logical-or / logical-and).
// Distinct from AnyPairBool only in name, matching spec §4.1's listing of
// both — "any_pair" emphasizes short-circuit-style reachability semantics,
// "lor_land" is the literal operator pairing used by plain boolean assign.
var LorLandBool = Semiring[bool]{
	Name:        "lor_land_bool",
	Add:         func(a, b bool) bool { return a || b },
	Mul:         func(a, b bool) bool { return a && b },
	AddIdentity: false,
	IsZero:      func(v bool) bool { return !v },
}

// MinPlusF64 is the tropical semiring used for shortest-path-style
// traversal: min over sums. AddIdentity is +Inf, the "no path yet" value.
var MinPlusF64 = Semiring[float64]{
	Name: "min_plus_f64",
	Add: func(a, b float64) float64 {
		if a < b {
			return a
		}
		return b
	},
	Mul:         func(a, b float64) float64 { return a + b },
	AddIdentity: math.Inf(1),
	IsZero:      func(v float64) bool { return math.IsInf(v, 1) },
}

// AnyFirstI64 picks an arbitrary contributing neighbour's carried int64
// payload — used to propagate a "parent id" during BFS-style traversal.
// Add is intentionally "pick the first/either" (non-commutative choice is
// fine: a traversal only needs *a* valid parent, not a canonical one).
var AnyFirstI64 = Semiring[int64]{
	Name:        "any_first_i64",
	Add:         func(a, b int64) int64 { return a },
	Mul:         func(a, b int64) int64 { return a },
	AddIdentity: -1,
	IsZero:      func(v int64) bool { return v == -1 },
}
