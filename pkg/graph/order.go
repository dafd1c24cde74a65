package graph

import (
	"cmp"
	"strconv"
)

// NodeID identifies a node
type NodeID string

// Compare orders node ids: integer-looking ids compare numerically and
// sort before every other id; the rest compare lexically.
func Compare(a, b NodeID) int {
	ai, aerr := strconv.ParseInt(string(a), 10, 64)
	bi, berr := strconv.ParseInt(string(b), 10, 64)
	switch {
	case aerr == nil && berr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		// "07" and "7" parse equal; fall back to the text
		return cmp.Compare(a, b)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// Less reports whether a precedes b in node order.
func Less(a, b NodeID) bool {
	return Compare(a, b) < 0
}

// Pair is an unordered node pair with U before V in node order.
type Pair struct {
	U, V NodeID
}

// MakePair returns the canonical pair for {u, v}.
func MakePair(u, v NodeID) Pair {
	if Less(v, u) {
		u, v = v, u
	}
	return Pair{U: u, V: v}
}

// ComparePairs orders pairs by U, then V.
func ComparePairs(a, b Pair) int {
	if c := Compare(a.U, b.U); c != 0 {
		return c
	}
	return Compare(a.V, b.V)
}

func (p Pair) String() string {
	return string(p.U) + "-" + string(p.V)
}

// Edge is one edge variable and its existence probability.
type Edge struct {
	U NodeID  `json:"u" yaml:"u"`
	V NodeID  `json:"v" yaml:"v"`
	P float64 `json:"p" yaml:"p"`
}

// Pair returns the edge's canonical pair.
func (e Edge) Pair() Pair {
	return MakePair(e.U, e.V)
}
