package pattern

import (
	"strconv"
	"strings"

	"github.com/soundprediction/graphconf/pkg/types"
)

// Kind is one pattern of the catalog
type Kind int

const (
	Triangle Kind = iota
	FourClique
	Path3
	HopPairs
	HopNeighborhood
	DegreeAtLeast
	SharedNeighbors
	TriangleSet
)

var kindIDs = [...]string{
	Triangle:        "triangle",
	FourClique:      "four-clique",
	Path3:           "path3",
	HopPairs:        "hop-pairs",
	HopNeighborhood: "hop-neighborhood",
	DegreeAtLeast:   "degree-at-least",
	SharedNeighbors: "shared-neighbors",
	TriangleSet:     "triangle-set",
}

// Kinds lists every kind in catalog order
func Kinds() []Kind {
	out := make([]Kind, len(kindIDs))
	for i := range kindIDs {
		out[i] = Kind(i)
	}
	return out
}

// String returns the kind's id
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindIDs) {
		return "unknown"
	}
	return kindIDs[k]
}

// SetValued reports whether the kind answers with one confidence per result key
func (k Kind) SetValued() bool {
	switch k {
	case HopPairs, HopNeighborhood, DegreeAtLeast, SharedNeighbors, TriangleSet:
		return true
	default:
		return false
	}
}

// ParseKind resolves a pattern id or its catalog index.
func ParseKind(id string) (Kind, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for i, name := range kindIDs {
		if id == name {
			return Kind(i), nil
		}
	}
	if n, err := strconv.Atoi(id); err == nil && n >= 0 && n < len(kindIDs) {
		return Kind(n), nil
	}
	return 0, &ArgumentError{Pattern: id, Err: types.ErrInvalidPattern}
}
