package pattern

import (
	"slices"

	"github.com/soundprediction/graphconf/pkg/graph"
	"gonum.org/v1/gonum/stat/combin"
)

// rule is what each kind contributes to enumeration. candidates may propose
// bindings that are out of order, duplicated, or use missing edges; Enumerate
// filters them.
type rule interface {
	candidates(m *graph.Model, p Pattern, yield func([]graph.NodeID) bool)
	canonical(m *graph.Model, p Pattern, roles []graph.NodeID) bool
	literals(roles []graph.NodeID) []Literal
	key(roles []graph.NodeID) string
}

func ruleFor(k Kind) rule {
	switch k {
	case Triangle:
		return triangleRule{}
	case FourClique:
		return cliqueRule{}
	case Path3:
		return path3Rule{}
	case HopPairs:
		return hopPairsRule{}
	case HopNeighborhood:
		return hopNeighborhoodRule{}
	case DegreeAtLeast:
		return degreeRule{}
	case SharedNeighbors:
		return sharedRule{}
	case TriangleSet:
		return triangleRule{keyed: true}
	}
	return nil
}

// increasing reports whether roles are strictly increasing in node order
func increasing(m *graph.Model, roles []graph.NodeID) bool {
	for i := 1; i < len(roles); i++ {
		if !m.Less(roles[i-1], roles[i]) {
			return false
		}
	}
	return true
}

func distinct(roles []graph.NodeID) bool {
	for i := range roles {
		for j := i + 1; j < len(roles); j++ {
			if roles[i] == roles[j] {
				return false
			}
		}
	}
	return true
}

type triangleRule struct {
	keyed bool
}

func (triangleRule) candidates(m *graph.Model, _ Pattern, yield func([]graph.NodeID) bool) {
	for _, a := range m.Nodes() {
		for _, b := range m.Neighbors(a) {
			for _, c := range m.Neighbors(b) {
				if !yield([]graph.NodeID{a, b, c}) {
					return
				}
			}
		}
	}
}

func (triangleRule) canonical(m *graph.Model, _ Pattern, roles []graph.NodeID) bool {
	return increasing(m, roles)
}

func (triangleRule) literals(r []graph.NodeID) []Literal {
	return []Literal{pos(r[0], r[1]), pos(r[1], r[2]), pos(r[0], r[2])}
}

func (t triangleRule) key(r []graph.NodeID) string {
	if !t.keyed {
		return ""
	}
	return joinKey(r...)
}

type cliqueRule struct{}

func (cliqueRule) candidates(m *graph.Model, _ Pattern, yield func([]graph.NodeID) bool) {
	for _, a := range m.Nodes() {
		for _, b := range m.Neighbors(a) {
			if !m.Less(a, b) {
				continue
			}
			for _, c := range m.Neighbors(b) {
				if !m.Less(b, c) {
					continue
				}
				for _, d := range m.Neighbors(c) {
					if !yield([]graph.NodeID{a, b, c, d}) {
						return
					}
				}
			}
		}
	}
}

func (cliqueRule) canonical(m *graph.Model, _ Pattern, roles []graph.NodeID) bool {
	return increasing(m, roles)
}

func (cliqueRule) literals(r []graph.NodeID) []Literal {
	return []Literal{
		pos(r[0], r[1]), pos(r[0], r[2]), pos(r[0], r[3]),
		pos(r[1], r[2]), pos(r[1], r[3]), pos(r[2], r[3]),
	}
}

func (cliqueRule) key([]graph.NodeID) string { return "" }

// path3Rule binds an induced path a-b-c-d
type path3Rule struct{}

func (path3Rule) candidates(m *graph.Model, _ Pattern, yield func([]graph.NodeID) bool) {
	for _, a := range m.Nodes() {
		for _, b := range m.Neighbors(a) {
			for _, c := range m.Neighbors(b) {
				for _, d := range m.Neighbors(c) {
					if !yield([]graph.NodeID{a, b, c, d}) {
						return
					}
				}
			}
		}
	}
}

// a path and its reverse are one embedding; keep the one starting lower
func (path3Rule) canonical(m *graph.Model, _ Pattern, r []graph.NodeID) bool {
	return distinct(r) && m.Less(r[0], r[3])
}

func (path3Rule) literals(r []graph.NodeID) []Literal {
	return []Literal{
		pos(r[0], r[1]), pos(r[1], r[2]), pos(r[2], r[3]),
		neg(r[0], r[2]), neg(r[0], r[3]), neg(r[1], r[3]),
	}
}

func (path3Rule) key([]graph.NodeID) string { return "" }

// simplePaths yields every simple path of 1..k edges starting at start
func simplePaths(m *graph.Model, start graph.NodeID, k int, yield func([]graph.NodeID) bool) bool {
	path := []graph.NodeID{start}
	onPath := map[graph.NodeID]bool{start: true}
	var walk func() bool
	walk = func() bool {
		if len(path) > k {
			return true
		}
		for _, next := range m.Neighbors(path[len(path)-1]) {
			if onPath[next] {
				continue
			}
			path = append(path, next)
			onPath[next] = true
			if !yield(slices.Clone(path)) || !walk() {
				return false
			}
			onPath[next] = false
			path = path[:len(path)-1]
		}
		return true
	}
	return walk()
}

type hopPairsRule struct{}

func (hopPairsRule) candidates(m *graph.Model, p Pattern, yield func([]graph.NodeID) bool) {
	for _, start := range m.Nodes() {
		if !reachesAbove(m, start, p.Hops) {
			continue
		}
		if !simplePaths(m, start, p.Hops, yield) {
			return
		}
	}
}

// reachesAbove reports whether a node ordered after start lies within k hops.
// Only paths ending at such a node are canonical for hop pairs.
func reachesAbove(m *graph.Model, start graph.NodeID, k int) bool {
	for n := range m.WithinHops(start, k) {
		if m.Less(start, n) {
			return true
		}
	}
	return false
}

// every path is found from both ends; keep the one starting at the lower node
func (hopPairsRule) canonical(m *graph.Model, p Pattern, r []graph.NodeID) bool {
	return len(r) >= 2 && len(r) <= p.Hops+1 && distinct(r) && m.Less(r[0], r[len(r)-1])
}

func (hopPairsRule) literals(r []graph.NodeID) []Literal { return pathLiterals(r) }

func (hopPairsRule) key(r []graph.NodeID) string { return joinKey(r[0], r[len(r)-1]) }

type hopNeighborhoodRule struct{}

func (hopNeighborhoodRule) candidates(m *graph.Model, p Pattern, yield func([]graph.NodeID) bool) {
	simplePaths(m, p.Start, p.Hops, yield)
}

func (hopNeighborhoodRule) canonical(_ *graph.Model, p Pattern, r []graph.NodeID) bool {
	return len(r) >= 2 && len(r) <= p.Hops+1 && r[0] == p.Start && distinct(r)
}

func (hopNeighborhoodRule) literals(r []graph.NodeID) []Literal { return pathLiterals(r) }

func (hopNeighborhoodRule) key(r []graph.NodeID) string { return string(r[len(r)-1]) }

// degreeRule binds a centre x and n of its neighbours y1 < ... < yn
type degreeRule struct{}

func (degreeRule) candidates(m *graph.Model, p Pattern, yield func([]graph.NodeID) bool) {
	centres := m.Nodes()
	if p.Node != "" {
		centres = []graph.NodeID{p.Node}
	}
	for _, x := range centres {
		nbrs := m.Neighbors(x)
		if len(nbrs) < p.Degree {
			continue
		}
		gen := combin.NewCombinationGenerator(len(nbrs), p.Degree)
		idx := make([]int, p.Degree)
		for gen.Next() {
			gen.Combination(idx)
			roles := make([]graph.NodeID, 0, p.Degree+1)
			roles = append(roles, x)
			for _, i := range idx {
				roles = append(roles, nbrs[i])
			}
			if !yield(roles) {
				return
			}
		}
	}
}

func (degreeRule) canonical(m *graph.Model, p Pattern, r []graph.NodeID) bool {
	return len(r) == p.Degree+1 && distinct(r) && increasing(m, r[1:])
}

func (degreeRule) literals(r []graph.NodeID) []Literal {
	lits := make([]Literal, 0, len(r)-1)
	for _, y := range r[1:] {
		lits = append(lits, pos(r[0], y))
	}
	return lits
}

func (degreeRule) key(r []graph.NodeID) string { return string(r[0]) }

// sharedRule binds x, z and two common neighbours y1 < y2 of a non-adjacent pair x < z.
// roles are ordered x, z, y1, y2.
type sharedRule struct{}

func (sharedRule) candidates(m *graph.Model, _ Pattern, yield func([]graph.NodeID) bool) {
	for _, x := range m.Nodes() {
		nbrs := m.Neighbors(x)
		for i, y1 := range nbrs {
			for _, y2 := range nbrs[i+1:] {
				for _, z := range m.Neighbors(y1) {
					if !yield([]graph.NodeID{x, z, y1, y2}) {
						return
					}
				}
			}
		}
	}
}

func (sharedRule) canonical(m *graph.Model, _ Pattern, r []graph.NodeID) bool {
	return distinct(r) && m.Less(r[0], r[1]) && m.Less(r[2], r[3])
}

func (sharedRule) literals(r []graph.NodeID) []Literal {
	x, z, y1, y2 := r[0], r[1], r[2], r[3]
	return []Literal{pos(x, y1), pos(y1, z), pos(x, y2), pos(y2, z), neg(x, z)}
}

func (sharedRule) key(r []graph.NodeID) string { return joinKey(r[0], r[1]) }
