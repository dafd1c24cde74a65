package graph

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Model is an immutable probabilistic graph. Node ids are mapped onto
// gonum node ids by their rank in node order, and edge weights are
// existence probabilities.
type Model struct {
	nodes []NodeID
	index map[NodeID]int64
	pairs []Pair
	g     *simple.WeightedUndirectedGraph
}

// Empty returns a Model with no nodes.
func Empty() *Model {
	return NewBuilder().Build()
}

// Nodes returns every node in node order. The slice must not be modified.
func (m *Model) Nodes() []NodeID {
	return m.nodes
}

// ListNodes implements Provider
func (m *Model) ListNodes() []NodeID {
	return slices.Clone(m.nodes)
}

// NumNodes returns the node count
func (m *Model) NumNodes() int {
	return len(m.nodes)
}

// NumEdges returns the number of edge variables
func (m *Model) NumEdges() int {
	return len(m.pairs)
}

// HasNode reports whether id is a node of the model
func (m *Model) HasNode(id NodeID) bool {
	_, ok := m.index[id]
	return ok
}

// EdgeProbability returns the probability of the edge variable {u, v}.
// ok is false when the pair has no variable, meaning the edge is certainly absent.
func (m *Model) EdgeProbability(u, v NodeID) (float64, bool) {
	if u == v {
		return 0, false
	}
	x, ok := m.index[u]
	if !ok {
		return 0, false
	}
	y, ok := m.index[v]
	if !ok {
		return 0, false
	}
	return m.g.Weight(x, y)
}

// HasEdge reports whether {u, v} is an edge variable
func (m *Model) HasEdge(u, v NodeID) bool {
	_, ok := m.EdgeProbability(u, v)
	return ok
}

// Rank returns the position of id in node order, or -1.
func (m *Model) Rank(id NodeID) int {
	i, ok := m.index[id]
	if !ok {
		return -1
	}
	return int(i)
}

// Less compares two nodes of the model by rank. Unknown nodes fall back to Less.
func (m *Model) Less(a, b NodeID) bool {
	x, aok := m.index[a]
	y, bok := m.index[b]
	if aok && bok {
		return x < y
	}
	return Less(a, b)
}

// Neighbors returns the nodes sharing an edge variable with u, in node order.
func (m *Model) Neighbors(u NodeID) []NodeID {
	x, ok := m.index[u]
	if !ok {
		return nil
	}
	nodes := graph.NodesOf(m.g.From(x))
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	slices.Sort(ids)
	out := make([]NodeID, len(ids))
	for i, id := range ids {
		out[i] = m.nodes[id]
	}
	return out
}

// Degree returns the number of edge variables touching u
func (m *Model) Degree(u NodeID) int {
	x, ok := m.index[u]
	if !ok {
		return 0
	}
	return m.g.From(x).Len()
}

// Edges returns every edge variable sorted by canonical pair.
func (m *Model) Edges() []Edge {
	out := make([]Edge, len(m.pairs))
	for i, pair := range m.pairs {
		p, _ := m.EdgeProbability(pair.U, pair.V)
		out[i] = Edge{U: pair.U, V: pair.V, P: p}
	}
	return out
}

// WithinHops returns the hop distance from start of every node reachable in
// at most k hops, start included at distance 0.
func (m *Model) WithinHops(start NodeID, k int) map[NodeID]int {
	x, ok := m.index[start]
	if !ok || k < 0 {
		return nil
	}
	dist := make(map[NodeID]int)
	bf := traverse.BreadthFirst{}
	bf.Walk(m.g, simple.Node(x), func(n graph.Node, d int) bool {
		if d > k {
			return true
		}
		dist[m.nodes[n.ID()]] = d
		return false
	})
	return dist
}

// Stats summarises a model
type Stats struct {
	Nodes       int     `json:"nodes" yaml:"nodes"`
	Edges       int     `json:"edges" yaml:"edges"`
	Certain     int     `json:"certain_edges" yaml:"certain_edges"`
	Isolated    int     `json:"isolated_nodes" yaml:"isolated_nodes"`
	MaxDegree   int     `json:"max_degree" yaml:"max_degree"`
	MeanProb    float64 `json:"mean_probability" yaml:"mean_probability"`
	ExpectedDeg float64 `json:"expected_degree" yaml:"expected_degree"`
}

// Stats computes summary statistics
func (m *Model) Stats() Stats {
	s := Stats{Nodes: m.NumNodes(), Edges: m.NumEdges()}
	var sum float64
	for _, e := range m.Edges() {
		sum += e.P
		if e.P == 1 {
			s.Certain++
		}
	}
	for _, n := range m.nodes {
		d := m.Degree(n)
		if d == 0 {
			s.Isolated++
		}
		s.MaxDegree = max(s.MaxDegree, d)
	}
	if s.Edges > 0 {
		s.MeanProb = sum / float64(s.Edges)
	}
	if s.Nodes > 0 {
		s.ExpectedDeg = 2 * sum / float64(s.Nodes)
	}
	return s
}
