package graph

import (
	"fmt"
	"math"
	"slices"

	"github.com/soundprediction/graphconf/pkg/types"
	"gonum.org/v1/gonum/graph/simple"
)

// Builder accumulates nodes and edges for a Model. The zero value is not
// usable; call NewBuilder.
type Builder struct {
	nodes map[NodeID]struct{}
	edges map[Pair]float64
}

// NewBuilder returns an empty Builder
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[NodeID]struct{}),
		edges: make(map[Pair]float64),
	}
}

// AddNode declares a node. Declaring a node twice is harmless.
func (b *Builder) AddNode(id NodeID) {
	b.nodes[id] = struct{}{}
}

// AddEdge adds the undirected edge variable {u, v} with probability p.
// (u, v) and (v, u) name the same variable, so listing a pair twice in any
// direction is rejected.
func (b *Builder) AddEdge(u, v NodeID, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("edge %s-%s probability %v: %w", u, v, p, types.ErrProbabilityOutOfRange)
	}
	if u == "" || v == "" {
		return fmt.Errorf("edge with empty endpoint: %w", types.ErrMalformedGraphInput)
	}
	if u == v {
		return fmt.Errorf("self loop on %s: %w", u, types.ErrMalformedGraphInput)
	}
	pair := MakePair(u, v)
	if _, ok := b.edges[pair]; ok {
		return fmt.Errorf("duplicate edge %s: %w", pair, types.ErrMalformedGraphInput)
	}
	b.AddNode(u)
	b.AddNode(v)
	b.edges[pair] = p
	return nil
}

// Build returns the immutable Model. The Builder may keep being used.
func (b *Builder) Build() *Model {
	nodes := make([]NodeID, 0, len(b.nodes))
	for id := range b.nodes {
		nodes = append(nodes, id)
	}
	slices.SortFunc(nodes, Compare)

	index := make(map[NodeID]int64, len(nodes))
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i, id := range nodes {
		index[id] = int64(i)
		g.AddNode(simple.Node(i))
	}

	pairs := make([]Pair, 0, len(b.edges))
	for pair, p := range b.edges {
		pairs = append(pairs, pair)
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(index[pair.U]), simple.Node(index[pair.V]), p))
	}
	slices.SortFunc(pairs, ComparePairs)

	return &Model{
		nodes: nodes,
		index: index,
		pairs: pairs,
		g:     g,
	}
}

// FromEdges builds a Model from a list of edges.
func FromEdges(edges []Edge) (*Model, error) {
	b := NewBuilder()
	for i, e := range edges {
		if err := b.AddEdge(e.U, e.V, e.P); err != nil {
			return nil, &InputError{Line: i + 1, Err: err}
		}
	}
	return b.Build(), nil
}

// Provider is any source of nodes and edge probabilities.
type Provider interface {
	ListNodes() []NodeID
	EdgeProbability(u, v NodeID) (float64, bool)
}

// FromProvider snapshots a provider into a Model, querying every unordered
// pair of listed nodes once.
func FromProvider(p Provider) (*Model, error) {
	if m, ok := p.(*Model); ok {
		return m, nil
	}
	nodes := p.ListNodes()
	b := NewBuilder()
	for _, n := range nodes {
		b.AddNode(n)
	}
	for i, u := range nodes {
		for _, v := range nodes[i+1:] {
			if u == v {
				continue
			}
			prob, ok := p.EdgeProbability(u, v)
			if !ok {
				continue
			}
			if err := b.AddEdge(u, v, prob); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}
