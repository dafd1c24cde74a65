package pattern

import (
	"strings"

	"github.com/soundprediction/graphconf/pkg/graph"
)

// Literal is one polarity of an edge variable
type Literal struct {
	Pair     graph.Pair
	Positive bool
}

func (l Literal) String() string {
	if l.Positive {
		return l.Pair.String()
	}
	return "!" + l.Pair.String()
}

// Embedding binds the pattern's roles to nodes.
type Embedding struct {
	Roles    []graph.NodeID
	Literals []Literal
	// Key groups embeddings of set-valued patterns; empty otherwise.
	Key string
}

func joinKey(nodes ...graph.NodeID) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = string(n)
	}
	return strings.Join(parts, ",")
}

// CompareKeys orders result keys node by node in node order.
func CompareKeys(a, b string) int {
	as, bs := strings.Split(a, ","), strings.Split(b, ",")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := graph.Compare(graph.NodeID(as[i]), graph.NodeID(bs[i])); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

func pos(u, v graph.NodeID) Literal {
	return Literal{Pair: graph.MakePair(u, v), Positive: true}
}

func neg(u, v graph.NodeID) Literal {
	return Literal{Pair: graph.MakePair(u, v)}
}

// pathLiterals returns the positive literals of consecutive nodes
func pathLiterals(nodes []graph.NodeID) []Literal {
	lits := make([]Literal, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		lits = append(lits, pos(nodes[i-1], nodes[i]))
	}
	return lits
}
