package dnf

import (
	"slices"
	"strconv"
	"strings"

	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/pattern"
)

// Group is the formula of one result key of a set-valued pattern
type Group struct {
	Key     string
	Formula *Formula
}

type builder struct {
	m       *graph.Model
	f       *Formula
	index   map[graph.Pair]int
	clauses map[string]struct{}
}

func newBuilder(m *graph.Model) *builder {
	return &builder{
		m:       m,
		f:       &Formula{},
		index:   make(map[graph.Pair]int),
		clauses: make(map[string]struct{}),
	}
}

func (b *builder) variable(pair graph.Pair) int {
	if i, ok := b.index[pair]; ok {
		return i
	}
	p, _ := b.m.EdgeProbability(pair.U, pair.V)
	i := len(b.f.Vars)
	b.f.Vars = append(b.f.Vars, Var{Pair: pair, P: p})
	b.index[pair] = i
	return i
}

// add appends the clause of one embedding. Repeated literals collapse; a
// clause requiring both polarities of a variable can never hold and is
// skipped, as is a clause already present.
func (b *builder) add(e pattern.Embedding) {
	polarity := make(map[graph.Pair]bool, len(e.Literals))
	pairs := make([]graph.Pair, 0, len(e.Literals))
	for _, l := range e.Literals {
		if prev, ok := polarity[l.Pair]; ok {
			if prev != l.Positive {
				return
			}
			continue
		}
		polarity[l.Pair] = l.Positive
		pairs = append(pairs, l.Pair)
	}

	c := make(Clause, len(pairs))
	for i, pair := range pairs {
		c[i] = Lit{Var: b.variable(pair), Positive: polarity[pair]}
	}
	slices.SortFunc(c, func(x, y Lit) int { return x.Var - y.Var })

	id := clauseID(c)
	if _, ok := b.clauses[id]; ok {
		return
	}
	b.clauses[id] = struct{}{}
	b.f.Clauses = append(b.f.Clauses, c)
}

func clauseID(c Clause) string {
	var sb strings.Builder
	for _, l := range c {
		if l.Positive {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('-')
		}
		sb.WriteString(strconv.Itoa(l.Var))
	}
	return sb.String()
}

// Build returns the disjunction of one clause per embedding.
func Build(m *graph.Model, embeddings []pattern.Embedding) *Formula {
	b := newBuilder(m)
	for _, e := range embeddings {
		b.add(e)
	}
	return b.f
}

// BuildGrouped returns one formula per result key, sorted by key.
func BuildGrouped(m *graph.Model, embeddings []pattern.Embedding) []Group {
	builders := make(map[string]*builder)
	var keys []string
	for _, e := range embeddings {
		b, ok := builders[e.Key]
		if !ok {
			b = newBuilder(m)
			builders[e.Key] = b
			keys = append(keys, e.Key)
		}
		b.add(e)
	}
	slices.SortFunc(keys, pattern.CompareKeys)

	groups := make([]Group, len(keys))
	for i, k := range keys {
		groups[i] = Group{Key: k, Formula: builders[k].f}
	}
	return groups
}
