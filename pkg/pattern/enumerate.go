package pattern

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/types"
)

// checkEvery is how many candidates are examined between context checks
const checkEvery = 4096

// Enumerate returns the embeddings of p in m in a deterministic order.
//
// A candidate binding becomes an embedding only if it satisfies the kind's
// canonical order and every positive literal names an edge variable of m.
// Negative literals on pairs without a variable are dropped, since that
// non-edge is certain. Repeated bindings are reported once.
func Enumerate(ctx context.Context, m *graph.Model, p Pattern) ([]Embedding, error) {
	r := ruleFor(p.Kind)
	if r == nil {
		return nil, &ArgumentError{Pattern: p.Kind.String(), Err: types.ErrInvalidPattern}
	}
	if m == nil || m.NumNodes() == 0 {
		return nil, nil
	}
	if p.Kind == HopNeighborhood && !m.HasNode(p.Start) {
		return nil, &ArgumentError{Pattern: p.Kind.String(), Arg: ArgStart, Value: string(p.Start),
			Err: fmt.Errorf("node not in graph: %w", types.ErrMissingArgument)}
	}
	if p.Kind == DegreeAtLeast && p.Node != "" && !m.HasNode(p.Node) {
		return nil, &ArgumentError{Pattern: p.Kind.String(), Arg: ArgNode, Value: string(p.Node),
			Err: fmt.Errorf("node not in graph: %w", types.ErrMissingArgument)}
	}

	var (
		out  []Embedding
		seen = make(map[string]struct{})
		n    int
		err  error
	)
	r.candidates(m, p, func(roles []graph.NodeID) bool {
		n++
		if n%checkEvery == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		if !r.canonical(m, p, roles) {
			return true
		}
		lits, ok := resolve(m, r.literals(roles))
		if !ok {
			return true
		}
		id := bindingID(roles)
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		out = append(out, Embedding{Roles: roles, Literals: lits, Key: r.key(roles)})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolve keeps literals whose variable exists and reports false when a
// positive literal has no variable.
func resolve(m *graph.Model, lits []Literal) ([]Literal, bool) {
	out := lits[:0]
	for _, l := range lits {
		if m.HasEdge(l.Pair.U, l.Pair.V) {
			out = append(out, l)
			continue
		}
		if l.Positive {
			return nil, false
		}
	}
	return out, true
}

func bindingID(roles []graph.NodeID) string {
	var b strings.Builder
	for i, r := range roles {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(string(r))
	}
	return b.String()
}
