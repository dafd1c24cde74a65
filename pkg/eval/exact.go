package eval

import (
	"context"
	"fmt"

	"github.com/soundprediction/graphconf/pkg/dnf"
	"github.com/soundprediction/graphconf/pkg/types"
)

const (
	DefaultMaxVars = 20
	// MaxVarsLimit is the largest MaxVars accepted
	MaxVarsLimit = 30
)

// Exact sums the probability of every truth assignment that satisfies the
// formula. Its cost is exponential in the number of distinct variables and
// independent of graph size.
type Exact struct {
	// MaxVars bounds the variable count; larger formulas are rejected with
	// ErrFormulaTooLarge. Zero means DefaultMaxVars.
	MaxVars int
}

type clauseMask struct {
	pos, neg uint64
}

// Evaluate implements Evaluator. Epsilon and delta are ignored.
//
// Assignments are walked one variable at a time. Once a partial assignment
// satisfies a clause the whole remaining subtree is counted at once, and
// once it falsifies every clause the subtree is skipped, so the result is
// the exact sum over all 2^k assignments.
func (e Exact) Evaluate(ctx context.Context, f *dnf.Formula, _ Params) (Result, error) {
	limit := e.MaxVars
	if limit <= 0 {
		limit = DefaultMaxVars
	}
	limit = min(limit, MaxVarsLimit)

	if f == nil || f.Empty() {
		return Result{}, nil
	}
	k := f.NumVars()
	if k > limit {
		return Result{}, fmt.Errorf("%d variables, limit %d: %w", k, limit, types.ErrFormulaTooLarge)
	}

	masks := make([]clauseMask, len(f.Clauses))
	for i, c := range f.Clauses {
		for _, l := range c {
			if l.Positive {
				masks[i].pos |= 1 << l.Var
			} else {
				masks[i].neg |= 1 << l.Var
			}
		}
	}
	probs := make([]float64, k)
	for i, v := range f.Vars {
		probs[i] = v.P
	}

	var (
		visited int
		err     error
		walk    func(d int, t, fl uint64, p float64) float64
	)
	walk = func(d int, t, fl uint64, p float64) float64 {
		if err != nil || p == 0 {
			return 0
		}
		visited++
		if visited&0xffff == 0 {
			if err = ctx.Err(); err != nil {
				return 0
			}
		}
		alive := false
		for _, m := range masks {
			if m.pos&fl != 0 || m.neg&t != 0 {
				continue
			}
			if m.pos&^t == 0 && m.neg&^fl == 0 {
				return p
			}
			alive = true
		}
		if !alive || d == k {
			return 0
		}
		bit := uint64(1) << d
		return walk(d+1, t|bit, fl, p*probs[d]) + walk(d+1, t, fl|bit, p*(1-probs[d]))
	}

	sum := walk(0, 0, 0, 1)
	if err != nil {
		return Result{}, err
	}
	return Result{Estimate: clamp01(sum)}, nil
}
