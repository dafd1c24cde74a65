package eval

import (
	"context"
	"fmt"
	"math"

	"github.com/soundprediction/graphconf/pkg/dnf"
	"github.com/soundprediction/graphconf/pkg/types"
	"github.com/soundprediction/graphconf/pkg/utils"
)

// DefaultTrialFactor sets the heuristic trial count ceil(12/epsilon^2)
const DefaultTrialFactor = 12.0

// Heuristic runs the Karp-Luby trial a fixed number of times chosen from
// epsilon alone. The result targets a relative error of epsilon but is a
// heuristic: no confidence level is certified and delta is ignored.
type Heuristic struct {
	Source      *Source
	Workers     int
	TrialFactor float64
	// MaxTrials rejects a round with ErrTrialBudget when it would need more; 0 means no limit
	MaxTrials int64
}

// Trials returns the number of trials used for eps
func (h Heuristic) Trials(eps float64) int64 {
	factor := h.TrialFactor
	if factor <= 0 {
		factor = DefaultTrialFactor
	}
	return int64(math.Ceil(factor / (eps * eps)))
}

// Evaluate implements Evaluator
func (h Heuristic) Evaluate(ctx context.Context, f *dnf.Formula, p Params) (Result, error) {
	if err := checkEpsilon(p.Epsilon); err != nil {
		return Result{}, err
	}
	s, err := newSampler(f, ZeroOne)
	if err != nil || s == nil {
		return Result{}, err
	}

	src := h.Source
	if src == nil {
		src = NewSource(0)
	}
	workers := h.Workers
	if workers <= 0 {
		workers = utils.DefaultWorkers()
	}
	n := h.Trials(p.Epsilon)
	if h.MaxTrials > 0 && n > h.MaxTrials {
		return Result{}, fmt.Errorf("need %d trials, limit %d: %w", n, h.MaxTrials, types.ErrTrialBudget)
	}
	t := newTrials(s, src, p.Stream, workers)
	sum, err := t.sum(ctx, n)
	if err != nil {
		return Result{}, err
	}
	return Result{Estimate: clamp01(s.total * sum / float64(n)), Trials: n}, nil
}
