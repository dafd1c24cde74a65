package eval

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/soundprediction/graphconf/pkg/dnf"
	"github.com/soundprediction/graphconf/pkg/types"
	"github.com/soundprediction/graphconf/pkg/utils"
)

// Stopping selects how KarpLuby decides it has sampled enough
type Stopping int

const (
	// StoppingRule samples until the outcome sum reaches a threshold set by
	// epsilon and delta.
	StoppingRule Stopping = iota
	// Optimal is the three-phase approximation algorithm of Dagum, Karp,
	// Luby and Ross, which also estimates the outcome variance and needs
	// fewer trials when it is small.
	Optimal
)

func (s Stopping) String() string {
	if s == Optimal {
		return "optimal"
	}
	return "sra"
}

// ParseStopping accepts "sra" and "optimal"
func ParseStopping(s string) (Stopping, error) {
	switch s {
	case "", "sra", "stopping-rule":
		return StoppingRule, nil
	case "optimal", "aa":
		return Optimal, nil
	}
	return 0, fmt.Errorf("unknown stopping rule %q: %w", s, types.ErrInvalidArgument)
}

const (
	minBatch = 1024
	maxBatch = 1 << 20
)

// KarpLuby is the (epsilon, delta) approximation evaluator.
type KarpLuby struct {
	Source    *Source
	Workers   int
	Stopping  Stopping
	Estimator Estimator
	// MaxTrials aborts a round with ErrTrialBudget once exceeded; 0 means no limit
	MaxTrials int64
	Logger    *slog.Logger
}

// upsilon is the DKLR constant 4(e-2)ln(2/delta)/epsilon^2
func upsilon(eps, delta float64) float64 {
	return 4 * (math.E - 2) * math.Log(2/delta) / (eps * eps)
}

// Evaluate implements Evaluator. The estimate of the formula probability is
// W times the estimated mean trial outcome, where W is the sum of clause weights.
func (k KarpLuby) Evaluate(ctx context.Context, f *dnf.Formula, p Params) (Result, error) {
	if err := checkEpsilon(p.Epsilon); err != nil {
		return Result{}, err
	}
	if err := checkDelta(p.Delta); err != nil {
		return Result{}, err
	}
	s, err := newSampler(f, k.Estimator)
	if err != nil || s == nil {
		return Result{}, err
	}

	src := k.Source
	if src == nil {
		src = NewSource(0)
	}
	workers := k.Workers
	if workers <= 0 {
		workers = utils.DefaultWorkers()
	}
	t := newTrials(s, src, p.Stream, workers)

	var mu float64
	switch k.Stopping {
	case Optimal:
		mu, err = k.optimal(ctx, t, p.Epsilon, p.Delta)
	default:
		mu, err = k.stoppingRule(ctx, t, p.Epsilon, p.Delta)
	}
	if err != nil {
		return Result{}, err
	}

	estimate := s.total * mu
	if math.IsNaN(estimate) || math.IsInf(estimate, 0) {
		return Result{}, fmt.Errorf("estimate %v: %w", estimate, types.ErrNumerical)
	}
	if k.Logger != nil {
		k.Logger.Debug("Karp-Luby estimate",
			"clauses", f.Len(), "vars", f.NumVars(), "weight", s.total,
			"trials", t.drawn, "estimate", estimate)
	}
	return Result{Estimate: clamp01(estimate), Trials: t.drawn}, nil
}

func (k KarpLuby) budget(used, next int64) error {
	if k.MaxTrials > 0 && used+next > k.MaxTrials {
		return fmt.Errorf("need more than %d trials: %w", k.MaxTrials, types.ErrTrialBudget)
	}
	return nil
}

// stoppingRule runs trials until their sum S reaches 1+(1+eps)*upsilon and
// returns that threshold divided by the number of trials it took. Trials
// drawn past the stopping point are discarded and not counted. Batches are
// kept whole to find the stopping index, so they never exceed maxBatch.
func (k KarpLuby) stoppingRule(ctx context.Context, t *trials, eps, delta float64) (float64, error) {
	threshold := 1 + (1+eps)*upsilon(eps, delta)

	var (
		sum   float64
		n     int64
		batch = int64(minBatch * len(t.workers))
		start = t.drawn
	)
	for {
		if err := k.budget(n, 1); err != nil {
			return 0, err
		}
		if k.MaxTrials > 0 {
			batch = min(batch, k.MaxTrials-n)
		}
		outcomes, err := t.draw(ctx, batch)
		if err != nil {
			return 0, err
		}
		for _, x := range outcomes {
			n++
			sum += x
			if sum >= threshold {
				t.drawn = start + n
				return threshold / float64(n), nil
			}
		}
		batch = min(batch*2, maxBatch)
	}
}

// optimal runs the three phases of the DKLR approximation algorithm.
func (k KarpLuby) optimal(ctx context.Context, t *trials, eps, delta float64) (float64, error) {
	u := upsilon(eps, delta)
	sqrtEps := math.Sqrt(eps)
	u2 := 2 * (1 + sqrtEps) * (1 + 2*sqrtEps) * (1 + math.Log(1.5)/math.Log(2/delta)) * u

	// phase 1: rough estimate with the stopping rule
	mu, err := k.stoppingRule(ctx, t, min(0.5, sqrtEps), delta/3)
	if err != nil {
		return 0, err
	}

	// phase 2: variance estimate from differences of paired trials
	n2 := int64(math.Ceil(u2 * eps / mu))
	if err := k.budget(t.drawn, 2*n2); err != nil {
		return 0, err
	}
	s2, err := t.pairs(ctx, n2)
	if err != nil {
		return 0, err
	}
	rho := max(s2/float64(n2), eps*mu)

	// phase 3: final mean
	n3 := int64(math.Ceil(u2 * rho / (mu * mu)))
	if err := k.budget(t.drawn, n3); err != nil {
		return 0, err
	}
	s3, err := t.sum(ctx, n3)
	if err != nil {
		return 0, err
	}
	return s3 / float64(n3), nil
}
