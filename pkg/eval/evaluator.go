package eval

import (
	"context"
	"fmt"

	"github.com/soundprediction/graphconf/pkg/dnf"
	"github.com/soundprediction/graphconf/pkg/types"
)

// Params are the per-call precision targets
type Params struct {
	Epsilon float64
	Delta   float64
	// Stream selects the random streams used by sampling evaluators
	Stream uint64
}

// Result of one evaluation
type Result struct {
	Estimate float64
	// Trials is the number of sampling trials used, 0 for exact evaluation
	Trials int64
}

// Evaluator computes the satisfaction probability of a formula
type Evaluator interface {
	Evaluate(ctx context.Context, f *dnf.Formula, p Params) (Result, error)
}

func checkEpsilon(eps float64) error {
	if !(eps > 0 && eps < 1) {
		return fmt.Errorf("epsilon %v: %w", eps, types.ErrEpsilonDeltaOutOfRange)
	}
	return nil
}

func checkDelta(delta float64) error {
	if !(delta > 0 && delta < 1) {
		return fmt.Errorf("delta %v: %w", delta, types.ErrEpsilonDeltaOutOfRange)
	}
	return nil
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
