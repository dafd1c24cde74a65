package eval

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/soundprediction/graphconf/pkg/dnf"
	"github.com/soundprediction/graphconf/pkg/types"
	"github.com/soundprediction/graphconf/pkg/utils"
)

// Estimator selects the per-trial outcome
type Estimator int

const (
	// ZeroOne succeeds when the chosen clause is the lowest-indexed clause
	// the sampled assignment satisfies.
	ZeroOne Estimator = iota
	// Fractional scores 1/c, where c is the number of clauses the sampled
	// assignment satisfies. Same mean, lower variance.
	Fractional
)

func (e Estimator) String() string {
	if e == Fractional {
		return "fractional"
	}
	return "zero-one"
}

// ParseEstimator accepts "zero-one" and "fractional"
func ParseEstimator(s string) (Estimator, error) {
	switch s {
	case "", "zero-one", "zeroone", "coverage":
		return ZeroOne, nil
	case "fractional", "vazirani":
		return Fractional, nil
	}
	return 0, fmt.Errorf("unknown estimator %q: %w", s, types.ErrInvalidArgument)
}

// sampler holds the clause distribution of one formula
type sampler struct {
	f         *dnf.Formula
	cum       []float64
	total     float64
	estimator Estimator
}

// newSampler returns nil when the clause weights sum to zero.
func newSampler(f *dnf.Formula, estimator Estimator) (*sampler, error) {
	if f == nil || f.Empty() {
		return nil, nil
	}
	cum := make([]float64, len(f.Clauses))
	total := 0.0
	for i, c := range f.Clauses {
		w := c.Weight(f.Vars)
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("clause %d weight %v: %w", i, w, types.ErrNumerical)
		}
		total += w
		cum[i] = total
	}
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return nil, fmt.Errorf("total weight %v: %w", total, types.ErrNumerical)
	}
	if total == 0 {
		return nil, nil
	}
	return &sampler{f: f, cum: cum, total: total, estimator: estimator}, nil
}

// pick draws clause i with probability w_i/W
func (s *sampler) pick(r *rand.Rand) int {
	u := r.Float64() * s.total
	i := sort.Search(len(s.cum), func(j int) bool { return s.cum[j] > u })
	if i == len(s.cum) {
		// rounding can leave u at the top of the last interval
		i = len(s.cum) - 1
		for i > 0 && s.cum[i] == s.cum[i-1] {
			i--
		}
	}
	return i
}

// trial runs one coverage trial using assign as scratch space.
func (s *sampler) trial(r *rand.Rand, assign []bool) float64 {
	i := s.pick(r)
	for v := range assign {
		assign[v] = r.Float64() < s.f.Vars[v].P
	}
	for _, l := range s.f.Clauses[i] {
		assign[l.Var] = l.Positive
	}

	if s.estimator == Fractional {
		c := 0
		for _, clause := range s.f.Clauses {
			if clause.Satisfied(assign) {
				c++
			}
		}
		return 1 / float64(c)
	}

	for _, clause := range s.f.Clauses[:i] {
		if clause.Satisfied(assign) {
			return 0
		}
	}
	return 1
}

// worker owns one random stream and its scratch assignment
type worker struct {
	rng    *rand.Rand
	assign []bool
}

// trials draws outcomes across a fixed set of workers. Each call splits the
// requested count evenly and combines results in worker order, so the
// sequence of outcomes depends only on the seed, the stream and the worker
// count.
type trials struct {
	s       *sampler
	workers []*worker
	drawn   int64
}

// checkEvery is how many trials a worker runs between context checks
const checkEvery = 1 << 14

func newTrials(s *sampler, src *Source, stream uint64, workers int) *trials {
	workers = max(workers, 1)
	t := &trials{s: s, workers: make([]*worker, workers)}
	for i := range t.workers {
		t.workers[i] = &worker{
			rng:    src.Stream(StreamID(stream, uint64(i))),
			assign: make([]bool, s.f.NumVars()),
		}
	}
	return t
}

// each runs fn on every worker with its share of n and returns the results
// in worker order.
func each[R any](ctx context.Context, t *trials, n int64, fn func(w *worker, share int) (R, error)) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	shares := utils.Split(int(n), len(t.workers))
	fns := make([]func() (R, error), len(shares))
	for i, share := range shares {
		w := t.workers[i]
		fns[i] = func() (R, error) {
			return fn(w, share)
		}
	}

	results, errs := utils.ExecuteWithResults(ctx, len(fns), fns...)
	if err := utils.FirstError(errs); err != nil {
		return nil, err
	}
	return results, nil
}

// draw returns n outcomes. Callers keep n bounded; use sum for large counts.
func (t *trials) draw(ctx context.Context, n int64) ([]float64, error) {
	parts, err := each(ctx, t, n, func(w *worker, share int) ([]float64, error) {
		out := make([]float64, share)
		for j := range out {
			out[j] = t.s.trial(w.rng, w.assign)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, n)
	for _, part := range parts {
		out = append(out, part...)
	}
	t.drawn += n
	return out, nil
}

// sum returns the total of n outcomes without keeping them
func (t *trials) sum(ctx context.Context, n int64) (float64, error) {
	parts, err := each(ctx, t, n, func(w *worker, share int) (float64, error) {
		var total float64
		for j := range share {
			if j%checkEvery == 0 && ctx.Err() != nil {
				return 0, ctx.Err()
			}
			total += t.s.trial(w.rng, w.assign)
		}
		return total, nil
	})
	if err != nil {
		return 0, err
	}
	var total float64
	for _, part := range parts {
		total += part
	}
	t.drawn += n
	return total, nil
}

// pairs draws n pairs of outcomes (x, y) and returns the sum of (x-y)^2/2.
// A pair never spans two workers.
func (t *trials) pairs(ctx context.Context, n int64) (float64, error) {
	parts, err := each(ctx, t, n, func(w *worker, share int) (float64, error) {
		var total float64
		for j := range share {
			if j%checkEvery == 0 && ctx.Err() != nil {
				return 0, ctx.Err()
			}
			d := t.s.trial(w.rng, w.assign) - t.s.trial(w.rng, w.assign)
			total += d * d / 2
		}
		return total, nil
	})
	if err != nil {
		return 0, err
	}
	var total float64
	for _, part := range parts {
		total += part
	}
	t.drawn += 2 * n
	return total, nil
}
