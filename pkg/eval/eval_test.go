package eval

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"testing"

	"github.com/soundprediction/graphconf/pkg/dnf"
	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/pattern"
	"github.com/soundprediction/graphconf/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oracle sums the probability of every possible world satisfying f
func oracle(f *dnf.Formula) float64 {
	k := f.NumVars()
	assign := make([]bool, k)
	total := 0.0
	for w := 0; w < 1<<k; w++ {
		p := 1.0
		for v := 0; v < k; v++ {
			assign[v] = w&(1<<v) != 0
			if assign[v] {
				p *= f.Vars[v].P
			} else {
				p *= 1 - f.Vars[v].P
			}
		}
		if f.Satisfied(assign) {
			total += p
		}
	}
	return total
}

func formulaFor(t *testing.T, edges []graph.Edge, id string, args pattern.Args) *dnf.Formula {
	t.Helper()
	m, err := graph.FromEdges(edges)
	require.NoError(t, err)
	p, err := pattern.Parse(id, args)
	require.NoError(t, err)
	embs, err := pattern.Enumerate(context.Background(), m, p)
	require.NoError(t, err)
	return dnf.Build(m, embs)
}

func triangleEdges(p float64) []graph.Edge {
	return []graph.Edge{{U: "1", V: "2", P: p}, {U: "2", V: "3", P: p}, {U: "1", V: "3", P: p}}
}

func k4Edges(p float64) []graph.Edge {
	return []graph.Edge{
		{U: "1", V: "2", P: p}, {U: "1", V: "3", P: p}, {U: "1", V: "4", P: p},
		{U: "2", V: "3", P: p}, {U: "2", V: "4", P: p}, {U: "3", V: "4", P: p},
	}
}

// randomFormula builds a formula over k variables with random clauses
func randomFormula(r *rand.Rand, k, clauses int) *dnf.Formula {
	f := &dnf.Formula{Vars: make([]dnf.Var, k)}
	for i := range f.Vars {
		f.Vars[i] = dnf.Var{Pair: graph.MakePair(graph.NodeID(rune('a'+i)), "z"), P: r.Float64()}
	}
	for range clauses {
		used := map[int]bool{}
		var c dnf.Clause
		for range 1 + r.IntN(3) {
			v := r.IntN(k)
			if used[v] {
				continue
			}
			used[v] = true
			c = append(c, dnf.Lit{Var: v, Positive: r.IntN(4) != 0})
		}
		f.Clauses = append(f.Clauses, c)
	}
	return f
}

func TestExactScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("certain triangle", func(t *testing.T) {
		res, err := Exact{}.Evaluate(ctx, formulaFor(t, triangleEdges(1), "triangle", nil), Params{})
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Estimate)
	})

	t.Run("half-probability triangle", func(t *testing.T) {
		res, err := Exact{}.Evaluate(ctx, formulaFor(t, triangleEdges(0.5), "triangle", nil), Params{})
		require.NoError(t, err)
		assert.InDelta(t, 0.125, res.Estimate, 1e-12)
		assert.Zero(t, res.Trials)
	})

	t.Run("no edges", func(t *testing.T) {
		for _, id := range []string{"triangle", "four-clique", "path3"} {
			res, err := Exact{}.Evaluate(ctx, formulaFor(t, nil, id, nil), Params{})
			require.NoError(t, err)
			assert.Zero(t, res.Estimate, id)
		}
	})

	t.Run("certain edges give pattern existence", func(t *testing.T) {
		path := []graph.Edge{{U: "1", V: "2", P: 1}, {U: "2", V: "3", P: 1}, {U: "3", V: "4", P: 1}}
		res, err := Exact{}.Evaluate(ctx, formulaFor(t, path, "path3", nil), Params{})
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Estimate)

		res, err = Exact{}.Evaluate(ctx, formulaFor(t, path, "triangle", nil), Params{})
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.Estimate)

		// closing the square makes 1-2-3-4 non-induced with certainty
		square := append(path, graph.Edge{U: "1", V: "4", P: 1})
		res, err = Exact{}.Evaluate(ctx, formulaFor(t, square, "path3", nil), Params{})
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.Estimate)
	})
}

func TestExactMatchesOracle(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := range 50 {
		k := 1 + r.IntN(10)
		f := randomFormula(r, k, 1+r.IntN(8))
		res, err := Exact{}.Evaluate(context.Background(), f, Params{})
		require.NoError(t, err)
		assert.InDelta(t, oracle(f), res.Estimate, 1e-9, "formula %d: %s", i, f)
	}

	f := formulaFor(t, k4Edges(0.3), "path3", nil)
	res, err := Exact{}.Evaluate(context.Background(), f, Params{})
	require.NoError(t, err)
	assert.InDelta(t, oracle(f), res.Estimate, 1e-9)
}

func TestExactDeterministic(t *testing.T) {
	f := formulaFor(t, k4Edges(0.4), "triangle", nil)
	a, err := Exact{}.Evaluate(context.Background(), f, Params{})
	require.NoError(t, err)
	b, err := Exact{}.Evaluate(context.Background(), f, Params{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExactTooLarge(t *testing.T) {
	f := formulaFor(t, k4Edges(0.5), "triangle", nil)
	_, err := Exact{MaxVars: 5}.Evaluate(context.Background(), f, Params{})
	assert.ErrorIs(t, err, types.ErrFormulaTooLarge)
}

func TestKarpLubyScenarioC(t *testing.T) {
	f := formulaFor(t, triangleEdges(0.5), "triangle", nil)
	kl := KarpLuby{Source: NewSource(42), Workers: 2}

	inside := 0
	const runs = 40
	for i := range runs {
		res, err := kl.Evaluate(context.Background(), f, Params{Epsilon: 0.1, Delta: 0.05, Stream: uint64(i)})
		require.NoError(t, err)
		if res.Estimate >= 0.1125 && res.Estimate <= 0.1375 {
			inside++
		}
	}
	assert.GreaterOrEqual(t, float64(inside)/runs, 0.95)
}

func TestKarpLubyGuarantee(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	f := formulaFor(t, k4Edges(0.5), "triangle", nil)
	exact, err := Exact{}.Evaluate(context.Background(), f, Params{})
	require.NoError(t, err)

	const (
		runs  = 200
		eps   = 0.1
		delta = 0.1
	)
	for _, est := range []Estimator{ZeroOne, Fractional} {
		t.Run(est.String(), func(t *testing.T) {
			kl := KarpLuby{Source: NewSource(2024), Workers: 4, Estimator: est}
			misses := 0
			for i := range runs {
				res, err := kl.Evaluate(context.Background(), f, Params{Epsilon: eps, Delta: delta, Stream: uint64(i)})
				require.NoError(t, err)
				if math.Abs(res.Estimate-exact.Estimate) > eps*exact.Estimate {
					misses++
				}
			}
			// delta plus three standard deviations of a binomial(200, delta) fraction
			tolerance := 3 * math.Sqrt(delta*(1-delta)/runs)
			assert.LessOrEqual(t, float64(misses)/runs, delta+tolerance)
		})
	}
}

func TestKarpLubyOptimal(t *testing.T) {
	f := formulaFor(t, k4Edges(0.5), "triangle", nil)
	exact, err := Exact{}.Evaluate(context.Background(), f, Params{})
	require.NoError(t, err)

	kl := KarpLuby{Source: NewSource(5), Workers: 3, Stopping: Optimal, Estimator: Fractional}
	res, err := kl.Evaluate(context.Background(), f, Params{Epsilon: 0.05, Delta: 0.01})
	require.NoError(t, err)
	assert.InEpsilon(t, exact.Estimate, res.Estimate, 0.05)
	assert.Positive(t, res.Trials)
}

func TestKarpLubyReproducible(t *testing.T) {
	f := formulaFor(t, k4Edges(0.3), "path3", nil)
	run := func() Result {
		kl := KarpLuby{Source: NewSource(99), Workers: 4}
		res, err := kl.Evaluate(context.Background(), f, Params{Epsilon: 0.2, Delta: 0.1, Stream: 3})
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run(), run())
}

func TestKarpLubyBoundaries(t *testing.T) {
	ctx := context.Background()
	kl := KarpLuby{Source: NewSource(1), Workers: 1}

	t.Run("empty formula", func(t *testing.T) {
		res, err := kl.Evaluate(ctx, &dnf.Formula{}, Params{Epsilon: 0.1, Delta: 0.1})
		require.NoError(t, err)
		assert.Equal(t, Result{}, res)
	})

	t.Run("zero weight", func(t *testing.T) {
		res, err := kl.Evaluate(ctx, formulaFor(t, triangleEdges(0), "triangle", nil), Params{Epsilon: 0.1, Delta: 0.1})
		require.NoError(t, err)
		assert.Zero(t, res.Estimate)
		assert.Zero(t, res.Trials)
	})

	t.Run("epsilon and delta range", func(t *testing.T) {
		f := formulaFor(t, triangleEdges(0.5), "triangle", nil)
		for _, p := range []Params{{Epsilon: 0, Delta: 0.1}, {Epsilon: 1, Delta: 0.1}, {Epsilon: 0.1, Delta: 0}, {Epsilon: 0.1, Delta: 1.5}} {
			_, err := kl.Evaluate(ctx, f, p)
			assert.ErrorIs(t, err, types.ErrEpsilonDeltaOutOfRange)
		}
	})

	t.Run("non-finite weight", func(t *testing.T) {
		f := &dnf.Formula{
			Vars:    []dnf.Var{{P: math.NaN()}},
			Clauses: []dnf.Clause{{{Var: 0, Positive: true}}},
		}
		_, err := kl.Evaluate(ctx, f, Params{Epsilon: 0.1, Delta: 0.1})
		assert.ErrorIs(t, err, types.ErrNumerical)
	})

	t.Run("trial budget", func(t *testing.T) {
		limited := KarpLuby{Source: NewSource(1), Workers: 1, MaxTrials: 100}
		_, err := limited.Evaluate(ctx, formulaFor(t, triangleEdges(0.5), "triangle", nil), Params{Epsilon: 0.01, Delta: 0.01})
		assert.ErrorIs(t, err, types.ErrTrialBudget)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := kl.Evaluate(cctx, formulaFor(t, triangleEdges(0.5), "triangle", nil), Params{Epsilon: 0.1, Delta: 0.1})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHeuristic(t *testing.T) {
	f := formulaFor(t, k4Edges(0.5), "triangle", nil)
	exact, err := Exact{}.Evaluate(context.Background(), f, Params{})
	require.NoError(t, err)

	h := Heuristic{Source: NewSource(3), Workers: 2}
	assert.Equal(t, int64(1200), h.Trials(0.1))

	res, err := h.Evaluate(context.Background(), f, Params{Epsilon: 0.05})
	require.NoError(t, err)
	assert.Equal(t, h.Trials(0.05), res.Trials)
	assert.InDelta(t, exact.Estimate, res.Estimate, 0.1)

	_, err = h.Evaluate(context.Background(), f, Params{Epsilon: 2})
	assert.ErrorIs(t, err, types.ErrEpsilonDeltaOutOfRange)
}

func TestHeuristicLargeRoundMemory(t *testing.T) {
	if testing.Short() {
		t.Skip("runs millions of trials")
	}
	f := formulaFor(t, triangleEdges(0.5), "triangle", nil)
	h := Heuristic{Source: NewSource(8), Workers: 4}
	const eps = 1.0 / 512
	require.Equal(t, int64(3_145_728), h.Trials(eps))

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	res, err := h.Evaluate(context.Background(), f, Params{Epsilon: eps})
	runtime.ReadMemStats(&after)
	require.NoError(t, err)

	assert.Equal(t, int64(3_145_728), res.Trials)
	assert.InDelta(t, 0.125, res.Estimate, 0.001)
	// outcomes are summed per worker, never buffered
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestTrialBudgetAllMethods(t *testing.T) {
	ctx := context.Background()
	f := formulaFor(t, triangleEdges(0.5), "triangle", nil)

	t.Run("heuristic", func(t *testing.T) {
		h := Heuristic{Source: NewSource(1), Workers: 2, MaxTrials: 1000}
		_, err := h.Evaluate(ctx, f, Params{Epsilon: 1e-4})
		assert.ErrorIs(t, err, types.ErrTrialBudget)

		res, err := h.Evaluate(ctx, f, Params{Epsilon: 0.25})
		require.NoError(t, err)
		assert.Equal(t, int64(192), res.Trials)
	})

	t.Run("optimal", func(t *testing.T) {
		kl := KarpLuby{Source: NewSource(1), Workers: 2, Stopping: Optimal, MaxTrials: 100}
		_, err := kl.Evaluate(ctx, f, Params{Epsilon: 0.01, Delta: 0.01})
		assert.ErrorIs(t, err, types.ErrTrialBudget)
	})
}

func TestKarpLubyOptimalReproducible(t *testing.T) {
	f := formulaFor(t, k4Edges(0.4), "triangle", nil)
	run := func(workers int) Result {
		kl := KarpLuby{Source: NewSource(17), Workers: workers, Stopping: Optimal}
		res, err := kl.Evaluate(context.Background(), f, Params{Epsilon: 0.1, Delta: 0.05, Stream: 9})
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run(3), run(3))
	assert.Equal(t, run(1), run(1))
}

func TestSourceStreams(t *testing.T) {
	src := NewSource(10)
	assert.Equal(t, uint64(10), src.Seed())
	assert.Equal(t, src.Stream(1).Uint64(), src.Stream(1).Uint64())
	assert.NotEqual(t, src.Stream(1).Uint64(), src.Stream(2).Uint64())
	assert.NotEqual(t, StreamID(1, 0), StreamID(1, 1))
	assert.NotZero(t, NewSource(0).Seed())
}

func TestParseOptions(t *testing.T) {
	s, err := ParseStopping("optimal")
	require.NoError(t, err)
	assert.Equal(t, Optimal, s)
	_, err = ParseStopping("sometimes")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	e, err := ParseEstimator("fractional")
	require.NoError(t, err)
	assert.Equal(t, Fractional, e)
	_, err = ParseEstimator("nope")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
