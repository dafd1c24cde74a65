package graphconf

import (
	"context"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/graphconf/pkg/dnf"
	"github.com/soundprediction/graphconf/pkg/eval"
	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/pattern"
	"github.com/soundprediction/graphconf/pkg/refine"
	"github.com/soundprediction/graphconf/pkg/telemetry"
	"github.com/soundprediction/graphconf/pkg/types"
	"github.com/soundprediction/graphconf/pkg/utils"
)

// Query is a submitted confidence query. Its steps are computed lazily as
// the caller pulls them.
type Query struct {
	ID      string
	Pattern pattern.Pattern
	Request refine.Request

	engine    *Engine
	model     *graph.Model
	groups    []dnf.Group
	scheduler *refine.Scheduler
	logger    *slog.Logger

	releaseOnce sync.Once
}

// Formulas returns the lineage formulas of the query, one per result key for
// set-valued patterns.
func (q *Query) Formulas() []dnf.Group {
	return q.groups
}

// largest returns the formula with the most clauses
func (q *Query) largest() *dnf.Formula {
	var out *dnf.Formula
	for _, g := range q.groups {
		if out == nil || g.Formula.Len() > out.Len() {
			out = g.Formula
		}
	}
	return out
}

// State returns the refinement state
func (q *Query) State() refine.State {
	return q.scheduler.State()
}

// Steps returns the step sequence of the query. The sequence is lazy,
// finite and ends with a terminal marker; it can be consumed once. The
// graph lock is released when the sequence ends.
func (q *Query) Steps(ctx context.Context) iter.Seq[refine.Step] {
	ctx = context.WithValue(ctx, types.ContextKeyQueryID, q.ID)
	steps := q.scheduler.Run(ctx, q.round)
	return func(yield func(refine.Step) bool) {
		defer q.release()
		for step := range steps {
			q.record(step)
			if step.Terminal() {
				q.logger.InfoContext(ctx, "Query completed", "state", step.State.String(),
					"epsilon", step.Epsilon, "trials", step.Trials, "elapsed", step.Elapsed)
			}
			if !yield(step) {
				return
			}
		}
	}
}

// Close releases the graph lock held by the query. It is safe to call more
// than once and after the steps have been consumed.
func (q *Query) Close() {
	q.release()
}

func (q *Query) release() {
	q.releaseOnce.Do(func() {
		q.engine.inFlight.Add(-1)
		q.engine.mu.RUnlock()
	})
}

// round evaluates every formula of the query at the working epsilon
func (q *Query) round(ctx context.Context, round int, epsilon float64) (refine.Estimate, int64, error) {
	res, err := q.engine.breaker.run(func() (res roundResult, err error) {
		defer utils.RecoverAsError(&err)
		return q.evaluate(ctx, round, epsilon)
	})
	return res.estimate, res.trials, err
}

func (q *Query) evaluate(ctx context.Context, round int, epsilon float64) (roundResult, error) {
	ev := q.engine.evaluator(q.Request.Method, q.logger.With("round", round))
	var res roundResult

	if !q.Pattern.SetValued() {
		f := q.groups[0].Formula
		r, err := ev.Evaluate(ctx, f, q.params(f, round, epsilon))
		if err != nil {
			return roundResult{}, err
		}
		res.estimate = refine.Estimate{Value: r.Estimate}
		res.trials = r.Trials
		return res, nil
	}

	// one formula per key; keys are evaluated concurrently, each on its own stream
	pool := utils.NewWorkerPool(q.engine.config.Workers, func(ctx context.Context, g dnf.Group) (eval.Result, error) {
		return ev.Evaluate(ctx, g.Formula, q.params(g.Formula, round, epsilon))
	})
	results, errs := pool.ProcessItems(ctx, q.groups)
	if err := utils.FirstError(errs); err != nil {
		return roundResult{}, err
	}

	res.estimate = refine.Estimate{Keyed: true, Values: make(map[string]float64)}
	for i, r := range results {
		res.trials += r.Trials
		if q.Pattern.Keep(r.Estimate) {
			res.estimate.Values[q.groups[i].Key] = r.Estimate
		}
	}
	return res, nil
}

// params derives the per-formula random stream so a fixed seed reproduces
// every round independently of the other formulas of the query.
func (q *Query) params(f *dnf.Formula, round int, epsilon float64) eval.Params {
	return eval.Params{
		Epsilon: epsilon,
		Delta:   q.Request.Delta,
		Stream:  eval.StreamID(f.Fingerprint(), uint64(round)),
	}
}

func (q *Query) record(step refine.Step) {
	sink := q.engine.sink
	if sink == nil {
		return
	}
	rec := telemetry.StepRecord{
		ID:        uuid.New().String(),
		QueryID:   q.ID,
		Timestamp: time.Now(),
		Pattern:   q.Pattern.String(),
		Method:    q.Request.Method.String(),
		Round:     step.Round,
		State:     step.State.String(),
		Epsilon:   step.Epsilon,
		Delta:     step.Delta,
		Trials:    step.Trials,
		ElapsedMs: float64(step.Elapsed) / float64(time.Millisecond),
		Error:     step.Error,
	}
	if step.Estimate != nil {
		rec.Estimate = step.Estimate.Value
		rec.Keys = len(step.Estimate.Values)
	}
	sink.Record(rec)
}
