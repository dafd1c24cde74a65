package refine

import (
	"context"
	"iter"
	"log/slog"
	"sync/atomic"
	"time"
)

// RoundFunc evaluates one round at the given working epsilon. Rounds are
// independent and must not reuse samples from earlier rounds.
type RoundFunc func(ctx context.Context, round int, epsilon float64) (Estimate, int64, error)

// Scheduler runs the rounds of one request
type Scheduler struct {
	Request Request
	Logger  *slog.Logger

	state atomic.Int32
	used  atomic.Bool
}

// NewScheduler returns an idle scheduler for req
func NewScheduler(req Request, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{Request: req, Logger: logger}
}

// State returns the current state
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run returns the lazy step sequence. A round starts only when the consumer
// asks for the next step, and rounds run to completion: cancellation of ctx
// is observed between rounds, where it ends the sequence with a Cancelled
// marker. A consumer that stops pulling cancels the run the same way. A
// round error ends the sequence with a Failed marker; earlier steps stand.
// The sequence can be iterated once; later iterations yield nothing.
func (s *Scheduler) Run(ctx context.Context, round RoundFunc) iter.Seq[Step] {
	return func(yield func(Step) bool) {
		if !s.used.CompareAndSwap(false, true) {
			return
		}
		s.state.Store(int32(Running))

		req := s.Request
		delta := 0.0
		if req.Method == Approx {
			delta = req.Delta
		}
		start := time.Now()
		var trials int64

		finish := func(state State, eps float64, err error) {
			s.state.Store(int32(state))
			step := Step{
				Round:   -1,
				State:   state,
				Epsilon: eps,
				Delta:   delta,
				Trials:  trials,
				Elapsed: time.Since(start),
				Err:     err,
			}
			if err != nil {
				step.Error = err.Error()
			}
			yield(step)
		}

		last := 0.0
		for i, eps := range req.Schedule() {
			if ctx.Err() != nil {
				s.Logger.InfoContext(ctx, "Refinement cancelled", "round", i, "epsilon", last)
				finish(Cancelled, last, ctx.Err())
				return
			}

			roundStart := time.Now()
			est, n, err := round(context.WithoutCancel(ctx), i, eps)
			trials += n
			if err != nil {
				s.Logger.ErrorContext(ctx, "Refinement round failed", "round", i, "epsilon", eps, "error", err)
				finish(Failed, eps, err)
				return
			}
			last = eps
			s.Logger.DebugContext(ctx, "Refinement round completed", "round", i, "epsilon", eps, "trials", n,
				"elapsed", time.Since(roundStart))

			step := Step{
				Round:    i,
				State:    Running,
				Epsilon:  eps,
				Delta:    delta,
				Estimate: &est,
				Trials:   n,
				Elapsed:  time.Since(roundStart),
			}
			if !yield(step) {
				s.state.Store(int32(Cancelled))
				return
			}
		}
		finish(Done, last, nil)
	}
}
