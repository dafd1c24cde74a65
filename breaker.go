package graphconf

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/graphconf/pkg/config"
	"github.com/soundprediction/graphconf/pkg/refine"
	"github.com/soundprediction/graphconf/pkg/types"
)

type roundResult struct {
	estimate refine.Estimate
	trials   int64
}

// roundBreaker stops running evaluation rounds after repeated sampling
// failures until the breaker's timeout passes.
type roundBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// newRoundBreaker returns nil when circuit breaking is disabled
func newRoundBreaker(cfg config.CircuitBreakerConfig, logger *slog.Logger) *roundBreaker {
	if !cfg.Enabled {
		return nil
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}

	st := gobreaker.Settings{
		Name:        "evaluation-rounds",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= cfg.ReadyToTripRatio
		},
		// caller mistakes say nothing about evaluator health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, types.ErrFormulaTooLarge) || types.IsValidationError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Error("Circuit breaker tripped", "breaker", name, "from", from.String(), "to", to.String())
				return
			}
			logger.Info("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &roundBreaker{cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *roundBreaker) run(fn func() (roundResult, error)) (roundResult, error) {
	if b == nil {
		return fn()
	}
	res, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return roundResult{}, err
	}
	return res.(roundResult), nil
}

// State reports the breaker state for health checks
func (b *roundBreaker) State() string {
	if b == nil {
		return "disabled"
	}
	return b.cb.State().String()
}
