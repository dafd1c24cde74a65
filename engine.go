package graphconf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/soundprediction/graphconf/pkg/config"
	"github.com/soundprediction/graphconf/pkg/dnf"
	"github.com/soundprediction/graphconf/pkg/eval"
	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/pattern"
	"github.com/soundprediction/graphconf/pkg/refine"
	"github.com/soundprediction/graphconf/pkg/telemetry"
	"github.com/soundprediction/graphconf/pkg/types"
)

// Config holds the evaluator settings of an Engine
type Config struct {
	// Seed of the random source; 0 seeds from entropy
	Seed        uint64
	Workers     int
	MaxTrials   int64
	Stopping    eval.Stopping
	Estimator   eval.Estimator
	TrialFactor float64
	MaxVars     int

	CircuitBreaker config.CircuitBreakerConfig
}

// DefaultConfig returns the built-in evaluator settings
func DefaultConfig() *Config {
	return &Config{
		TrialFactor: eval.DefaultTrialFactor,
		MaxVars:     eval.DefaultMaxVars,
	}
}

// ConfigFromSettings converts application configuration
func ConfigFromSettings(cfg *config.Config) (*Config, error) {
	stopping, err := eval.ParseStopping(cfg.Sampling.Stopping)
	if err != nil {
		return nil, fmt.Errorf("sampling.stopping: %w", err)
	}
	estimator, err := eval.ParseEstimator(cfg.Sampling.Estimator)
	if err != nil {
		return nil, fmt.Errorf("sampling.estimator: %w", err)
	}
	if cfg.Exact.MaxVars > eval.MaxVarsLimit {
		return nil, fmt.Errorf("exact.max_vars %d exceeds %d: %w", cfg.Exact.MaxVars, eval.MaxVarsLimit, types.ErrInvalidArgument)
	}
	return &Config{
		Seed:           cfg.Sampling.Seed,
		Workers:        cfg.Sampling.Workers,
		MaxTrials:      cfg.Sampling.MaxTrials,
		Stopping:       stopping,
		Estimator:      estimator,
		TrialFactor:    cfg.Sampling.TrialFactor,
		MaxVars:        cfg.Exact.MaxVars,
		CircuitBreaker: cfg.CircuitBreaker,
	}, nil
}

// StepSink receives every step of every query
type StepSink interface {
	Record(rec telemetry.StepRecord)
}

// Engine answers confidence queries against one graph at a time.
type Engine struct {
	// mu guards model. Queries hold the read lock for their whole lifetime.
	mu    sync.RWMutex
	model *graph.Model

	config   *Config
	source   *eval.Source
	breaker  *roundBreaker
	logger   *slog.Logger
	sink     StepSink
	inFlight atomic.Int64
}

// NewEngine returns an engine serving model. A nil model leaves the engine
// without a graph until ReplaceModel is called.
func NewEngine(model *graph.Model, cfg *Config, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	source := eval.NewSource(cfg.Seed)
	logger.Debug("Engine created", "seed", source.Seed(), "workers", cfg.Workers)
	return &Engine{
		model:   model,
		config:  cfg,
		source:  source,
		breaker: newRoundBreaker(cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

// SetStepSink installs a sink for step telemetry. Call before submitting queries.
func (e *Engine) SetStepSink(sink StepSink) {
	e.sink = sink
}

// Model returns the current graph, or nil when none is loaded
func (e *Engine) Model() *graph.Model {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// InFlight returns the number of queries holding the graph
func (e *Engine) InFlight() int {
	return int(e.inFlight.Load())
}

// BreakerState reports the evaluation circuit breaker state
func (e *Engine) BreakerState() string {
	return e.breaker.State()
}

// ReplaceModel swaps in a new graph, waiting until in-flight queries finish.
// New submissions wait while a replacement is pending.
func (e *Engine) ReplaceModel(m *graph.Model) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model = m
	e.logModel(m)
}

// TryReplaceModel swaps in a new graph only if no query is in flight.
func (e *Engine) TryReplaceModel(m *graph.Model) error {
	if !e.mu.TryLock() {
		return types.ErrGraphBusy
	}
	defer e.mu.Unlock()
	e.model = m
	e.logModel(m)
	return nil
}

func (e *Engine) logModel(m *graph.Model) {
	if m == nil {
		e.logger.Info("Graph unloaded")
		return
	}
	e.logger.Info("Graph replaced", "nodes", m.NumNodes(), "edges", m.NumEdges())
}

// Submission describes one query
type Submission struct {
	Pattern string
	Args    map[string]string
	Method  refine.Method
	Epsilon float64
	Delta   float64
	Refine  bool
}

// Submit validates sub, builds its formulas and returns a query ready to
// stream steps. Validation failures return an error and no query; nothing
// is computed for them.
//
// The returned query holds a shared lock on the graph until its steps are
// exhausted or Close is called, so callers must do one of the two.
func (e *Engine) Submit(ctx context.Context, sub Submission) (*Query, error) {
	p, err := pattern.Parse(sub.Pattern, sub.Args)
	if err != nil {
		return nil, err
	}
	req := refine.Request{Method: sub.Method, Epsilon: sub.Epsilon, Delta: sub.Delta, Refine: sub.Refine}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	if e.model == nil {
		e.mu.RUnlock()
		return nil, types.ErrEmptyGraph
	}
	q := &Query{
		ID:      uuid.New().String(),
		Pattern: p,
		Request: req,
		engine:  e,
		model:   e.model,
	}
	e.inFlight.Add(1)

	embeddings, err := pattern.Enumerate(ctx, q.model, p)
	if err != nil {
		q.release()
		return nil, err
	}
	if p.SetValued() {
		q.groups = dnf.BuildGrouped(q.model, embeddings)
	} else {
		q.groups = []dnf.Group{{Formula: dnf.Build(q.model, embeddings)}}
	}

	q.logger = e.logger.With("query_id", q.ID, "pattern", p.Kind.String(), "method", req.Method.String())
	q.scheduler = refine.NewScheduler(req, q.logger)
	attrs := []any{"embeddings", len(embeddings), "formulas", len(q.groups),
		"epsilon", req.Epsilon, "delta", req.Delta, "refine", req.Refine}
	if f := q.largest(); f != nil {
		attrs = append(attrs, "formula", f.Summary())
	}
	q.logger.Info("Query submitted", attrs...)
	return q, nil
}

// evaluator returns the evaluator for method
func (e *Engine) evaluator(method refine.Method, logger *slog.Logger) eval.Evaluator {
	switch method {
	case refine.Approx:
		return eval.KarpLuby{
			Source:    e.source,
			Workers:   e.config.Workers,
			Stopping:  e.config.Stopping,
			Estimator: e.config.Estimator,
			MaxTrials: e.config.MaxTrials,
			Logger:    logger,
		}
	case refine.Heuristic:
		return eval.Heuristic{
			Source:      e.source,
			Workers:     e.config.Workers,
			TrialFactor: e.config.TrialFactor,
			MaxTrials:   e.config.MaxTrials,
		}
	default:
		return eval.Exact{MaxVars: e.config.MaxVars}
	}
}
