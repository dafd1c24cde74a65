// Package refine drives anytime evaluation: a query is answered in rounds of
// decreasing epsilon, each round an independent evaluation, and every round's
// result is streamed to the caller as soon as it is known.
package refine

import (
	"fmt"
	"strings"
	"time"

	"github.com/soundprediction/graphconf/pkg/types"
)

// State of a refinement run
type State int

const (
	Idle State = iota
	Running
	Done
	Cancelled
	Failed
)

var stateNames = [...]string{"idle", "running", "done", "cancelled", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further step follows s
func (s State) Terminal() bool {
	return s == Done || s == Cancelled || s == Failed
}

// MarshalText renders the state name in JSON and YAML output
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Method selects the evaluator
type Method int

const (
	Exact Method = iota
	Approx
	Heuristic
)

var methodNames = [...]string{"exact", "approx", "heuristic"}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}
	return methodNames[m]
}

// MarshalText renders the method name
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMethod accepts the method names and the conf, aconf and rconf aliases.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "conf":
		return Exact, nil
	case "approx", "approximate", "aconf", "karp-luby":
		return Approx, nil
	case "heuristic", "rconf":
		return Heuristic, nil
	}
	return 0, fmt.Errorf("unknown method %q: %w", s, types.ErrInvalidArgument)
}

// Request is the precision part of a submission
type Request struct {
	Method  Method
	Epsilon float64
	// Delta is used by Approx only
	Delta  float64
	Refine bool
}

// Validate rejects epsilon or delta outside (0,1) for the methods that use them.
func (r Request) Validate() error {
	switch r.Method {
	case Exact:
		return nil
	case Approx:
		if !(r.Delta > 0 && r.Delta < 1) {
			return fmt.Errorf("delta %v: %w", r.Delta, types.ErrEpsilonDeltaOutOfRange)
		}
	case Heuristic:
	default:
		return fmt.Errorf("method %d: %w", r.Method, types.ErrInvalidArgument)
	}
	if !(r.Epsilon > 0 && r.Epsilon < 1) {
		return fmt.Errorf("epsilon %v: %w", r.Epsilon, types.ErrEpsilonDeltaOutOfRange)
	}
	return nil
}

// Schedule returns the working epsilons of every round. With Refine the
// sequence starts at 0.5 and halves until it reaches the target, which is
// always the last element; without it there is one round at the target.
// Exact runs a single round reported with epsilon 0.
func (r Request) Schedule() []float64 {
	if r.Method == Exact {
		return []float64{0}
	}
	if !r.Refine || !(r.Epsilon > 0 && r.Epsilon < 1) {
		return []float64{r.Epsilon}
	}
	var out []float64
	eps := 1.0
	for eps != r.Epsilon {
		eps = max(eps*0.5, r.Epsilon)
		out = append(out, eps)
	}
	return out
}

// Estimate is a round's answer: a scalar for Boolean patterns, one value per
// result key for set-valued patterns.
type Estimate struct {
	Value  float64            `json:"value" yaml:"value"`
	Keyed  bool               `json:"keyed" yaml:"keyed"`
	Values map[string]float64 `json:"values,omitempty" yaml:"values,omitempty"`
}

// Step is one element of a refinement sequence. Round steps carry an
// estimate; the final element is a terminal marker with State Done,
// Cancelled or Failed.
type Step struct {
	Round    int           `json:"round" yaml:"round"`
	State    State         `json:"state" yaml:"state"`
	Epsilon  float64       `json:"epsilon" yaml:"epsilon"`
	Delta    float64       `json:"delta,omitempty" yaml:"delta,omitempty"`
	Estimate *Estimate     `json:"estimate,omitempty" yaml:"estimate,omitempty"`
	Trials   int64         `json:"trials" yaml:"trials"`
	Elapsed  time.Duration `json:"elapsed_ns" yaml:"elapsed"`
	Err      error         `json:"-" yaml:"-"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Terminal reports whether s ends the sequence
func (s Step) Terminal() bool {
	return s.State.Terminal()
}
