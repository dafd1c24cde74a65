package pattern

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/types"
)

// Argument names
const (
	ArgStart     = "start"
	ArgHops      = "hops"
	ArgDegree    = "degree"
	ArgThreshold = "threshold"
	ArgNode      = "node"
)

const (
	maxHops   = 8
	maxDegree = 32
)

// ArgumentError reports a rejected pattern id or argument
type ArgumentError struct {
	Pattern string
	Arg     string
	Value   string
	Err     error
}

func (e *ArgumentError) Error() string {
	switch {
	case e.Arg == "":
		return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Err)
	case e.Value == "":
		return fmt.Sprintf("pattern %s: argument %s: %v", e.Pattern, e.Arg, e.Err)
	default:
		return fmt.Sprintf("pattern %s: argument %s=%q: %v", e.Pattern, e.Arg, e.Value, e.Err)
	}
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// Args are the string arguments of a submission
type Args map[string]string

// Pattern is a catalog kind with its arguments resolved.
type Pattern struct {
	Kind      Kind
	Start     graph.NodeID
	Hops      int
	Degree    int
	Threshold float64
	HasThresh bool
	Node      graph.NodeID
}

// Parse resolves id and validates args against the kind's argument list.
func Parse(id string, args Args) (Pattern, error) {
	kind, err := ParseKind(id)
	if err != nil {
		return Pattern{}, err
	}
	desc := Describe(kind)
	p := Pattern{Kind: kind}

	known := make(map[string]ArgSpec, len(desc.Args))
	for _, want := range desc.Args {
		known[want.Name] = want
	}
	for name, value := range args {
		if _, ok := known[name]; !ok {
			return Pattern{}, &ArgumentError{Pattern: kind.String(), Arg: name, Value: value,
				Err: fmt.Errorf("not accepted by this pattern: %w", types.ErrInvalidArgument)}
		}
	}

	for _, want := range desc.Args {
		value, ok := args[want.Name]
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			if want.Required {
				return Pattern{}, &ArgumentError{Pattern: kind.String(), Arg: want.Name, Err: types.ErrMissingArgument}
			}
			value = want.Default
		}
		if value == "" {
			continue
		}
		if err := p.set(want.Name, value); err != nil {
			return Pattern{}, &ArgumentError{Pattern: kind.String(), Arg: want.Name, Value: value, Err: err}
		}
	}
	return p, nil
}

func (p *Pattern) set(name, value string) error {
	switch name {
	case ArgStart:
		p.Start = graph.NodeID(value)
	case ArgNode:
		p.Node = graph.NodeID(value)
	case ArgHops:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > maxHops {
			return fmt.Errorf("want an integer in [1,%d]: %w", maxHops, types.ErrInvalidArgument)
		}
		p.Hops = n
	case ArgDegree:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > maxDegree {
			return fmt.Errorf("want an integer in [1,%d]: %w", maxDegree, types.ErrInvalidArgument)
		}
		p.Degree = n
	case ArgThreshold:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
			return fmt.Errorf("want a number in [0,1]: %w", types.ErrInvalidArgument)
		}
		p.Threshold = f
		p.HasThresh = true
	}
	return nil
}

// SetValued reports whether results are keyed
func (p Pattern) SetValued() bool {
	return p.Kind.SetValued()
}

// Keep reports whether a keyed confidence passes the pattern's threshold.
// degree-at-least keeps values at or above it, triangle-set strictly above.
func (p Pattern) Keep(conf float64) bool {
	if !p.HasThresh {
		return true
	}
	if p.Kind == TriangleSet {
		return conf > p.Threshold
	}
	return conf >= p.Threshold
}

func (p Pattern) String() string {
	var b strings.Builder
	b.WriteString(p.Kind.String())
	add := func(k, v string) {
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	if p.Start != "" {
		add(ArgStart, string(p.Start))
	}
	if p.Node != "" {
		add(ArgNode, string(p.Node))
	}
	if p.Hops > 0 {
		add(ArgHops, strconv.Itoa(p.Hops))
	}
	if p.Degree > 0 {
		add(ArgDegree, strconv.Itoa(p.Degree))
	}
	if p.HasThresh {
		add(ArgThreshold, strconv.FormatFloat(p.Threshold, 'g', -1, 64))
	}
	return b.String()
}
