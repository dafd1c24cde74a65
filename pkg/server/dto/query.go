package dto

import (
	"errors"
	"strings"

	"github.com/soundprediction/graphconf/pkg/config"
	"github.com/soundprediction/graphconf/pkg/refine"
)

// QueryRequest is the body of POST /api/v1/queries. Unset precision fields
// take the server's sampling defaults.
type QueryRequest struct {
	Pattern string            `json:"pattern" binding:"required"`
	Args    map[string]string `json:"args,omitempty"`
	Method  string            `json:"method,omitempty"`
	Epsilon *float64          `json:"epsilon,omitempty"`
	Delta   *float64          `json:"delta,omitempty"`
	Refine  *bool             `json:"refine,omitempty"`
}

// Validate performs validation on QueryRequest
func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return errors.New("pattern cannot be empty")
	}
	return nil
}

// Resolved holds the request with defaults applied
type Resolved struct {
	Method  refine.Method
	Epsilon float64
	Delta   float64
	Refine  bool
}

// Resolve applies defaults from the sampling configuration
func (r *QueryRequest) Resolve(defaults config.SamplingConfig) (Resolved, error) {
	out := Resolved{
		Method:  refine.Approx,
		Epsilon: defaults.Epsilon,
		Delta:   defaults.Delta,
		Refine:  defaults.Refine,
	}
	if r.Method != "" {
		m, err := refine.ParseMethod(r.Method)
		if err != nil {
			return Resolved{}, err
		}
		out.Method = m
	}
	if r.Epsilon != nil {
		out.Epsilon = *r.Epsilon
	}
	if r.Delta != nil {
		out.Delta = *r.Delta
	}
	if r.Refine != nil {
		out.Refine = *r.Refine
	}
	return out, nil
}

// StepEvent is one streamed step
type StepEvent struct {
	QueryID string `json:"query_id"`
	refine.Step
}
