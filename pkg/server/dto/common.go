package dto

import (
	"github.com/soundprediction/graphconf/pkg/graph"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// GraphResponse describes the loaded graph
type GraphResponse struct {
	Loaded   bool         `json:"loaded"`
	Stats    graph.Stats  `json:"stats"`
	InFlight int          `json:"in_flight"`
	Edges    []graph.Edge `json:"edges,omitempty"`
}
