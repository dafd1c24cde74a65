package handlers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/graphconf"
	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, edges ...graph.Edge) *graphconf.Engine {
	t.Helper()
	var m *graph.Model
	if edges != nil {
		var err error
		m, err = graph.FromEdges(edges)
		require.NoError(t, err)
	}
	cfg := graphconf.DefaultConfig()
	cfg.Seed = 3
	cfg.Workers = 1
	return graphconf.NewEngine(m, cfg, quietLogger())
}

func halfTriangle() []graph.Edge {
	return []graph.Edge{
		{U: "1", V: "2", P: 0.5},
		{U: "2", V: "3", P: 0.5},
		{U: "1", V: "3", P: 0.5},
	}
}
