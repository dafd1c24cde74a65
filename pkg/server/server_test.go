package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/graphconf"
	"github.com/soundprediction/graphconf/pkg/config"
	"github.com/soundprediction/graphconf/pkg/graph"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8080,
			Mode: gin.TestMode,
		},
		Sampling: config.SamplingConfig{Epsilon: 0.1, Delta: 0.1},
	}
}

func testEngine(t *testing.T) *graphconf.Engine {
	t.Helper()
	m, err := graph.ReadEdgeList(strings.NewReader("1 2 0.5\n2 3 0.5\n1 3 0.5\n"))
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return graphconf.NewEngine(m, graphconf.DefaultConfig(), logger)
}

func TestNew(t *testing.T) {
	cfg := testConfig()

	server := New(cfg, nil, nil)
	if server == nil {
		t.Fatal("expected non-nil server")
	}

	if server.config != cfg {
		t.Error("expected config to be set")
	}
}

func TestSetup(t *testing.T) {
	server := New(testConfig(), testEngine(t), nil)
	server.Setup()

	if server.router == nil {
		t.Error("expected router to be initialized")
	}

	if server.server == nil {
		t.Fatal("expected http.Server to be initialized")
	}

	expectedAddr := "localhost:8080"
	if server.server.Addr != expectedAddr {
		t.Errorf("expected addr %s, got %s", expectedAddr, server.server.Addr)
	}
}

func TestRoutes(t *testing.T) {
	server := New(testConfig(), testEngine(t), nil)
	server.Setup()

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/live", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodGet, "/health/detailed", "", http.StatusOK},
		{http.MethodGet, "/api/v1/patterns", "", http.StatusOK},
		{http.MethodGet, "/api/v1/graph", "", http.StatusOK},
		{http.MethodPost, "/api/v1/queries", `{"pattern":"triangle","method":"exact"}`, http.StatusOK},
		{http.MethodPut, "/api/v1/graph", "1 2 0.9\n", http.StatusOK},
		{http.MethodGet, "/api/v1/missing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		if tt.method == http.MethodPost {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, w.Code)
		}
	}
}

func TestReadyWithoutGraph(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := New(testConfig(), graphconf.NewEngine(nil, nil, logger), nil)
	server.Setup()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 without a graph, got %d", w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	server := New(testConfig(), testEngine(t), nil)
	server.Setup()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/queries", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for OPTIONS, got %d", w.Code)
	}

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected Access-Control-Allow-Origin header")
	}

	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "X-Query-ID") {
		t.Error("expected X-Query-ID to be exposed")
	}
}
