package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/graphconf"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const serviceName = "graphconf"

// HealthHandler handles health check requests
type HealthHandler struct {
	engine  *graphconf.Engine
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(engine *graphconf.Engine) *HealthHandler {
	return &HealthHandler{
		engine:  engine,
		started: time.Now(),
	}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready. The service is ready once a graph is
// loaded and the evaluation breaker is not open.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	response := gin.H{
		"status":    "ready",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	checks := gin.H{}
	allHealthy := true

	if h.engine == nil {
		checks["engine"] = gin.H{"status": "unhealthy", "error": "engine not initialized"}
		allHealthy = false
	} else {
		if m := h.engine.Model(); m == nil {
			checks["graph"] = gin.H{"status": "unhealthy", "error": "no graph loaded"}
			allHealthy = false
		} else {
			checks["graph"] = gin.H{"status": "healthy", "nodes": m.NumNodes(), "edges": m.NumEdges()}
		}

		breaker := h.engine.BreakerState()
		if breaker == "open" {
			checks["evaluation"] = gin.H{"status": "unhealthy", "breaker": breaker}
			allHealthy = false
		} else {
			checks["evaluation"] = gin.H{"status": "healthy", "breaker": breaker}
		}
	}

	checks["system"] = gin.H{
		"status": "healthy",
		"uptime": time.Since(h.started).String(),
	}
	response["checks"] = checks

	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck handles GET /health/detailed
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
	}

	checks := gin.H{}
	if h.engine != nil {
		graphStatus := gin.H{"status": "unloaded"}
		if m := h.engine.Model(); m != nil {
			graphStatus = gin.H{"status": "loaded", "stats": m.Stats()}
		}
		checks["graph"] = graphStatus
		checks["queries"] = gin.H{"in_flight": h.engine.InFlight()}
		checks["evaluation"] = gin.H{"breaker": h.engine.BreakerState()}
	}

	systemMetrics := h.getSystemMetrics()
	checks["system"] = gin.H{
		"status":       "healthy",
		"memory_usage": systemMetrics.MemoryUsage,
		"goroutines":   systemMetrics.Goroutines,
		"gc_cycles":    systemMetrics.GCCycles,
		"heap_objects": systemMetrics.HeapObjects,
		"stack_usage":  systemMetrics.StackUsage,
		"uptime":       time.Since(h.started).String(),
	}
	response["checks"] = checks

	c.JSON(http.StatusOK, response)
}

// SystemMetrics holds system runtime metrics
type SystemMetrics struct {
	MemoryUsage string `json:"memory_usage"`
	Goroutines  int    `json:"goroutines"`
	GCCycles    uint32 `json:"gc_cycles"`
	HeapObjects uint64 `json:"heap_objects"`
	StackUsage  string `json:"stack_usage"`
}

// getSystemMetrics collects current system runtime metrics
func (h *HealthHandler) getSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		MemoryUsage: fmt.Sprintf("%.2f MB", float64(m.Alloc)/(1024*1024)),
		Goroutines:  runtime.NumGoroutine(),
		GCCycles:    m.NumGC,
		HeapObjects: m.HeapObjects,
		StackUsage:  fmt.Sprintf("%.2f MB", float64(m.StackSys)/(1024*1024)),
	}
}
