package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(h *HealthHandler, handler func(*HealthHandler) gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(h)(c)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func TestHealthCheck(t *testing.T) {
	w, response := serveHealth(NewHealthHandler(nil), func(h *HealthHandler) gin.HandlerFunc { return h.HealthCheck })

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "graphconf", response["service"])
	assert.Contains(t, response, "timestamp")
	assert.Contains(t, response, "version")
}

func TestLivenessCheck(t *testing.T) {
	w, response := serveHealth(NewHealthHandler(nil), func(h *HealthHandler) gin.HandlerFunc { return h.LivenessCheck })

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", response["status"])
}

func TestReadinessCheck(t *testing.T) {
	t.Run("nil engine", func(t *testing.T) {
		w, response := serveHealth(NewHealthHandler(nil), func(h *HealthHandler) gin.HandlerFunc { return h.ReadinessCheck })
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not_ready", response["status"])
	})

	t.Run("no graph", func(t *testing.T) {
		w, response := serveHealth(NewHealthHandler(newEngine(t)), func(h *HealthHandler) gin.HandlerFunc { return h.ReadinessCheck })
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		checks := response["checks"].(map[string]interface{})
		assert.Equal(t, "unhealthy", checks["graph"].(map[string]interface{})["status"])
	})

	t.Run("graph loaded", func(t *testing.T) {
		w, response := serveHealth(NewHealthHandler(newEngine(t, halfTriangle()...)), func(h *HealthHandler) gin.HandlerFunc { return h.ReadinessCheck })
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", response["status"])
		checks := response["checks"].(map[string]interface{})
		graphCheck := checks["graph"].(map[string]interface{})
		assert.Equal(t, float64(3), graphCheck["nodes"])
		assert.Equal(t, "disabled", checks["evaluation"].(map[string]interface{})["breaker"])
	})
}

func TestDetailedHealthCheck(t *testing.T) {
	w, response := serveHealth(NewHealthHandler(newEngine(t, halfTriangle()...)), func(h *HealthHandler) gin.HandlerFunc { return h.DetailedHealthCheck })

	assert.Equal(t, http.StatusOK, w.Code)
	checks := response["checks"].(map[string]interface{})
	assert.Equal(t, "loaded", checks["graph"].(map[string]interface{})["status"])
	assert.Contains(t, checks["system"], "goroutines")
}
