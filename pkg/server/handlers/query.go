package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/soundprediction/graphconf"
	"github.com/soundprediction/graphconf/pkg/config"
	"github.com/soundprediction/graphconf/pkg/pattern"
	"github.com/soundprediction/graphconf/pkg/server/dto"
)

// QueryHandler runs confidence queries
type QueryHandler struct {
	engine   *graphconf.Engine
	defaults config.SamplingConfig
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(engine *graphconf.Engine, defaults config.SamplingConfig) *QueryHandler {
	return &QueryHandler{engine: engine, defaults: defaults}
}

// Patterns handles GET /api/v1/patterns
func (h *QueryHandler) Patterns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"patterns": pattern.Catalog()})
}

// Submit handles POST /api/v1/queries. Steps are streamed as they are
// computed: newline-delimited JSON by default, server-sent events when the
// client accepts text/event-stream. Closing the connection cancels the
// query after the running round.
func (h *QueryHandler) Submit(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeErrorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	resolved, err := req.Resolve(h.defaults)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	q, err := h.engine.Submit(ctx, graphconf.Submission{
		Pattern: req.Pattern,
		Args:    req.Args,
		Method:  resolved.Method,
		Epsilon: resolved.Epsilon,
		Delta:   resolved.Delta,
		Refine:  resolved.Refine,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	defer q.Close()

	stream := strings.Contains(c.GetHeader("Accept"), "text/event-stream")
	c.Header("X-Query-ID", q.ID)
	if stream {
		c.Header("Content-Type", sse.ContentType)
		c.Header("Cache-Control", "no-cache")
	} else {
		c.Header("Content-Type", "application/x-ndjson")
	}
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	for step := range q.Steps(ctx) {
		event := dto.StepEvent{QueryID: q.ID, Step: step}
		if stream {
			c.SSEvent("step", event)
		} else if err := enc.Encode(event); err != nil {
			// client gone; the query stops after this round
			return
		}
		c.Writer.Flush()
	}
}
