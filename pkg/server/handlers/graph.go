package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/graphconf"
	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/server/dto"
)

// maxGraphBody bounds uploaded graphs
const maxGraphBody = 256 << 20

// GraphHandler serves and replaces the engine's graph
type GraphHandler struct {
	engine  *graphconf.Engine
	logger  *slog.Logger
	maxBody int64
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(engine *graphconf.Engine, logger *slog.Logger) *GraphHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphHandler{engine: engine, logger: logger, maxBody: maxGraphBody}
}

// GetGraph handles GET /api/v1/graph. With edges=true the edge list is included.
func (h *GraphHandler) GetGraph(c *gin.Context) {
	resp := dto.GraphResponse{InFlight: h.engine.InFlight()}
	if m := h.engine.Model(); m != nil {
		resp.Loaded = true
		resp.Stats = m.Stats()
		if withEdges, _ := strconv.ParseBool(c.Query("edges")); withEdges {
			resp.Edges = m.Edges()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// PutGraph handles PUT /api/v1/graph. The body is an edge list, or a JSON
// array of edges when sent as application/json. Unless wait=true, the
// replacement is rejected with 409 while queries are running.
func (h *GraphHandler) PutGraph(c *gin.Context) {
	wait, err := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	if err != nil {
		writeErrorJSON(c, http.StatusBadRequest, "invalid_request", "wait must be a boolean")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)

	var m *graph.Model
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var edges []graph.Edge
		if err := c.ShouldBindJSON(&edges); err != nil {
			if isTooLarge(err) {
				writeError(c, err)
			} else {
				writeErrorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
			}
			return
		}
		m, err = graph.FromEdges(edges)
	} else {
		m, err = graph.ReadEdgeList(c.Request.Body)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if wait {
		h.engine.ReplaceModel(m)
	} else if err := h.engine.TryReplaceModel(m); err != nil {
		writeError(c, err)
		return
	}
	h.logger.InfoContext(c.Request.Context(), "Graph loaded over HTTP", "nodes", m.NumNodes(), "edges", m.NumEdges())

	c.JSON(http.StatusOK, dto.GraphResponse{Loaded: true, Stats: m.Stats()})
}
