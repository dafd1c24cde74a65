package graph

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/soundprediction/graphconf/pkg/config"
)

// Formats accepted by Load
const (
	FormatAuto    = "auto"
	FormatText    = "text"
	FormatParquet = "parquet"
	FormatNeo4j   = "neo4j"
)

// DetectFormat picks a format from a path: neo4j and bolt URIs, .parquet
// files, and text for everything else.
func DetectFormat(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "neo4j://"), strings.HasPrefix(lower, "neo4j+s://"),
		strings.HasPrefix(lower, "bolt://"), strings.HasPrefix(lower, "bolt+s://"):
		return FormatNeo4j
	case filepath.Ext(lower) == ".parquet":
		return FormatParquet
	default:
		return FormatText
	}
}

// Load reads the graph described by the configuration.
func Load(ctx context.Context, gc config.GraphConfig, dc config.DatabaseConfig, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}

	format := strings.ToLower(gc.Format)
	if format == "" || format == FormatAuto {
		format = DetectFormat(gc.Path)
	}

	var (
		m   *Model
		err error
	)
	switch format {
	case FormatText:
		if gc.Path == "" {
			return nil, fmt.Errorf("graph path is required for %s graphs", format)
		}
		m, err = ReadEdgeListFile(gc.Path)
	case FormatParquet:
		if gc.Path == "" {
			return nil, fmt.Errorf("graph path is required for %s graphs", format)
		}
		m, err = ReadParquet(gc.Path)
	case FormatNeo4j:
		m, err = loadFromNeo4j(ctx, gc, dc)
	default:
		return nil, fmt.Errorf("unknown graph format %q", gc.Format)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Graph loaded", "format", format, "nodes", m.NumNodes(), "edges", m.NumEdges())
	return m, nil
}

func loadFromNeo4j(ctx context.Context, gc config.GraphConfig, dc config.DatabaseConfig) (*Model, error) {
	uri := dc.URI
	if DetectFormat(gc.Path) == FormatNeo4j {
		uri = gc.Path
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(dc.Username, dc.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
	}

	return LoadNeo4j(ctx, driver, Neo4jSource{
		Database: dc.Database,
		Query:    dc.Query,
	})
}
