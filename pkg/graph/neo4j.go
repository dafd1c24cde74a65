package graph

import (
	"context"
	"fmt"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/soundprediction/graphconf/pkg/types"
)

// Neo4jSource describes a Cypher query whose rows are edges. The query must
// return columns u and v (node ids) and may return p; a null v declares an
// isolated node and a null p a certain edge.
type Neo4jSource struct {
	Database string
	Query    string
	Params   map[string]any
}

// LoadNeo4j runs src against driver in a read transaction and builds a Model
// from the rows.
func LoadNeo4j(ctx context.Context, driver neo4j.DriverWithContext, src Neo4jSource) (*Model, error) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: src.Database, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, src.Query, src.Params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]EdgeRow, 0, len(records))
		for i, record := range records {
			row, err := edgeRowFromRecord(record.Get)
			if err != nil {
				return nil, &InputError{Line: i + 1, Err: err}
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load graph from neo4j: %w", err)
	}

	return fromRows(result.([]EdgeRow))
}

func edgeRowFromRecord(get func(string) (any, bool)) (EdgeRow, error) {
	var row EdgeRow

	u, ok := get("u")
	if !ok || u == nil {
		return row, fmt.Errorf("record has no u column: %w", types.ErrMalformedGraphInput)
	}
	row.U = idString(u)

	if v, ok := get("v"); ok && v != nil {
		s := idString(v)
		row.V = &s
	}

	if p, ok := get("p"); ok && p != nil {
		var f float64
		switch val := p.(type) {
		case float64:
			f = val
		case int64:
			f = float64(val)
		case string:
			parsed, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return row, fmt.Errorf("probability %q: %w", val, types.ErrMalformedGraphInput)
			}
			f = parsed
		default:
			return row, fmt.Errorf("probability of type %T: %w", p, types.ErrMalformedGraphInput)
		}
		row.P = &f
	}
	return row, nil
}

func idString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}
