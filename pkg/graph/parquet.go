package graph

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/graphconf/pkg/types"
)

// EdgeRow is the Parquet schema for edge lists. A row without v declares an
// isolated node; a row without p is a certain edge.
type EdgeRow struct {
	U string   `parquet:"u"`
	V *string  `parquet:"v,optional"`
	P *float64 `parquet:"p,optional"`
}

// ReadParquet loads a Model from a Parquet edge list.
func ReadParquet(path string) (*Model, error) {
	rows, err := parquet.ReadFile[EdgeRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet edge list %s: %w", path, err)
	}
	return fromRows(rows)
}

func fromRows(rows []EdgeRow) (*Model, error) {
	b := NewBuilder()
	for i, row := range rows {
		if row.V == nil || *row.V == "" {
			if row.U == "" {
				return nil, &InputError{Line: i + 1, Err: fmt.Errorf("empty node id: %w", types.ErrMalformedGraphInput)}
			}
			b.AddNode(NodeID(row.U))
			continue
		}
		p := 1.0
		if row.P != nil {
			p = *row.P
		}
		if err := b.AddEdge(NodeID(row.U), NodeID(*row.V), p); err != nil {
			return nil, &InputError{Line: i + 1, Err: err}
		}
	}
	return b.Build(), nil
}

func toRows(m *Model) []EdgeRow {
	rows := make([]EdgeRow, 0, m.NumEdges())
	for _, e := range m.Edges() {
		v := string(e.V)
		p := e.P
		rows = append(rows, EdgeRow{U: string(e.U), V: &v, P: &p})
	}
	for _, n := range m.Nodes() {
		if m.Degree(n) == 0 {
			rows = append(rows, EdgeRow{U: string(n)})
		}
	}
	return rows
}

// WriteParquet writes m as a Parquet edge list.
func WriteParquet(path string, m *Model) error {
	if err := parquet.WriteFile(path, toRows(m)); err != nil {
		return fmt.Errorf("failed to write parquet edge list %s: %w", path, err)
	}
	return nil
}
