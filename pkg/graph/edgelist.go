package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/soundprediction/graphconf/pkg/types"
)

// ReadEdgeList parses an edge list with one row per line: "u v [p]".
// Fields are separated by whitespace, commas or tabs. A missing p means 1.0,
// a row with a single field declares an isolated node, and blank lines and
// lines starting with '#' are skipped.
func ReadEdgeList(r io.Reader) (*Model, error) {
	b := NewBuilder()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if err := addRow(b, fields); err != nil {
			// a failed read hands back its partial last line
			if rerr := scanner.Err(); rerr != nil {
				return nil, fmt.Errorf("failed to read edge list: %w", rerr)
			}
			return nil, &InputError{Line: line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edge list: %w", err)
	}
	return b.Build(), nil
}

func addRow(b *Builder, fields []string) error {
	switch len(fields) {
	case 1:
		b.AddNode(NodeID(fields[0]))
		return nil
	case 2:
		return b.AddEdge(NodeID(fields[0]), NodeID(fields[1]), 1)
	case 3:
		p, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("probability %q: %w", fields[2], types.ErrMalformedGraphInput)
		}
		return b.AddEdge(NodeID(fields[0]), NodeID(fields[1]), p)
	default:
		return fmt.Errorf("expected 1 to 3 fields, got %d: %w", len(fields), types.ErrMalformedGraphInput)
	}
}

// ReadEdgeListFile opens path and parses it with ReadEdgeList
func ReadEdgeListFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	m, err := ReadEdgeList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteEdgeList writes m in the format read by ReadEdgeList. Isolated nodes
// are written as single-field rows.
func WriteEdgeList(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	for _, e := range m.Edges() {
		if _, err := fmt.Fprintf(bw, "%s %s %s\n", e.U, e.V, strconv.FormatFloat(e.P, 'g', -1, 64)); err != nil {
			return err
		}
	}
	for _, n := range m.Nodes() {
		if m.Degree(n) == 0 {
			if _, err := fmt.Fprintf(bw, "%s\n", n); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
