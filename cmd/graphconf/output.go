package graphconf

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/soundprediction/graphconf/pkg/pattern"
	"github.com/soundprediction/graphconf/pkg/refine"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// encoder writes a stream of values in one output format
type encoder interface {
	Encode(v any) error
}

func newEncoder(w io.Writer, format string) (encoder, error) {
	switch strings.ToLower(format) {
	case OutputJSON:
		return json.NewEncoder(w), nil
	case OutputYAML:
		return yaml.NewEncoder(w), nil
	case OutputText, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// writeStepText prints one step for humans
func writeStepText(w io.Writer, step refine.Step) {
	elapsed := step.Elapsed.Round(time.Microsecond)
	if step.Terminal() {
		fmt.Fprintf(w, "%-9s epsilon=%-8g trials=%d elapsed=%s", step.State, step.Epsilon, step.Trials, elapsed)
		if step.Error != "" {
			fmt.Fprintf(w, " error=%q", step.Error)
		}
		fmt.Fprintln(w)
		return
	}

	est := step.Estimate
	if est == nil {
		return
	}
	fmt.Fprintf(w, "round %-3d epsilon=%-8g", step.Round, step.Epsilon)
	if step.Delta > 0 {
		fmt.Fprintf(w, " delta=%-6g", step.Delta)
	}
	if !est.Keyed {
		fmt.Fprintf(w, " confidence=%.6f trials=%d elapsed=%s\n", est.Value, step.Trials, elapsed)
		return
	}
	fmt.Fprintf(w, " keys=%d trials=%d elapsed=%s\n", len(est.Values), step.Trials, elapsed)

	keys := make([]string, 0, len(est.Values))
	for k := range est.Values {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, pattern.CompareKeys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %.6f\n", k, est.Values[k])
	}
}
