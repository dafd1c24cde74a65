package graphconf

import (
	"fmt"
	"os"

	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize a probabilistic graph",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("graph", "", "graph file (edge list or .parquet) or neo4j:// URI")
	statsCmd.Flags().String("format", "", "graph format (auto, text, parquet, neo4j)")
	statsCmd.Flags().StringP("output", "o", OutputText, "output format (text, json, yaml)")
	statsCmd.Flags().String("export", "", "also write the graph to this path (.parquet or edge list)")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	overrideConfigWithFlags(cmd, a.cfg)

	outFormat, _ := cmd.Flags().GetString("output")
	enc, err := newEncoder(cmd.OutOrStdout(), outFormat)
	if err != nil {
		return err
	}

	m, err := graph.Load(cmd.Context(), a.cfg.Graph, a.cfg.Database, a.logger)
	if err != nil {
		return err
	}

	if export, _ := cmd.Flags().GetString("export"); export != "" {
		if err := exportGraph(export, m); err != nil {
			return err
		}
		a.logger.Info("Graph exported", "path", export)
	}

	s := m.Stats()
	if enc != nil {
		return enc.Encode(s)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "nodes            %d\n", s.Nodes)
	fmt.Fprintf(out, "edges            %d\n", s.Edges)
	fmt.Fprintf(out, "certain edges    %d\n", s.Certain)
	fmt.Fprintf(out, "isolated nodes   %d\n", s.Isolated)
	fmt.Fprintf(out, "max degree       %d\n", s.MaxDegree)
	fmt.Fprintf(out, "mean probability %.4f\n", s.MeanProb)
	fmt.Fprintf(out, "expected degree  %.4f\n", s.ExpectedDeg)
	return nil
}

func exportGraph(path string, m *graph.Model) error {
	if graph.DetectFormat(path) == graph.FormatParquet {
		return graph.WriteParquet(path, m)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := graph.WriteEdgeList(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
