package graphconf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/soundprediction/graphconf"
	"github.com/soundprediction/graphconf/pkg/config"
	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/refine"
	"github.com/soundprediction/graphconf/pkg/telemetry"
	"github.com/soundprediction/graphconf/pkg/types"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Compute the confidence of a pattern",
	Long: `Compute the confidence of a pattern in a probabilistic graph and print
every refinement step as it completes.

Methods:
  exact      (conf)   exhaustive evaluation of the lineage formula
  approx     (aconf)  Karp-Luby estimate within relative error epsilon with probability 1-delta
  heuristic  (rconf)  fixed-trial Karp-Luby estimate, no delta guarantee

Examples:
  graphconf query --graph social.txt --pattern triangle --method exact
  graphconf query --graph social.txt --pattern hop-neighborhood --arg start=7 --arg hops=3 \
      --method approx --epsilon 0.05 --delta 0.01 --refine --output json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().String("graph", "", "graph file (edge list or .parquet) or neo4j:// URI")
	queryCmd.Flags().String("format", "", "graph format (auto, text, parquet, neo4j)")
	queryCmd.Flags().String("pattern", "", "pattern id or index (see 'graphconf patterns')")
	queryCmd.Flags().StringArray("arg", nil, "pattern argument as name=value, repeatable")
	queryCmd.Flags().String("method", "approx", "evaluation method (exact, approx, heuristic)")
	queryCmd.Flags().Float64("epsilon", 0, "target relative error (default from config)")
	queryCmd.Flags().Float64("delta", 0, "failure probability for approx (default from config)")
	queryCmd.Flags().Bool("refine", false, "stream progressively tighter estimates (default from config)")
	queryCmd.Flags().Uint64("seed", 0, "random seed; 0 seeds from entropy")
	queryCmd.Flags().Int("workers", 0, "sampling workers; 0 uses GOMAXPROCS")
	queryCmd.Flags().String("stopping", "", "approx stopping rule (sra, optimal)")
	queryCmd.Flags().String("estimator", "", "approx trial estimator (zero-one, fractional)")
	queryCmd.Flags().Int64("max-trials", 0, "abort a round after this many trials; 0 is unlimited")
	queryCmd.Flags().Int("max-vars", 0, "largest formula evaluated exactly")
	queryCmd.Flags().StringP("output", "o", OutputText, "output format (text, json, yaml)")
	queryCmd.Flags().String("record-dir", "", "write every step to Parquet files in this directory")

	queryCmd.MarkFlagRequired("pattern")
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	patternID, _ := cmd.Flags().GetString("pattern")
	rawArgs, _ := cmd.Flags().GetStringArray("arg")
	patternArgs, err := parsePatternArgs(rawArgs)
	if err != nil {
		return err
	}
	methodName, _ := cmd.Flags().GetString("method")
	method, err := refine.ParseMethod(methodName)
	if err != nil {
		return err
	}

	engineCfg, err := graphconf.ConfigFromSettings(a.cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "cli")

	model, err := graph.Load(ctx, a.cfg.Graph, a.cfg.Database, a.logger)
	if err != nil {
		return err
	}
	engine := graphconf.NewEngine(model, engineCfg, a.logger)

	recorder, err := stepRecorder(cmd, a)
	if err != nil {
		return err
	}
	if recorder != nil {
		engine.SetStepSink(recorder)
		defer func() {
			if err := recorder.Flush(); err != nil {
				a.logger.Error("Failed to write step telemetry", "error", err)
			}
		}()
	}

	q, err := engine.Submit(ctx, graphconf.Submission{
		Pattern: patternID,
		Args:    patternArgs,
		Method:  method,
		Epsilon: a.cfg.Sampling.Epsilon,
		Delta:   a.cfg.Sampling.Delta,
		Refine:  a.cfg.Sampling.Refine,
	})
	if err != nil {
		return err
	}
	defer q.Close()

	out := cmd.OutOrStdout()
	var last refine.Step
	for step := range q.Steps(ctx) {
		last = step
		if enc == nil {
			writeStepText(out, step)
			continue
		}
		if err := enc.Encode(step); err != nil {
			return fmt.Errorf("failed to write step: %w", err)
		}
	}

	if last.State != refine.Done {
		return fmt.Errorf("query %s: %w", last.State, stepError(last))
	}
	return nil
}

// ErrQueryCancelled marks a query stopped before its target precision
var ErrQueryCancelled = errors.New("query cancelled")

func stepError(step refine.Step) error {
	if step.Err != nil && step.State == refine.Failed {
		return step.Err
	}
	return ErrQueryCancelled
}

// parsePatternArgs splits name=value pairs
func parsePatternArgs(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("--arg %q: want name=value: %w", kv, types.ErrInvalidArgument)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

// stepRecorder returns a recorder when --record-dir or telemetry.record_steps asks for one
func stepRecorder(cmd *cobra.Command, a *app) (*telemetry.StepRecorder, error) {
	dir, _ := cmd.Flags().GetString("record-dir")
	if dir == "" && a.cfg.Telemetry.RecordSteps && a.cfg.Telemetry.ParquetPath != "" {
		dir = filepath.Join(a.cfg.Telemetry.ParquetPath, "steps")
	}
	if dir == "" {
		return nil, nil
	}
	return telemetry.NewStepRecorder(dir, 0, a.logger)
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	// Graph flags
	if flags.Changed("graph") {
		cfg.Graph.Path, _ = flags.GetString("graph")
	}
	if flags.Changed("format") {
		cfg.Graph.Format, _ = flags.GetString("format")
	}

	// Sampling flags
	if flags.Changed("epsilon") {
		cfg.Sampling.Epsilon, _ = flags.GetFloat64("epsilon")
	}
	if flags.Changed("delta") {
		cfg.Sampling.Delta, _ = flags.GetFloat64("delta")
	}
	if flags.Changed("refine") {
		cfg.Sampling.Refine, _ = flags.GetBool("refine")
	}
	if flags.Changed("seed") {
		cfg.Sampling.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("workers") {
		cfg.Sampling.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("stopping") {
		cfg.Sampling.Stopping, _ = flags.GetString("stopping")
	}
	if flags.Changed("estimator") {
		cfg.Sampling.Estimator, _ = flags.GetString("estimator")
	}
	if flags.Changed("max-trials") {
		cfg.Sampling.MaxTrials, _ = flags.GetInt64("max-trials")
	}
	if flags.Changed("max-vars") {
		cfg.Exact.MaxVars, _ = flags.GetInt("max-vars")
	}

	// Server flags
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("mode") {
		cfg.Server.Mode, _ = flags.GetString("mode")
	}

	// Telemetry flags
	if flags.Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = flags.GetString("telemetry-parquet-path")
	}
}
