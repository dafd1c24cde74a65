package main

import (
	"log/slog"

	"github.com/soundprediction/graphconf/pkg/logger"
)

func main() {
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("    graphconf Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - gray")
	log.Info("Info message - standard color")
	log.Info("Graph loaded - green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("Results are highlighted in green:")
	log.Info("Graph loaded", "format", "text", "nodes", 1200, "edges", 5400)
	log.Debug("Refinement round completed", "round", 0, "epsilon", 0.5, "trials", 4096)
	log.Debug("Karp-Luby estimate", "clauses", 311, "vars", 87, "estimate", 0.4312)
	log.Info("Query completed", "state", "done", "epsilon", 0.05)

	log.Info("")
	log.Warn("Warnings appear in yellow for attention")
	log.Error("Refinement round failed", "error", "formula too large for exact evaluation")

	log.Info("")
	log.Info("Demo complete!")
}
