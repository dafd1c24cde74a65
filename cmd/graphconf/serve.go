package graphconf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/soundprediction/graphconf"
	"github.com/soundprediction/graphconf/pkg/config"
	"github.com/soundprediction/graphconf/pkg/graph"
	"github.com/soundprediction/graphconf/pkg/server"
	"github.com/soundprediction/graphconf/pkg/telemetry"
	"github.com/soundprediction/graphconf/pkg/utils"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the graphconf HTTP server",
	Long: `Start the graphconf HTTP server.

The server provides endpoints for:
- Listing the pattern catalog
- Loading and replacing the probabilistic graph
- Running queries, streaming refinement steps as NDJSON or server-sent events
- Health checks

A graph given with --graph (or graph.path) is loaded at startup; otherwise the
server starts empty and waits for PUT /api/v1/graph.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "Server host")
	serveCmd.Flags().Int("port", 8080, "Server port")
	serveCmd.Flags().String("mode", "release", "Server mode (debug, release, test)")

	serveCmd.Flags().String("graph", "", "graph file (edge list or .parquet) or neo4j:// URI")
	serveCmd.Flags().String("format", "", "graph format (auto, text, parquet, neo4j)")
	serveCmd.Flags().Uint64("seed", 0, "random seed; 0 seeds from entropy")
	serveCmd.Flags().Int("workers", 0, "sampling workers; 0 uses GOMAXPROCS")

	serveCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for telemetry (errors and steps)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	overrideConfigWithFlags(cmd, a.cfg)
	if err := validateServerConfig(a.cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	engineCfg, err := graphconf.ConfigFromSettings(a.cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var model *graph.Model
	if a.cfg.Graph.Path != "" || a.cfg.Graph.Format == graph.FormatNeo4j {
		model, err = graph.Load(cmd.Context(), a.cfg.Graph, a.cfg.Database, a.logger)
		if err != nil {
			return err
		}
	}
	engine := graphconf.NewEngine(model, engineCfg, a.logger)

	if a.cfg.Telemetry.RecordSteps && a.cfg.Telemetry.ParquetPath != "" {
		recorder, err := telemetry.NewStepRecorder(filepath.Join(a.cfg.Telemetry.ParquetPath, "steps"), 0, a.logger)
		if err != nil {
			a.logger.Warn("Step telemetry disabled", "error", err)
		} else {
			engine.SetStepSink(recorder)
			defer recorder.Flush()
		}
	}

	srv := server.New(a.cfg, engine, a.logger)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := utils.SafeGoWithResult(func() error {
		if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case err := <-serverErrChan:
		if err == nil {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.logger.Info("Received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		a.logger.Info("Server stopped gracefully")
		return nil
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	return nil
}
