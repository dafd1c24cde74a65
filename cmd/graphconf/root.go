package graphconf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/soundprediction/graphconf/pkg/config"
	"github.com/soundprediction/graphconf/pkg/logger"
	"github.com/soundprediction/graphconf/pkg/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "graphconf",
		Short: "graphconf: pattern confidence in probabilistic graphs",
		Long: `graphconf computes the probability that a structural pattern (a triangle,
a 4-clique, an induced path, a k-hop neighbourhood...) is present in a graph
whose edges exist independently with given probabilities.

Confidences are computed exactly for small lineage formulas, or estimated with
the Karp-Luby sampler under an (epsilon, delta) guarantee, optionally refined
round by round.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.graphconf.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".graphconf")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// app bundles what every command needs
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func() error
}

// newApp loads configuration and builds the logger. Error-level logs are
// also recorded to Parquet and, when telemetry.db_url is set, to MySQL.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	errOut := cmd.ErrOrStderr()
	a := &app{cfg: cfg}
	handler := logger.New(errOut, cfg.Log.Level, cfg.Log.Format).Handler()

	if cfg.Telemetry.ParquetPath != "" {
		ph, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Fprintf(errOut, "Warning: failed to initialize error tracking: %v\n", err)
		} else {
			handler = ph
			a.closers = append(a.closers, ph.Flush)
		}
	}

	if cfg.Telemetry.DbURL != "" {
		db, err := telemetry.OpenSQL("mysql", cfg.Telemetry.DbURL)
		if err == nil {
			var sh *telemetry.SQLHandler
			sh, err = telemetry.NewSQLHandler(handler, db)
			if err == nil {
				handler = sh
				a.closers = append(a.closers, db.Close)
			} else {
				db.Close()
			}
		}
		if err != nil {
			fmt.Fprintf(errOut, "Warning: failed to initialize SQL error tracking: %v\n", err)
		}
	}

	a.logger = slog.New(handler)
	return a, nil
}

// Close flushes telemetry
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
