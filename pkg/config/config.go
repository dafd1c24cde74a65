package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Graph source configuration
	Graph GraphConfig `mapstructure:"graph"`

	// Database configuration (neo4j graph source)
	Database DatabaseConfig `mapstructure:"database"`

	// Sampling configuration for the approximate and heuristic evaluators
	Sampling SamplingConfig `mapstructure:"sampling"`

	// Exact evaluator limits
	Exact ExactConfig `mapstructure:"exact"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// GraphConfig selects where the probabilistic graph is loaded from
type GraphConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // auto, text, parquet, neo4j
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	// Query must return columns u, v and p
	Query string `mapstructure:"query"`
}

// SamplingConfig holds defaults for sampling-based evaluation
type SamplingConfig struct {
	Epsilon     float64 `mapstructure:"epsilon"`
	Delta       float64 `mapstructure:"delta"`
	Refine      bool    `mapstructure:"refine"`
	Seed        uint64  `mapstructure:"seed"` // 0 seeds from entropy
	Workers     int     `mapstructure:"workers"`
	MaxTrials   int64   `mapstructure:"max_trials"`
	Stopping    string  `mapstructure:"stopping"`  // sra, optimal
	Estimator   string  `mapstructure:"estimator"` // zero-one, fractional
	TrialFactor float64 `mapstructure:"trial_factor"`
}

// ExactConfig bounds exhaustive enumeration
type ExactConfig struct {
	MaxVars int `mapstructure:"max_vars"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
	RecordSteps bool   `mapstructure:"record_steps"`
	// DbURL is a MySQL/Dolt DSN; when set, error logs are also written there
	DbURL       string `mapstructure:"db_url"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
	MinRequests      uint32  `mapstructure:"min_requests"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaultsOn(v)
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return config
}

func setDefaults() {
	setDefaultsOn(viper.GetViper())
}

func setDefaultsOn(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	// Graph defaults
	v.SetDefault("graph.path", "")
	v.SetDefault("graph.format", "auto")

	// Database defaults
	v.SetDefault("database.uri", "bolt://localhost:7687")
	v.SetDefault("database.username", "neo4j")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")
	v.SetDefault("database.query", "MATCH (a)-[r]->(b) RETURN a.id AS u, b.id AS v, coalesce(r.p, 1.0) AS p")

	// Sampling defaults
	v.SetDefault("sampling.epsilon", 0.05)
	v.SetDefault("sampling.delta", 0.05)
	v.SetDefault("sampling.refine", true)
	v.SetDefault("sampling.seed", 0)
	v.SetDefault("sampling.workers", 0)
	v.SetDefault("sampling.max_trials", 0)
	v.SetDefault("sampling.stopping", "sra")
	v.SetDefault("sampling.estimator", "zero-one")
	v.SetDefault("sampling.trial_factor", 12.0)

	v.SetDefault("exact.max_vars", 20)

	// Telemetry defaults
	v.SetDefault("telemetry.record_steps", false)
	v.SetDefault("telemetry.db_url", "")
	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("telemetry.parquet_path", filepath.Join(home, ".graphconf", "telemetry"))
	}

	// Circuit breaker defaults
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", 60)
	v.SetDefault("circuit_breaker.timeout", 30)
	v.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)
	v.SetDefault("circuit_breaker.min_requests", 3)
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if path := os.Getenv("GRAPHCONF_GRAPH_PATH"); path != "" {
		config.Graph.Path = path
	}

	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil && p > 0 {
			config.Server.Port = p
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
	if dsn := os.Getenv("TELEMETRY_DB_URL"); dsn != "" {
		config.Telemetry.DbURL = dsn
	}
}
