// Package config loads engine configuration from environment variables,
// following the teacher's Neo4j-compatible naming convention: well-known
// NEO4J_* variables pass through for deployment-tooling compatibility,
// while every pgraphdb-specific setting uses a PGRAPHDB_ prefix.
//
// Configuration is loaded with LoadFromEnv() and should be checked with
// Validate() before the engine starts.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//
// Environment Variables:
//
// Neo4j-Compatible:
//   - NEO4J_dbms_directories_data="./data"
//
// pgraphdb-specific:
//   - PGRAPHDB_DATA_DIR="./data"
//   - PGRAPHDB_DEFAULT_FORMAT="verbose" | "compact"
//   - PGRAPHDB_QUERY_TIMEOUT="30s"
//   - PGRAPHDB_FLUSH_BATCH_ROWS=1024
//   - PGRAPHDB_ROW_CAP=1000000
//   - PGRAPHDB_BURBLE_TRACE=false
//   - PGRAPHDB_CHECKPOINT_DIR="./data/checkpoint"
//   - PGRAPHDB_CHECKPOINT_INTERVAL="5m"
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings LoadFromEnv reads from the environment. No
// other package in this module reads a Config.
type Config struct {
	// DataDir is where checkpoint files are read from and written to.
	DataDir string

	// DefaultFormat names a wire format: verbose, compact or none.
	// Execute takes its format as an argument and does not read this field.
	DefaultFormat string

	// QueryTimeout is a per-query time bound. Execute does not read it and
	// applies no timeout of its own.
	QueryTimeout time.Duration

	// FlushBatchRows is a row-chunk size. pkg/resultset's DataBlock does
	// not read it; its chunk size is the fixed blockRows constant (1024).
	FlushBatchRows int

	// RowCap is a per-query row bound. Execute does not read it; it passes
	// its own defaultRowCap constant (1,000,000) to Results, which reports
	// Truncated when that cap is reached.
	RowCap int

	// BurbleTrace is a switch for QueryCtx's progress-trace channel, off by
	// default. Nothing reads it, and Execute never sets that channel.
	BurbleTrace bool

	// CheckpointDir is where pkg/checkpoint writes its badger-backed
	// snapshot and yaml manifest (spec §6.4).
	CheckpointDir string

	// CheckpointInterval is how often a long-running server triggers an
	// automatic checkpoint; zero disables automatic checkpointing.
	CheckpointInterval time.Duration
}

// LoadFromEnv builds a Config from environment variables, falling back to
// sane defaults for anything unset.
func LoadFromEnv() *Config {
	cfg := &Config{
		DataDir:            firstNonEmpty(os.Getenv("PGRAPHDB_DATA_DIR"), os.Getenv("NEO4J_dbms_directories_data"), "./data"),
		DefaultFormat:      strings.ToLower(envOr("PGRAPHDB_DEFAULT_FORMAT", "verbose")),
		QueryTimeout:       envDuration("PGRAPHDB_QUERY_TIMEOUT", 30*time.Second),
		FlushBatchRows:     envInt("PGRAPHDB_FLUSH_BATCH_ROWS", 1024),
		RowCap:             envInt("PGRAPHDB_ROW_CAP", 1_000_000),
		BurbleTrace:        envBool("PGRAPHDB_BURBLE_TRACE", false),
		CheckpointDir:      envOr("PGRAPHDB_CHECKPOINT_DIR", "./data/checkpoint"),
		CheckpointInterval: envDuration("PGRAPHDB_CHECKPOINT_INTERVAL", 5*time.Minute),
	}
	return cfg
}

// Validate checks that every setting is internally consistent, returning
// the first problem found.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	switch c.DefaultFormat {
	case "verbose", "compact", "none":
	default:
		return fmt.Errorf("config: DefaultFormat %q must be one of verbose, compact, none", c.DefaultFormat)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("config: QueryTimeout must be positive")
	}
	if c.FlushBatchRows <= 0 {
		return fmt.Errorf("config: FlushBatchRows must be positive")
	}
	if c.RowCap <= 0 {
		return fmt.Errorf("config: RowCap must be positive")
	}
	if c.CheckpointDir == "" {
		return fmt.Errorf("config: CheckpointDir must not be empty")
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("config: CheckpointInterval must not be negative")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
