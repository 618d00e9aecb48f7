// Package config handles engine configuration via environment variables.
//
// The engine is embedded, not served, so there is no listener or auth
// surface to configure here — only what an embedding process needs to pick
// a storage driver and bound the resources a single query may consume.
// Configuration is loaded from environment variables using LoadFromEnv and
// can be validated with Validate before use.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds all engine configuration loaded from environment variables.
type Config struct {
	// Database settings: where the engine keeps its directory and which
	// StorageDriver backs it.
	Database DatabaseConfig

	// Limits bound a single statement's resource consumption, enforced by
	// pkg/textsearch.ResourceMonitor and pkg/engine's cancellation polling.
	Limits ResourceLimits

	// Logging settings.
	Logging LoggingConfig

	// TextSearch holds inverted-index write-buffer and query-cache settings.
	// They are loaded and validated here; pkg/engine does not pass them to
	// pkg/textsearch.
	TextSearch TextSearchConfig
}

// DatabaseConfig holds database directory and driver settings.
type DatabaseConfig struct {
	// DataDir is the database directory holding the WAL, clean-shutdown
	// marker, and one subdirectory per storage driver's on-disk trees.
	DataDir string
	// Driver selects the StorageDriver kind: "memory" or "badger".
	Driver string
	// ReadOnly refuses DDL and data-modification statements when set.
	ReadOnly bool
}

// ResourceLimits bounds what a single query may consume.
type ResourceLimits struct {
	// QueryTimeout aborts a statement that runs longer than this.
	QueryTimeout time.Duration
	// MaxMemoryBytes is the per-query memory ceiling handed to each text
	// index's ResourceMonitor; no query path calls CheckMemory, so it is
	// not enforced.
	MaxMemoryBytes int64
	// MaxResultRows is the result-size ceiling; one row past it is
	// rejected with ResourceExhausted.
	MaxResultRows int
	// MaxIndexSizeBytes is the per-text-index size ceiling handed to each
	// index's ResourceMonitor; no indexing path calls CheckIndexSize, so it
	// is not enforced.
	MaxIndexSizeBytes int64
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (DEBUG, INFO, WARN, ERROR).
	Level string
	// QueryLogEnabled is loaded from GQLGRAPH_QUERY_LOG_ENABLED; no
	// component in this module reads it, so statements are not logged.
	QueryLogEnabled bool
	// SlowQueryThreshold is loaded from GQLGRAPH_SLOW_QUERY_THRESHOLD; no
	// component in this module reads it (ConcurrencyController uses its own
	// fixed threshold).
	SlowQueryThreshold time.Duration
}

// TextSearchConfig tunes the inverted-index performance layer.
type TextSearchConfig struct {
	// BatchCommitSize is the number of buffered documents before an
	// automatic commit.
	BatchCommitSize int
	// QueryCacheSize is the LRU query cache's entry capacity.
	QueryCacheSize int
	// QueryCacheTTL is how long a cached search result stays valid.
	QueryCacheTTL time.Duration
}

// DefaultConfig returns the configuration LoadFromEnv produces when no
// environment variables are set — safe for tests and embedding without any
// setup.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{DataDir: "./data", Driver: "badger", ReadOnly: false},
		Limits: ResourceLimits{
			QueryTimeout:      30 * time.Second,
			MaxMemoryBytes:    1 << 30,     // 1 GB
			MaxResultRows:     100_000,
			MaxIndexSizeBytes: 10 << 30,    // 10 GB
		},
		Logging:    LoggingConfig{Level: "INFO", QueryLogEnabled: false, SlowQueryThreshold: 100 * time.Millisecond},
		TextSearch: TextSearchConfig{BatchCommitSize: 100, QueryCacheSize: 256, QueryCacheTTL: 5 * time.Minute},
	}
}

// LoadFromEnv loads configuration from environment variables, prefixed
// GQLGRAPH_, falling back to DefaultConfig's values where unset.
//
// Example:
//
//	os.Setenv("GQLGRAPH_DATA_DIR", "/var/lib/mydb")
//	os.Setenv("GQLGRAPH_QUERY_TIMEOUT", "10s")
//	cfg := config.LoadFromEnv()
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	cfg.Database.DataDir = getEnv("GQLGRAPH_DATA_DIR", cfg.Database.DataDir)
	cfg.Database.Driver = getEnv("GQLGRAPH_DRIVER", cfg.Database.Driver)
	cfg.Database.ReadOnly = getEnvBool("GQLGRAPH_READ_ONLY", cfg.Database.ReadOnly)

	cfg.Limits.QueryTimeout = getEnvDuration("GQLGRAPH_QUERY_TIMEOUT", cfg.Limits.QueryTimeout)
	cfg.Limits.MaxMemoryBytes = getEnvBytes("GQLGRAPH_MAX_MEMORY", cfg.Limits.MaxMemoryBytes)
	cfg.Limits.MaxResultRows = getEnvInt("GQLGRAPH_MAX_RESULT_ROWS", cfg.Limits.MaxResultRows)
	cfg.Limits.MaxIndexSizeBytes = getEnvBytes("GQLGRAPH_MAX_INDEX_SIZE", cfg.Limits.MaxIndexSizeBytes)

	cfg.Logging.Level = getEnv("GQLGRAPH_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.QueryLogEnabled = getEnvBool("GQLGRAPH_QUERY_LOG_ENABLED", cfg.Logging.QueryLogEnabled)
	cfg.Logging.SlowQueryThreshold = getEnvDuration("GQLGRAPH_SLOW_QUERY_THRESHOLD", cfg.Logging.SlowQueryThreshold)

	cfg.TextSearch.BatchCommitSize = getEnvInt("GQLGRAPH_TEXT_BATCH_COMMIT_SIZE", cfg.TextSearch.BatchCommitSize)
	cfg.TextSearch.QueryCacheSize = getEnvInt("GQLGRAPH_TEXT_QUERY_CACHE_SIZE", cfg.TextSearch.QueryCacheSize)
	cfg.TextSearch.QueryCacheTTL = getEnvDuration("GQLGRAPH_TEXT_QUERY_CACHE_TTL", cfg.TextSearch.QueryCacheTTL)

	return cfg
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "badger":
	default:
		return fmt.Errorf("config: unknown driver %q (want memory or badger)", c.Database.Driver)
	}
	if c.Database.DataDir == "" {
		return fmt.Errorf("config: data dir must not be empty")
	}
	if c.Limits.QueryTimeout <= 0 {
		return fmt.Errorf("config: query timeout must be positive")
	}
	if c.Limits.MaxResultRows <= 0 {
		return fmt.Errorf("config: max result rows must be positive")
	}
	if c.TextSearch.BatchCommitSize <= 0 {
		return fmt.Errorf("config: text search batch commit size must be positive")
	}
	return nil
}

// String returns a human-readable summary suitable for a startup log line.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{dataDir: %s, driver: %s, timeout: %s, maxMemory: %s, maxRows: %d}",
		c.Database.DataDir, c.Database.Driver, c.Limits.QueryTimeout,
		humanize.IBytes(uint64(c.Limits.MaxMemoryBytes)), c.Limits.MaxResultRows,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

// getEnvBytes parses a human-readable byte size ("1GB", "512MB", "2TiB")
// via go-humanize, falling back to defaultVal on an empty or invalid value.
func getEnvBytes(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := humanize.ParseBytes(val)
	if err != nil {
		return defaultVal
	}
	return int64(n)
}
