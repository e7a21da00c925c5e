package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration. It mirrors the
// tunables described in the specification's component design sections:
// BM25 constants, shard placement, query cache, snapshot scheduling, and
// resource caps.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Scoring    ScoringConfig    `yaml:"scoring" json:"scoring"`
	Shards     ShardsConfig     `yaml:"shards" json:"shards"`
	Cache      CacheConfig      `yaml:"cache" json:"cache"`
	Snapshots  SnapshotsConfig  `yaml:"snapshots" json:"snapshots"`
	Resources  ResourcesConfig  `yaml:"resources" json:"resources"`
	Server     ServerConfig     `yaml:"server" json:"server"`
}

// ScoringConfig configures the BM25 ranking function.
type ScoringConfig struct {
	// K1 controls term-frequency saturation (default 1.2).
	K1 float64 `yaml:"k1" json:"k1"`
	// B controls document-length normalization (default 0.75).
	B float64 `yaml:"b" json:"b"`
}

// ShardsConfig configures the sharded index manager.
type ShardsConfig struct {
	// Count is the number of shards per index (default 4).
	Count int `yaml:"count" json:"count"`
	// ReplicationFactor is the number of replicas per shard (default 1).
	ReplicationFactor int `yaml:"replication_factor" json:"replication_factor"`
	// Placement selects the shard placement strategy: "hash", "round_robin",
	// "range", or "custom".
	Placement string `yaml:"placement" json:"placement"`
	// IngestQueueDepth bounds the per-shard ingest channel (default 1024).
	IngestQueueDepth int `yaml:"ingest_queue_depth" json:"ingest_queue_depth"`
	// RebalanceInterval is how often the manager checks shard balance
	// (e.g. "5m"). Empty disables auto-rebalance.
	RebalanceInterval string `yaml:"rebalance_interval" json:"rebalance_interval"`
}

// CacheConfig configures the query-result cache.
type CacheConfig struct {
	// Enabled turns the result cache on or off (default true).
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Size is the maximum number of cached query results (default 1000).
	Size int `yaml:"size" json:"size"`
	// TTL is the cache entry lifetime (e.g. "30s").
	TTL string `yaml:"ttl" json:"ttl"`
}

// SnapshotsConfig configures scheduled snapshotting and retention.
type SnapshotsConfig struct {
	// Dir is the directory snapshots are written to.
	Dir string `yaml:"dir" json:"dir"`
	// Interval is how often an automatic snapshot is taken (e.g. "1h").
	// Empty disables scheduled snapshots.
	Interval string `yaml:"interval" json:"interval"`
	// Retain is the number of snapshots to keep per index (default 3).
	Retain int `yaml:"retain" json:"retain"`
	// Catalog selects the snapshot catalog backend: "fs" or "sqlite".
	Catalog string `yaml:"catalog" json:"catalog"`
}

// ResourcesConfig configures resource caps honored across the engine.
type ResourcesConfig struct {
	// MaxDocsPerIndex caps documents per index (0 = unbounded).
	MaxDocsPerIndex int `yaml:"max_docs_per_index" json:"max_docs_per_index"`
	// MaxFieldsPerIndex caps distinct mapped fields per index.
	MaxFieldsPerIndex int `yaml:"max_fields_per_index" json:"max_fields_per_index"`
	// IngestWorkers is the number of concurrent ingest goroutines per shard.
	IngestWorkers int `yaml:"ingest_workers" json:"ingest_workers"`
	// MaxQueryConcurrency bounds concurrently executing queries.
	MaxQueryConcurrency int `yaml:"max_query_concurrency" json:"max_query_concurrency"`
}

// ServerConfig configures the ftsctl host process.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults, mirroring the
// defaults named in the specification (BM25 k1=1.2, b=0.75; 4 shards,
// replication factor 1; query cache with a 30s TTL).
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Scoring: ScoringConfig{
			K1: 1.2,
			B:  0.75,
		},
		Shards: ShardsConfig{
			Count:             4,
			ReplicationFactor: 1,
			Placement:         "hash",
			IngestQueueDepth:  1024,
			RebalanceInterval: "",
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    1000,
			TTL:     "30s",
		},
		Snapshots: SnapshotsConfig{
			Dir:      defaultSnapshotDir(),
			Interval: "",
			Retain:   3,
			Catalog:  "fs",
		},
		Resources: ResourcesConfig{
			MaxDocsPerIndex:     0,
			MaxFieldsPerIndex:   1000,
			IngestWorkers:       runtime.NumCPU(),
			MaxQueryConcurrency: runtime.NumCPU() * 4,
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// defaultSnapshotDir returns ~/.ftsengine/snapshots, falling back to the
// temp directory if the home directory is unavailable.
func defaultSnapshotDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ftsengine", "snapshots")
	}
	return filepath.Join(home, ".ftsengine", "snapshots")
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ftsengine", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ftsengine", "config.yaml")
	}
	return filepath.Join(home, ".config", "ftsengine", "config.yaml")
}

// Load loads configuration from the given directory, applying overrides in
// order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/ftsengine/config.yaml)
//  3. Project config (.ftsengine.yaml in dir)
//  4. Environment variables (FTSENGINE_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .ftsengine.yaml or .yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".ftsengine.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".ftsengine.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Scoring.K1 != 0 {
		c.Scoring.K1 = other.Scoring.K1
	}
	if other.Scoring.B != 0 {
		c.Scoring.B = other.Scoring.B
	}
	if other.Shards.Count != 0 {
		c.Shards.Count = other.Shards.Count
	}
	if other.Shards.ReplicationFactor != 0 {
		c.Shards.ReplicationFactor = other.Shards.ReplicationFactor
	}
	if other.Shards.Placement != "" {
		c.Shards.Placement = other.Shards.Placement
	}
	if other.Shards.IngestQueueDepth != 0 {
		c.Shards.IngestQueueDepth = other.Shards.IngestQueueDepth
	}
	if other.Shards.RebalanceInterval != "" {
		c.Shards.RebalanceInterval = other.Shards.RebalanceInterval
	}
	if other.Cache.Size != 0 {
		c.Cache.Size = other.Cache.Size
	}
	if other.Cache.TTL != "" {
		c.Cache.TTL = other.Cache.TTL
	}
	if other.Snapshots.Dir != "" {
		c.Snapshots.Dir = other.Snapshots.Dir
	}
	if other.Snapshots.Interval != "" {
		c.Snapshots.Interval = other.Snapshots.Interval
	}
	if other.Snapshots.Retain != 0 {
		c.Snapshots.Retain = other.Snapshots.Retain
	}
	if other.Snapshots.Catalog != "" {
		c.Snapshots.Catalog = other.Snapshots.Catalog
	}
	if other.Resources.MaxDocsPerIndex != 0 {
		c.Resources.MaxDocsPerIndex = other.Resources.MaxDocsPerIndex
	}
	if other.Resources.MaxFieldsPerIndex != 0 {
		c.Resources.MaxFieldsPerIndex = other.Resources.MaxFieldsPerIndex
	}
	if other.Resources.IngestWorkers != 0 {
		c.Resources.IngestWorkers = other.Resources.IngestWorkers
	}
	if other.Resources.MaxQueryConcurrency != 0 {
		c.Resources.MaxQueryConcurrency = other.Resources.MaxQueryConcurrency
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies FTSENGINE_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FTSENGINE_BM25_K1"); v != "" {
		if f, err := parseFloat64(v); err == nil && f >= 0 {
			c.Scoring.K1 = f
		}
	}
	if v := os.Getenv("FTSENGINE_BM25_B"); v != "" {
		if f, err := parseFloat64(v); err == nil && f >= 0 && f <= 1 {
			c.Scoring.B = f
		}
	}
	if v := os.Getenv("FTSENGINE_SHARD_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Shards.Count = n
		}
	}
	if v := os.Getenv("FTSENGINE_REPLICATION_FACTOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Shards.ReplicationFactor = n
		}
	}
	if v := os.Getenv("FTSENGINE_SNAPSHOT_DIR"); v != "" {
		c.Snapshots.Dir = v
	}
	if v := os.Getenv("FTSENGINE_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("FTSENGINE_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
}

// parseFloat64 parses a string to float64.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Scoring.K1 < 0 {
		return fmt.Errorf("scoring.k1 must be non-negative, got %f", c.Scoring.K1)
	}
	if c.Scoring.B < 0 || c.Scoring.B > 1 {
		return fmt.Errorf("scoring.b must be between 0 and 1, got %f", c.Scoring.B)
	}
	if c.Shards.Count <= 0 {
		return fmt.Errorf("shards.count must be positive, got %d", c.Shards.Count)
	}
	if c.Shards.ReplicationFactor <= 0 {
		return fmt.Errorf("shards.replication_factor must be positive, got %d", c.Shards.ReplicationFactor)
	}
	validPlacements := map[string]bool{"hash": true, "round_robin": true, "range": true, "custom": true}
	if !validPlacements[strings.ToLower(c.Shards.Placement)] {
		return fmt.Errorf("shards.placement must be 'hash', 'round_robin', 'range', or 'custom', got %s", c.Shards.Placement)
	}
	validCatalogs := map[string]bool{"fs": true, "sqlite": true}
	if !validCatalogs[strings.ToLower(c.Snapshots.Catalog)] {
		return fmt.Errorf("snapshots.catalog must be 'fs' or 'sqlite', got %s", c.Snapshots.Catalog)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
