package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 1.2, cfg.Scoring.K1)
	assert.Equal(t, 0.75, cfg.Scoring.B)
	assert.Equal(t, 4, cfg.Shards.Count)
	assert.Equal(t, 1, cfg.Shards.ReplicationFactor)
	assert.Equal(t, "hash", cfg.Shards.Placement)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromProjectFile(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("scoring:\n  k1: 1.5\nshards:\n  count: 8\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ftsengine.yaml"), contents, 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Scoring.K1)
	assert.Equal(t, 8, cfg.Shards.Count)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.75, cfg.Scoring.B)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FTSENGINE_SHARD_COUNT", "16")
	t.Setenv("FTSENGINE_BM25_K1", "2.0")

	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Shards.Count)
	assert.Equal(t, 2.0, cfg.Scoring.K1)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := NewConfig()
	cfg.Shards.Count = 0
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.Scoring.B = 1.5
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.Shards.Placement = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := NewConfig()
	cfg.Shards.Count = 6

	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 6, loaded.Shards.Count)
}
