// Package cmd provides the CLI commands for ftsctl.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ftsengine/ftsengine/internal/config"
	"github.com/ftsengine/ftsengine/internal/logging"
)

var (
	dataDir       string
	debugMode     bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for ftsctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ftsctl",
		Short: "Operate a local full-text search engine index",
		Long: `ftsctl is a thin command-line host over the ftsengine library:
create indices, ingest and query documents, inspect facets and
per-shard load, and take point-in-time snapshots.

Each invocation is a short-lived process: state is recovered from the
most recent snapshot under --data-dir on start, and mutating commands
write a fresh snapshot before exiting.`,
		PersistentPreRunE:  setupLogging,
		PersistentPostRunE: teardownLogging,
	}

	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Directory for snapshots and config")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newCreateIndexCmd())
	cmd.AddCommand(newListIndexesCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFacetsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newSnapshotCmd())

	return cmd
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ftsengine")
	}
	return filepath.Join(home, ".ftsengine")
}

func setupLogging(*cobra.Command, []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func teardownLogging(*cobra.Command, []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig reads .ftsengine.yaml from --data-dir if present, then pins
// the snapshot directory under --data-dir regardless of what the library's
// own default would be: ftsctl's whole notion of "where is my data" is the
// --data-dir flag.
func loadConfig() (*config.Config, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	cfg.Snapshots.Dir = filepath.Join(dataDir, "snapshots")
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
