package cmd

import (
	"path/filepath"

	"github.com/ftsengine/ftsengine/internal/config"
	"github.com/ftsengine/ftsengine/internal/snapshot"
	"github.com/ftsengine/ftsengine/internal/snapshot/fsblob"
	"github.com/ftsengine/ftsengine/internal/snapshot/sqlitecatalog"
)

// openSnapshotStore builds cfg's configured snapshot backend: "sqlite"
// pairs a sqlitecatalog.Store with fsblob for the document payloads,
// anything else (including the default "fs") uses fsblob alone for both.
func openSnapshotStore(cfg *config.Config) (snapshot.Store, error) {
	dir := cfg.Snapshots.Dir
	if dir == "" {
		dir = filepath.Join(dataDir, "snapshots")
	}
	blobs := fsblob.New(dir)

	if cfg.Snapshots.Catalog != "sqlite" {
		return blobs, nil
	}

	catalog, err := sqlitecatalog.New(filepath.Join(dir, "catalog.db"))
	if err != nil {
		return nil, err
	}
	return snapshot.NewCompositeStore(catalog, blobs), nil
}
