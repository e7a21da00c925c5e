package cmd

import (
	"context"
	"errors"

	"github.com/ftsengine/ftsengine"
	"github.com/ftsengine/ftsengine/internal/ferrors"
)

// openEngineForIndex builds an Engine wired to the configured snapshot
// store and, if index already has a snapshot on disk, restores its most
// recent one. Every ftsctl invocation is a fresh process, so this is how
// state survives across separate command runs: the engine itself only
// ever lives in memory.
func openEngineForIndex(ctx context.Context, index ftsengine.IndexName) (*ftsengine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := openSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}

	eng := ftsengine.New(cfg).WithSnapshotStore(store)

	if err := eng.CreateIndex(index); err != nil {
		var ee *ferrors.EngineError
		if !errors.As(err, &ee) || ee.Code != ferrors.ErrCodeIndexAlreadyExists {
			return nil, err
		}
	}

	manifests, err := eng.Snapshots().List(index)
	if err != nil {
		return nil, err
	}
	if len(manifests) > 0 {
		if err := eng.Snapshots().Restore(ctx, index, manifests[0].ID); err != nil {
			return nil, err
		}
	}

	return eng, nil
}

// persist takes a fresh snapshot of index so the mutation just applied
// survives past this process exiting.
func persist(ctx context.Context, eng *ftsengine.Engine, index ftsengine.IndexName) error {
	_, err := eng.Snapshots().Create(ctx, index)
	return err
}
