// Package snapshot implements the SnapshotManager: point-in-time, versioned
// backups of an index's documents, with pluggable storage and
// retention-based pruning, per spec.md §4.11.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	fdoc "github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/ferrors"
)

// ErrNotFound builds the SnapshotNotFound engine error for id.
func ErrNotFound(id Id) error {
	return ferrors.SnapshotNotFound(string(id))
}

// Id identifies one snapshot, unique within an index.
type Id string

// Manifest is a snapshot's metadata record.
type Manifest struct {
	ID         Id
	IndexName  fdoc.IndexName
	CreatedAt  time.Time
	DocCount   int
	ShardCount int
	// Checksum is a SHA-256 digest over the snapshot's document payload,
	// verified on Restore so a corrupted or truncated blob is caught before
	// it reaches the target rather than silently replaying partial data.
	Checksum string
}

// Catalog stores and queries snapshot manifests.
type Catalog interface {
	PutManifest(m Manifest) error
	GetManifest(id Id) (Manifest, bool, error)
	ListManifests(index fdoc.IndexName) ([]Manifest, error)
	DeleteManifest(id Id) error
}

// DocBlobs stores and retrieves the actual document payload of a snapshot.
type DocBlobs interface {
	WriteDocs(id Id, docs []fdoc.Document) error
	ReadDocs(id Id) ([]fdoc.Document, error)
	DeleteDocs(id Id) error
}

// Store is the full storage backend a Manager needs: manifest catalog plus
// document blobs. fsblob.Store implements both from one filesystem tree;
// sqlitecatalog.Store implements only Catalog, for pairing with a separate
// DocBlobs implementation via NewCompositeStore.
type Store interface {
	Catalog
	DocBlobs
}

// compositeStore pairs an independent Catalog with an independent DocBlobs,
// so the SQLite-backed catalog can be combined with filesystem blob storage.
type compositeStore struct {
	Catalog
	DocBlobs
}

// NewCompositeStore combines a manifest catalog and a document blob store
// into one Store, per spec.md §5's pluggable BlobStore design.
func NewCompositeStore(catalog Catalog, blobs DocBlobs) Store {
	return &compositeStore{Catalog: catalog, DocBlobs: blobs}
}

// Manager creates, lists, restores, and prunes snapshots for one store.
type Manager struct {
	store     Store
	retention int
}

// NewManager creates a Manager backed by store, retaining at most
// `retention` snapshots per index (0 means unlimited).
func NewManager(store Store, retention int) *Manager {
	return &Manager{store: store, retention: retention}
}

// Quiescer is implemented by the component a snapshot must freeze for the
// duration of Create — the shard Manager's Quiesce method, per spec.md
// §4.11's "consistent, not instantaneous" point-in-time guarantee.
type Quiescer interface {
	Quiesce() func()
}

// Source supplies the documents a snapshot captures.
type Source interface {
	AllDocuments() []fdoc.Document
	ShardCount() int
}

// Create quiesces src (blocking new writes), copies every document, writes
// the snapshot, then releases the quiesce token, per spec.md §4.11.
func (m *Manager) Create(ctx context.Context, index fdoc.IndexName, src Source) (Manifest, error) {
	var unlock func()
	if q, ok := src.(Quiescer); ok {
		unlock = q.Quiesce()
		defer unlock()
	}

	docs := src.AllDocuments()

	checksum, err := checksumDocs(docs)
	if err != nil {
		return Manifest{}, err
	}

	id := newId(index, docs)
	manifest := Manifest{
		ID:         id,
		IndexName:  index,
		CreatedAt:  time.Now().UTC(),
		DocCount:   len(docs),
		ShardCount: src.ShardCount(),
		Checksum:   checksum,
	}

	if err := m.store.WriteDocs(id, docs); err != nil {
		return Manifest{}, err
	}
	if err := m.store.PutManifest(manifest); err != nil {
		return Manifest{}, err
	}

	if err := m.applyRetention(index); err != nil {
		return manifest, err
	}
	return manifest, nil
}

// List returns every snapshot manifest for index, newest first.
func (m *Manager) List(index fdoc.IndexName) ([]Manifest, error) {
	manifests, err := m.store.ListManifests(index)
	if err != nil {
		return nil, err
	}
	sort.Slice(manifests, func(i, j int) bool { return manifests[i].CreatedAt.After(manifests[j].CreatedAt) })
	return manifests, nil
}

// Target receives the restored documents — the shard Manager's Put method.
type Target interface {
	Put(d fdoc.Document) error
}

// Restore replays every document of snapshot id into target, after verifying
// the document blob's checksum against the value recorded on the manifest at
// Create time. A mismatch returns ferrors.SnapshotIntegrity and leaves
// target untouched. Callers wanting index-level atomicity should restore
// into a freshly constructed target and swap it in only after Restore
// returns without error, per spec.md §4.11 and the note in DESIGN.md.
func (m *Manager) Restore(ctx context.Context, id Id, target Target) error {
	manifest, ok, err := m.store.GetManifest(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound(id)
	}

	docs, err := m.store.ReadDocs(id)
	if err != nil {
		return err
	}

	sum, err := checksumDocs(docs)
	if err != nil {
		return err
	}
	if sum != manifest.Checksum {
		return ferrors.SnapshotIntegrity(string(id), nil)
	}

	for _, d := range docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := target.Put(d); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one snapshot's manifest and document blob.
func (m *Manager) Delete(id Id) error {
	if err := m.store.DeleteDocs(id); err != nil {
		return err
	}
	return m.store.DeleteManifest(id)
}

// applyRetention removes the oldest snapshots for index beyond the
// configured retention count.
func (m *Manager) applyRetention(index fdoc.IndexName) error {
	if m.retention <= 0 {
		return nil
	}
	manifests, err := m.List(index)
	if err != nil {
		return err
	}
	if len(manifests) <= m.retention {
		return nil
	}
	for _, stale := range manifests[m.retention:] {
		if err := m.Delete(stale.ID); err != nil {
			return err
		}
	}
	return nil
}

// checksumDocs computes a stable SHA-256 digest over docs, independent of
// slice order and of which DocBlobs implementation wrote them.
func checksumDocs(docs []fdoc.Document) (string, error) {
	sorted := make([]fdoc.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	data, err := json.Marshal(sorted)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func newId(index fdoc.IndexName, docs []fdoc.Document) Id {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%d", index, len(docs), time.Now().UnixNano())))
	return Id(hex.EncodeToString(sum[:])[:16])
}
