// Package fsblob implements snapshot.Store on the local filesystem: one
// JSON manifest file and one gob-encoded document blob per snapshot, guarded
// by a directory-level flock so multiple processes sharing a data directory
// never interleave writes, per spec.md §4.11/§5.
package fsblob

import (
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	fdoc "github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/snapshot"
)

func init() {
	gob.Register(map[string]any{})
}

// Store persists snapshot manifests and document blobs under dataDir,
// namespaced by index name.
type Store struct {
	dataDir string
	lock    *flock.Flock
}

// New creates a Store rooted at dataDir. The directory is created lazily on
// first write.
func New(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		lock:    flock.New(filepath.Join(dataDir, ".snapshot.lock")),
	}
}

func (s *Store) indexDir(index fdoc.IndexName) string {
	return filepath.Join(s.dataDir, string(index))
}

func (s *Store) manifestPath(index fdoc.IndexName, id snapshot.Id) string {
	return filepath.Join(s.indexDir(index), string(id)+".manifest.json")
}

func (s *Store) docsPath(index fdoc.IndexName, id snapshot.Id) string {
	return filepath.Join(s.indexDir(index), string(id)+".docs.gob")
}

func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer s.lock.Unlock()
	return fn()
}

// PutManifest writes m's manifest file, creating the index's directory if
// needed.
func (s *Store) PutManifest(m snapshot.Manifest) error {
	return s.withLock(func() error {
		dir := s.indexDir(m.IndexName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(s.manifestPath(m.IndexName, m.ID), data, 0o644)
	})
}

// GetManifest reads one snapshot's manifest, searching every index
// subdirectory since the id alone does not disclose the index.
func (s *Store) GetManifest(id snapshot.Id) (snapshot.Manifest, bool, error) {
	entries, err := os.ReadDir(s.dataDir)
	if os.IsNotExist(err) {
		return snapshot.Manifest{}, false, nil
	}
	if err != nil {
		return snapshot.Manifest{}, false, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := s.manifestPath(fdoc.IndexName(e.Name()), id)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return snapshot.Manifest{}, false, err
		}
		var m snapshot.Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return snapshot.Manifest{}, false, err
		}
		return m, true, nil
	}
	return snapshot.Manifest{}, false, nil
}

// ListManifests returns every manifest recorded under index.
func (s *Store) ListManifests(index fdoc.IndexName) ([]snapshot.Manifest, error) {
	dir := s.indexDir(index)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var manifests []snapshot.Manifest
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var m snapshot.Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// DeleteManifest removes id's manifest file from whichever index
// subdirectory holds it.
func (s *Store) DeleteManifest(id snapshot.Id) error {
	m, ok, err := s.GetManifest(id)
	if err != nil || !ok {
		return err
	}
	path := s.manifestPath(m.IndexName, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WriteDocs gob-encodes docs into one blob file for snapshot id.
func (s *Store) WriteDocs(id snapshot.Id, docs []fdoc.Document) error {
	return s.withLock(func() error {
		index := fdoc.IndexName("")
		if len(docs) > 0 {
			index = docs[0].Index
		}
		dir := s.indexDir(index)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.Create(s.docsPath(index, id))
		if err != nil {
			return err
		}
		defer f.Close()
		return gob.NewEncoder(f).Encode(docs)
	})
}

// ReadDocs decodes the document blob for snapshot id.
func (s *Store) ReadDocs(id snapshot.Id) ([]fdoc.Document, error) {
	m, ok, err := s.GetManifest(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, snapshot.ErrNotFound(id)
	}
	f, err := os.Open(s.docsPath(m.IndexName, id))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []fdoc.Document
	if err := gob.NewDecoder(f).Decode(&docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocs removes id's document blob, if present.
func (s *Store) DeleteDocs(id snapshot.Id) error {
	m, ok, err := s.GetManifest(id)
	if err != nil || !ok {
		return err
	}
	path := s.docsPath(m.IndexName, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var _ snapshot.Store = (*Store)(nil)
