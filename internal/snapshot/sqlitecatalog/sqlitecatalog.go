// Package sqlitecatalog implements snapshot.Catalog on top of a SQLite
// database via the pure-Go modernc.org/sqlite driver, for deployments that
// want queryable snapshot metadata instead of scanning JSON files, per
// spec.md §5's pluggable BlobStore.
package sqlitecatalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	fdoc "github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/snapshot"
)

// Store is a snapshot.Catalog backed by one SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (creating if absent) a SQLite-backed catalog at path. Pass ""
// for an in-memory catalog, useful in tests.
func New(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot catalog: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY under WAL mode with
	// concurrent snapshot creation/listing.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		index_name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		doc_count INTEGER NOT NULL,
		shard_count INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutManifest inserts or replaces m's row.
func (s *Store) PutManifest(m snapshot.Manifest) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO snapshots
		(id, index_name, created_at, doc_count, shard_count) VALUES (?, ?, ?, ?, ?)`,
		string(m.ID), string(m.IndexName), m.CreatedAt.Format(time.RFC3339Nano), m.DocCount, m.ShardCount)
	return err
}

// GetManifest looks up one snapshot by id.
func (s *Store) GetManifest(id snapshot.Id) (snapshot.Manifest, bool, error) {
	row := s.db.QueryRow(`SELECT id, index_name, created_at, doc_count, shard_count
		FROM snapshots WHERE id = ?`, string(id))
	m, err := scanManifest(row)
	if err == sql.ErrNoRows {
		return snapshot.Manifest{}, false, nil
	}
	if err != nil {
		return snapshot.Manifest{}, false, err
	}
	return m, true, nil
}

// ListManifests returns every snapshot recorded for index.
func (s *Store) ListManifests(index fdoc.IndexName) ([]snapshot.Manifest, error) {
	rows, err := s.db.Query(`SELECT id, index_name, created_at, doc_count, shard_count
		FROM snapshots WHERE index_name = ? ORDER BY created_at DESC`, string(index))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var manifests []snapshot.Manifest
	for rows.Next() {
		m, err := scanManifestRow(rows)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, rows.Err()
}

// DeleteManifest removes id's row.
func (s *Store) DeleteManifest(id snapshot.Id) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, string(id))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManifest(row *sql.Row) (snapshot.Manifest, error) {
	return scan(row)
}

func scanManifestRow(rows *sql.Rows) (snapshot.Manifest, error) {
	return scan(rows)
}

func scan(row rowScanner) (snapshot.Manifest, error) {
	var id, indexName, createdAt string
	var docCount, shardCount int
	if err := row.Scan(&id, &indexName, &createdAt, &docCount, &shardCount); err != nil {
		return snapshot.Manifest{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return snapshot.Manifest{}, err
	}
	return snapshot.Manifest{
		ID:         snapshot.Id(id),
		IndexName:  fdoc.IndexName(indexName),
		CreatedAt:  ts,
		DocCount:   docCount,
		ShardCount: shardCount,
	}, nil
}

var _ snapshot.Catalog = (*Store)(nil)
