package sqlitecatalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftsengine/ftsengine/internal/snapshot"
)

func TestPutAndGetManifestRoundTrips(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	defer s.Close()

	m := snapshot.Manifest{
		ID:         "snap1",
		IndexName:  "movies",
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
		DocCount:   5,
		ShardCount: 3,
	}
	require.NoError(t, s.PutManifest(m))

	got, ok, err := s.GetManifest("snap1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m.IndexName, got.IndexName)
	assert.Equal(t, m.DocCount, got.DocCount)
	assert.Equal(t, m.ShardCount, got.ShardCount)
	assert.True(t, m.CreatedAt.Equal(got.CreatedAt))
}

func TestGetManifestMissingReturnsNotOk(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.GetManifest("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutManifestReplacesExisting(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	defer s.Close()

	m := snapshot.Manifest{ID: "snap1", IndexName: "movies", CreatedAt: time.Now(), DocCount: 1}
	require.NoError(t, s.PutManifest(m))
	m.DocCount = 99
	require.NoError(t, s.PutManifest(m))

	got, ok, err := s.GetManifest("snap1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 99, got.DocCount)
}

func TestListManifestsScopedAndOrderedNewestFirst(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	defer s.Close()

	base := time.Now().UTC()
	require.NoError(t, s.PutManifest(snapshot.Manifest{ID: "old", IndexName: "movies", CreatedAt: base.Add(-time.Hour)}))
	require.NoError(t, s.PutManifest(snapshot.Manifest{ID: "new", IndexName: "movies", CreatedAt: base}))
	require.NoError(t, s.PutManifest(snapshot.Manifest{ID: "other", IndexName: "books", CreatedAt: base}))

	list, err := s.ListManifests("movies")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, snapshot.Id("new"), list[0].ID)
	assert.Equal(t, snapshot.Id("old"), list[1].ID)
}

func TestDeleteManifestRemovesRow(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutManifest(snapshot.Manifest{ID: "snap1", IndexName: "movies", CreatedAt: time.Now()}))
	require.NoError(t, s.DeleteManifest("snap1"))

	_, ok, err := s.GetManifest("snap1")
	require.NoError(t, err)
	assert.False(t, ok)
}
