package shard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fdoc "github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/mapping"
	"github.com/ftsengine/ftsengine/internal/query"
)

func newTestManager(numShards, replication int) *Manager {
	return NewManager(ManagerConfig{
		NumShards:         numShards,
		ReplicationFactor: replication,
		Strategy:          StrategyHash,
	}, mapping.New(), nil, nil)
}

func TestManagerPutAndGetRoundTrips(t *testing.T) {
	m := newTestManager(4, 1)
	require.NoError(t, m.Put(fdoc.Document{ID: "doc-1", Fields: map[string]any{"title": "hello world"}}))

	d, ok := m.Get("doc-1")
	require.True(t, ok)
	assert.Equal(t, "hello world", d.Fields["title"])
}

func TestManagerDistributesAcrossShards(t *testing.T) {
	m := newTestManager(4, 1)
	for i := 0; i < 20; i++ {
		id := fdoc.DocumentId("doc-" + string(rune('a'+i)))
		require.NoError(t, m.Put(fdoc.Document{ID: id, Fields: map[string]any{"title": "hello"}}))
	}

	nonEmpty := 0
	for _, s := range m.shards {
		if s.DocCount() > 0 {
			nonEmpty++
		}
	}
	assert.Greater(t, nonEmpty, 1)
	assert.Equal(t, uint64(20), m.DocCount())
}

func TestManagerReplicationWritesToRShards(t *testing.T) {
	m := newTestManager(4, 2)
	require.NoError(t, m.Put(fdoc.Document{ID: "doc-1", Fields: map[string]any{"title": "hello"}}))

	holders := 0
	for _, s := range m.shards {
		if _, ok := s.Get("doc-1"); ok {
			holders++
		}
	}
	assert.Equal(t, 2, holders)
}

func TestManagerDeleteRemovesFromAllReplicas(t *testing.T) {
	m := newTestManager(4, 2)
	require.NoError(t, m.Put(fdoc.Document{ID: "doc-1", Fields: map[string]any{"title": "hello"}}))
	assert.True(t, m.Delete("doc-1"))

	_, ok := m.Get("doc-1")
	assert.False(t, ok)
}

func TestManagerSearchMergesAcrossShards(t *testing.T) {
	m := newTestManager(4, 1)
	for i := 0; i < 10; i++ {
		id := fdoc.DocumentId("doc-" + string(rune('a'+i)))
		require.NoError(t, m.Put(fdoc.Document{ID: id, Fields: map[string]any{"title": "hello world"}}))
	}

	resp, err := m.Search(context.Background(), query.MatchAll{Boost: 1.0}, SearchOptions{From: 0, Size: 100})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Total)
	assert.Len(t, resp.Hits, 10)
}

func TestManagerSearchPaginates(t *testing.T) {
	m := newTestManager(4, 1)
	for i := 0; i < 10; i++ {
		id := fdoc.DocumentId("doc-" + string(rune('a'+i)))
		require.NoError(t, m.Put(fdoc.Document{ID: id, Fields: map[string]any{"title": "hello"}}))
	}

	resp, err := m.Search(context.Background(), query.MatchAll{Boost: 1.0}, SearchOptions{From: 0, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Total)
	assert.Len(t, resp.Hits, 3)
}

func TestManagerSearchDeduplicatesReplicatedHits(t *testing.T) {
	m := newTestManager(4, 3)
	require.NoError(t, m.Put(fdoc.Document{ID: "doc-1", Fields: map[string]any{"title": "hello"}}))

	resp, err := m.Search(context.Background(), query.MatchAll{Boost: 1.0}, SearchOptions{From: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
}

func TestManagerFacetsSumsAcrossShards(t *testing.T) {
	m := newTestManager(4, 1)
	for i := 0; i < 6; i++ {
		id := fdoc.DocumentId("doc-" + string(rune('a'+i)))
		status := "alive"
		if i%2 == 0 {
			status = "dead"
		}
		require.NoError(t, m.Put(fdoc.Document{ID: id, Fields: map[string]any{"status": status}}))
	}

	buckets, err := m.Facets(context.Background(), query.MatchAll{Boost: 1.0}, FacetOptions{Field: "status", Size: 10})
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, b := range buckets {
		counts[b.Key] = b.DocCount
	}
	assert.Equal(t, 3, counts["alive"])
	assert.Equal(t, 3, counts["dead"])
}

func TestManagerRebalanceOnceEvensOutShards(t *testing.T) {
	m := newTestManager(2, 1)
	m.cfg.RebalanceThreshold = 0.1
	// Force every write onto shard 0 to create an imbalance.
	m.placer = newPlacer(StrategyCustom, func(fdoc.DocumentId, int) int { return 0 })

	for i := 0; i < 10; i++ {
		id := fdoc.DocumentId("doc-" + string(rune('a'+i)))
		require.NoError(t, m.Put(fdoc.Document{ID: id, Fields: map[string]any{"title": "hello"}}))
	}
	require.Equal(t, uint64(10), m.shards[0].DocCount())
	require.Equal(t, uint64(0), m.shards[1].DocCount())

	require.NoError(t, m.RebalanceOnce(context.Background(), nil))

	assert.Greater(t, m.shards[1].DocCount(), uint64(0))
	assert.Equal(t, uint64(10), m.DocCount())
}
