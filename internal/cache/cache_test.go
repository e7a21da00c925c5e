package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fdoc "github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/query"
)

func TestGetOrComputeCachesResult(t *testing.T) {
	c := New(10, time.Minute)
	var calls int32

	compute := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "result", nil
	}

	key := Key("movies", query.MatchAll{Boost: 1.0}, nil)
	v1, err := c.GetOrCompute(context.Background(), "movies", key, compute)
	require.NoError(t, err)
	v2, err := c.GetOrCompute(context.Background(), "movies", key, compute)
	require.NoError(t, err)

	assert.Equal(t, "result", v1)
	assert.Equal(t, "result", v2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestKeyDiffersForDifferentQueries(t *testing.T) {
	k1 := Key("movies", query.Term{Field: "status", Value: "alive"}, nil)
	k2 := Key("movies", query.Term{Field: "status", Value: "dead"}, nil)
	assert.NotEqual(t, k1, k2)
}

func TestKeyDiffersForDifferentIndices(t *testing.T) {
	node := query.MatchAll{Boost: 1.0}
	k1 := Key("movies", node, nil)
	k2 := Key("books", node, nil)
	assert.NotEqual(t, k1, k2)
}

func TestInvalidateDropsEntriesForIndex(t *testing.T) {
	c := New(10, time.Minute)
	var calls int32
	compute := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "result", nil
	}

	key := Key("movies", query.MatchAll{Boost: 1.0}, nil)
	_, err := c.GetOrCompute(context.Background(), "movies", key, compute)
	require.NoError(t, err)

	c.Invalidate(fdoc.IndexName("movies"))

	_, err = c.GetOrCompute(context.Background(), "movies", key, compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestInvalidateLeavesOtherIndicesCached(t *testing.T) {
	c := New(10, time.Minute)
	var calls int32
	compute := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "result", nil
	}

	moviesKey := Key("movies", query.MatchAll{Boost: 1.0}, nil)
	booksKey := Key("books", query.MatchAll{Boost: 1.0}, nil)

	_, err := c.GetOrCompute(context.Background(), "movies", moviesKey, compute)
	require.NoError(t, err)
	_, err = c.GetOrCompute(context.Background(), "books", booksKey, compute)
	require.NoError(t, err)

	c.Invalidate(fdoc.IndexName("movies"))

	_, err = c.GetOrCompute(context.Background(), "books", booksKey, compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrComputePropagatesError(t *testing.T) {
	c := New(10, time.Minute)
	boom := assert.AnError
	compute := func(context.Context) (any, error) { return nil, boom }

	key := Key("movies", query.MatchAll{Boost: 1.0}, nil)
	_, err := c.GetOrCompute(context.Background(), "movies", key, compute)
	assert.ErrorIs(t, err, boom)
}
