package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankOrdersByScoreDescending(t *testing.T) {
	hits := []Hit{
		{DocID: 1, Score: 0.5, InsertionOrder: 0},
		{DocID: 2, Score: 2.0, InsertionOrder: 1},
		{DocID: 3, Score: 1.0, InsertionOrder: 2},
	}
	page := Rank(hits, 0, 10)
	assert.Equal(t, []uint32{2, 3, 1}, docIDs(page.Hits))
	assert.Equal(t, 3, page.Total)
}

func TestRankTieBreaksByInsertionOrderAscending(t *testing.T) {
	hits := []Hit{
		{DocID: 1, Score: 1.0, InsertionOrder: 5},
		{DocID: 2, Score: 1.0, InsertionOrder: 1},
	}
	page := Rank(hits, 0, 10)
	assert.Equal(t, []uint32{2, 1}, docIDs(page.Hits))
}

func TestRankPagination(t *testing.T) {
	hits := make([]Hit, 0, 5)
	for i := 0; i < 5; i++ {
		hits = append(hits, Hit{DocID: uint32(i), Score: float64(5 - i), InsertionOrder: i})
	}
	page := Rank(hits, 2, 2)
	assert.Equal(t, []uint32{2, 3}, docIDs(page.Hits))
	assert.Equal(t, 5, page.Total)
}

func TestRankSizeCappedAtMax(t *testing.T) {
	hits := []Hit{{DocID: 1, Score: 1, InsertionOrder: 0}}
	page := Rank(hits, 0, MaxSize+500)
	assert.Len(t, page.Hits, 1)
}

func TestRankFromBeyondTotalReturnsEmpty(t *testing.T) {
	hits := []Hit{{DocID: 1, Score: 1, InsertionOrder: 0}}
	page := Rank(hits, 100, 10)
	assert.Empty(t, page.Hits)
	assert.Equal(t, 1, page.Total)
}

func docIDs(hits []Hit) []uint32 {
	ids := make([]uint32, len(hits))
	for i, h := range hits {
		ids[i] = h.DocID
	}
	return ids
}
