// Package rank implements the RankingPipeline: deterministic ordering and
// pagination of scored hits, per spec.md §4.8.
package rank

import "sort"

// MaxSize is the pagination cap on `size`, per spec.md §4.8.
const MaxSize = 10_000

// DefaultSize is the page size Rank applies when size is the Go zero value,
// so a caller that leaves SearchOptions unset gets a usable page rather than
// a silently empty one.
const DefaultSize = 10

// Hit is one scored candidate prior to ranking.
type Hit struct {
	DocID         uint32
	Score         float64
	InsertionOrder int
}

// Page is the paginated, ordered slice of hits plus the total before
// pagination was applied.
type Page struct {
	Hits  []Hit
	Total int
}

// Rank sorts hits by (-score, insertionOrder ascending) — higher score
// first, earlier insertion first on tie — and applies from/size pagination.
// size is capped at MaxSize; from is clamped to [0, len(hits)].
func Rank(hits []Hit, from, size int) Page {
	sorted := make([]Hit, len(hits))
	copy(sorted, hits)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].InsertionOrder < sorted[j].InsertionOrder
	})

	total := len(sorted)

	if size == 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if size < 0 {
		size = 0
	}
	if from < 0 {
		from = 0
	}
	if from > total {
		from = total
	}

	end := from + size
	if end > total {
		end = total
	}

	return Page{Hits: sorted[from:end], Total: total}
}
