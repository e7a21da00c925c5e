package shard

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ftsengine/ftsengine/internal/analysis"
	fdoc "github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/exec"
	"github.com/ftsengine/ftsengine/internal/facet"
	"github.com/ftsengine/ftsengine/internal/ferrors"
	"github.com/ftsengine/ftsengine/internal/index"
	"github.com/ftsengine/ftsengine/internal/mapping"
	"github.com/ftsengine/ftsengine/internal/query"
	"github.com/ftsengine/ftsengine/internal/rank"
	"github.com/ftsengine/ftsengine/internal/score"
)

// ManagerConfig configures a Manager, per spec.md §4.10/§5.
type ManagerConfig struct {
	NumShards         int
	ReplicationFactor int
	Strategy          Strategy
	CustomPlacement   CustomPlacementFunc
	ShardConfig       Config
	K1, B             float64
	// RebalanceThreshold is the fractional imbalance ((max-mean)/mean)
	// above which RebalanceOnce moves documents.
	RebalanceThreshold float64
}

// Manager owns every shard of one index and fans writes and queries out
// across them, per spec.md §4.10.
type Manager struct {
	cfg     ManagerConfig
	shards  []*Shard
	placer  *placer
	scorer  *score.Scorer
	synonym *analysis.SynonymEngine

	mu sync.RWMutex
}

// NewManager creates a Manager with NumShards empty shards sharing one
// Mappings registry and one SynonymEngine.
func NewManager(cfg ManagerConfig, mappings *mapping.Mappings, synonyms *analysis.SynonymEngine, stopWords []string) *Manager {
	if cfg.NumShards < 1 {
		cfg.NumShards = 1
	}
	if cfg.ReplicationFactor < 1 {
		cfg.ReplicationFactor = 1
	}
	if cfg.RebalanceThreshold == 0 {
		cfg.RebalanceThreshold = 0.3
	}

	shards := make([]*Shard, cfg.NumShards)
	for i := range shards {
		shards[i] = New(i, mappings, synonyms, stopWords, cfg.ShardConfig)
	}

	return &Manager{
		cfg:     cfg,
		shards:  shards,
		placer:  newPlacer(cfg.Strategy, cfg.CustomPlacement),
		scorer:  score.New(cfg.K1, cfg.B),
		synonym: synonyms,
	}
}

// owners returns the primary-then-replica shard indices for id.
func (m *Manager) owners(id fdoc.DocumentId) []int {
	primary := m.placer.primary(id, len(m.shards))
	return replicaSet(primary, m.cfg.ReplicationFactor, len(m.shards))
}

// Put writes d to its primary shard and every replica, per spec.md §4.10.
func (m *Manager) Put(d fdoc.Document) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, owner := range m.owners(d.ID) {
		if err := m.shards[owner].Put(d); err != nil {
			return err
		}
	}
	return nil
}

// Get reads id from its primary shard, falling back to replicas if the
// primary does not hold it (e.g. mid-rebalance).
func (m *Manager) Get(id fdoc.DocumentId) (fdoc.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, owner := range m.owners(id) {
		if d, ok := m.shards[owner].Get(id); ok {
			return d, true
		}
	}
	return fdoc.Document{}, false
}

// Delete removes id from its primary shard and every replica.
func (m *Manager) Delete(id fdoc.DocumentId) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	deleted := false
	for _, owner := range m.owners(id) {
		if m.shards[owner].Delete(id) {
			deleted = true
		}
	}
	return deleted
}

// Quiesce blocks every new Put/Get/Delete/Search/RebalanceOnce call until
// the returned function is invoked, giving a snapshot a consistent,
// point-in-time view of every shard, per spec.md §4.11.
func (m *Manager) Quiesce() func() {
	m.mu.Lock()
	return m.mu.Unlock
}

// AllDocuments returns every document across every shard, deduplicated by
// id (a replicated document appears on more than one shard). Callers that
// need a consistent snapshot should call this only while holding the token
// returned by Quiesce.
func (m *Manager) AllDocuments() []fdoc.Document {
	seen := make(map[fdoc.DocumentId]struct{})
	var docs []fdoc.Document
	for _, s := range m.shards {
		for _, d := range s.docs.All() {
			if _, ok := seen[d.ID]; ok {
				continue
			}
			seen[d.ID] = struct{}{}
			docs = append(docs, d)
		}
	}
	return docs
}

// ShardCount returns the number of shards this Manager owns.
func (m *Manager) ShardCount() int { return len(m.shards) }

// ShardDocCounts reports each shard's DocCount in shard-index order, for
// status/stats reporting.
func (m *Manager) ShardDocCounts() []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make([]uint64, len(m.shards))
	for i, s := range m.shards {
		counts[i] = s.DocCount()
	}
	return counts
}

// TokenCount sums the distinct (field, term) postings across every shard,
// for the "tokens" stat. A term indexed on more than one shard is counted
// once per shard, matching how each shard's own index actually stores it.
func (m *Manager) TokenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int
	for _, s := range m.shards {
		total += s.TokenCount()
	}
	return total
}

// MemoryUsage sums each shard's estimated memory footprint, for the
// "memoryUsage" stat.
func (m *Manager) MemoryUsage() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total uint64
	for _, s := range m.shards {
		total += s.MemoryUsage()
	}
	return total
}

// DocCount sums the document count across every shard. With
// ReplicationFactor > 1 this double-counts replicated documents; callers
// comparing against a single-shard baseline should use ReplicationFactor 1.
func (m *Manager) DocCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total uint64
	for _, s := range m.shards {
		total += s.DocCount()
	}
	return total
}

// SearchOptions controls one Search call.
type SearchOptions struct {
	From int
	Size int
}

// SearchResponse is the merged, paginated result of a scatter-gather
// search, per spec.md §4.10: "merges hits, deduplicating by (indexName,
// docId) keeping the highest score".
type SearchResponse struct {
	Hits         []ScoredDoc
	Total        int
	FailedShards []int
}

// ScoredDoc is one ranked hit, identified by its owning shard and
// document id so callers can fetch the full document.
type ScoredDoc struct {
	ShardID int
	DocID   fdoc.DocumentId
	Score   float64
}

type shardHit struct {
	shardID        int
	internalID     uint32
	docID          fdoc.DocumentId
	score          float64
	insertionOrder int
}

// Search scatters node to every shard concurrently via errgroup, then
// merges, deduplicates, re-scores against global collection statistics,
// and paginates the result, per spec.md §4.10.
func (m *Manager) Search(ctx context.Context, node query.Node, opts SearchOptions) (SearchResponse, error) {
	m.mu.RLock()
	shards := make([]*Shard, len(m.shards))
	copy(shards, m.shards)
	m.mu.RUnlock()

	type shardOutcome struct {
		shardID int
		result  *exec.Result
		failed  bool
	}
	outcomes := make([]shardOutcome, len(shards))

	group, gctx := errgroup.WithContext(ctx)
	for i, s := range shards {
		i, s := i, s
		group.Go(func() error {
			executor := exec.New(s.Corpus())
			result, err := executor.Execute(gctx, node)
			if err != nil {
				if ferrors.GetCode(err) == ferrors.ErrCodeQueryCancelled {
					return err
				}
				outcomes[i] = shardOutcome{shardID: s.ID, failed: true}
				return nil
			}
			outcomes[i] = shardOutcome{shardID: s.ID, result: result}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return SearchResponse{}, err
	}

	var globalDocCount uint64
	var globalSumLengths uint64
	for _, s := range shards {
		globalDocCount += s.DocCount()
		globalSumLengths += s.Collection().SumLengths()
	}
	globalCollection := &mergedCollection{
		docCount:   globalDocCount,
		sumLengths: globalSumLengths,
		shards:     shards,
	}

	var failedShards []int
	hitsByKey := make(map[string]shardHit)
	for _, outcome := range outcomes {
		if outcome.failed {
			failedShards = append(failedShards, outcome.shardID)
			continue
		}
		if outcome.result == nil {
			continue
		}
		s := shards[outcome.shardID]
		corpus := s.Collection()
		outcome.result.Docs.Each(func(internalID uint32) {
			docScore := m.scorer.Score(globalCollection.forShard(s), internalID, outcome.result.ScoringTerms, outcome.result.ConstantBoost, s.indexPostings)
			extID, ok := s.externalID(internalID)
			if !ok {
				return
			}
			key := string(extID)
			insertionOrder := corpus.InsertionIndex(internalID)
			if existing, ok := hitsByKey[key]; !ok || docScore > existing.score {
				hitsByKey[key] = shardHit{
					shardID:        outcome.shardID,
					internalID:     internalID,
					docID:          extID,
					score:          docScore,
					insertionOrder: insertionOrder,
				}
			}
		})
	}

	hits := make([]rank.Hit, 0, len(hitsByKey))
	byHitID := make(map[uint32]shardHit, len(hitsByKey))
	var nextHitID uint32
	for _, h := range hitsByKey {
		hits = append(hits, rank.Hit{DocID: nextHitID, Score: h.score, InsertionOrder: h.insertionOrder})
		byHitID[nextHitID] = h
		nextHitID++
	}

	page := rank.Rank(hits, opts.From, opts.Size)

	scored := make([]ScoredDoc, 0, len(page.Hits))
	for _, h := range page.Hits {
		sh := byHitID[h.DocID]
		scored = append(scored, ScoredDoc{ShardID: sh.shardID, DocID: sh.docID, Score: sh.score})
	}

	return SearchResponse{Hits: scored, Total: page.Total, FailedShards: failedShards}, nil
}

// FacetOptions selects one field's aggregation over a hit set.
type FacetOptions struct {
	Field       string
	Size        int
	MinDocCount int
}

// Facets runs the terms aggregation for field across every shard's
// AggregationIndex, intersected with each shard's own view of node's
// matches, and sums bucket counts by key.
func (m *Manager) Facets(ctx context.Context, node query.Node, opts FacetOptions) ([]facet.Bucket, error) {
	m.mu.RLock()
	shards := make([]*Shard, len(m.shards))
	copy(shards, m.shards)
	m.mu.RUnlock()

	if err := facet.ValidateFacetable(shards[0].Mappings(), opts.Field); err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	group, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, s := range shards {
		s := s
		group.Go(func() error {
			executor := exec.New(s.Corpus())
			result, err := executor.Execute(gctx, node)
			if err != nil {
				return err
			}
			buckets := s.Facets().Terms(opts.Field, result.Docs, opts.Size, 0)
			mu.Lock()
			for _, b := range buckets {
				totals[b.Key] += b.DocCount
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	buckets := make([]facet.Bucket, 0, len(totals))
	for key, count := range totals {
		if count < opts.MinDocCount {
			continue
		}
		buckets = append(buckets, facet.Bucket{Key: key, DocCount: count})
	}
	return buckets, nil
}

// mergedCollection wraps the global N/avg|d| computed across every shard
// while still delegating per-doc length and per-term document frequency to
// the owning shard, per spec.md §4.10: "re-normalizes BM25 contributions
// using the global N and avg|d| derived from merged stats".
type mergedCollection struct {
	docCount   uint64
	sumLengths uint64
	shards     []*Shard
}

func (g *mergedCollection) avgLength() float64 {
	if g.docCount == 0 {
		return 0
	}
	return float64(g.sumLengths) / float64(g.docCount)
}

func (g *mergedCollection) forShard(s *Shard) score.Collection {
	return &shardScopedCollection{global: g, shard: s}
}

type shardScopedCollection struct {
	global *mergedCollection
	shard  *Shard
}

func (c *shardScopedCollection) DocCount() uint64       { return c.global.docCount }
func (c *shardScopedCollection) AvgDocLength() float64  { return c.global.avgLength() }
func (c *shardScopedCollection) DocLength(id uint32) uint32 {
	return c.shard.Collection().DocLength(id)
}
func (c *shardScopedCollection) DocFrequency(field, term string) int {
	var total int
	for _, s := range c.global.shards {
		total += s.Collection().DocFrequency(field, term)
	}
	return total
}

func (s *Shard) indexPostings(field, term string) *index.Posting {
	return s.index.GetPostings(field, term)
}

func (s *Shard) externalID(internalID uint32) (fdoc.DocumentId, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.toExternal[internalID]
	return id, ok
}
