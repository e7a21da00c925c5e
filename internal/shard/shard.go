// Package shard implements the ShardedIndexManager: per-shard ownership of
// an InvertedIndex, DocumentStore, and AggregationIndex, plus document
// placement, replication, and scatter-gather query merge, per spec.md
// §4.10.
package shard

import (
	"sync"

	"github.com/ftsengine/ftsengine/internal/analysis"
	"github.com/ftsengine/ftsengine/internal/docset"
	"github.com/ftsengine/ftsengine/internal/docstore"
	fdoc "github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/exec"
	"github.com/ftsengine/ftsengine/internal/facet"
	"github.com/ftsengine/ftsengine/internal/ferrors"
	"github.com/ftsengine/ftsengine/internal/index"
	"github.com/ftsengine/ftsengine/internal/mapping"
)

// Shard owns one partition's InvertedIndex, DocumentStore, and
// AggregationIndex, per spec.md §3: "a DocumentId lives in exactly one
// primary shard". A QueryExecutor borrows these for the duration of one
// query (spec.md §9's owner-with-indices pattern) through the Corpus
// adapter methods below.
type Shard struct {
	ID int

	mappings  *mapping.Mappings
	synonyms  *analysis.SynonymEngine
	stopWords []string

	index  *index.InvertedIndex
	docs   *docstore.DocumentStore
	facets *facet.AggregationIndex

	mu           sync.RWMutex
	nextInternal uint32
	toInternal   map[fdoc.DocumentId]uint32
	toExternal   map[uint32]fdoc.DocumentId

	maxDocs   int
	maxFields int
}

// Config controls per-shard resource caps, per spec.md §5.
type Config struct {
	MaxDocs   int
	MaxFields int
}

// New creates an empty Shard sharing mappings/synonyms/stopWords with its
// siblings (Mappings is a single index-wide registry, per spec.md §5).
func New(id int, mappings *mapping.Mappings, synonyms *analysis.SynonymEngine, stopWords []string, cfg Config) *Shard {
	return &Shard{
		ID:         id,
		mappings:   mappings,
		synonyms:   synonyms,
		stopWords:  stopWords,
		index:      index.New(),
		docs:       docstore.New(),
		facets:     facet.New(),
		toInternal: make(map[fdoc.DocumentId]uint32),
		toExternal: make(map[uint32]fdoc.DocumentId),
		maxDocs:    cfg.MaxDocs,
		maxFields:  cfg.MaxFields,
	}
}

// Put auto-maps and validates d's fields, analyzes every scalar field,
// indexes the resulting tokens, registers facet values, and stores d.
func (s *Shard) Put(d fdoc.Document) error {
	if s.maxFields > 0 && len(d.Fields) > s.maxFields {
		return ferrors.ResourceExhausted("document " + string(d.ID) + " exceeds max fields per document")
	}
	if err := s.mappings.AutoMap(d.Fields); err != nil {
		return err
	}
	if err := s.mappings.Validate(d.Fields); err != nil {
		return err
	}

	s.mu.Lock()
	internalID, existed := s.toInternal[d.ID]
	if !existed {
		if s.maxDocs > 0 && len(s.toInternal) >= s.maxDocs {
			s.mu.Unlock()
			return ferrors.ResourceExhausted("shard " + itoa(s.ID) + " exceeds max documents")
		}
		internalID = s.nextInternal
		s.nextInternal++
		s.toInternal[d.ID] = internalID
		s.toExternal[internalID] = d.ID
	}
	s.mu.Unlock()

	if existed {
		s.index.RemoveDocument(internalID)
		s.facets.Remove(internalID)
	}

	length := s.indexFields("", d.Fields, internalID)
	s.addFacets("", d.Fields, internalID)
	s.docs.Put(d, length)
	return nil
}

func (s *Shard) indexFields(prefix string, fields map[string]any, internalID uint32) uint32 {
	var total uint32
	for name, value := range fields {
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		if nested, ok := value.(map[string]any); ok {
			total += s.indexFields(full, nested, internalID)
			continue
		}
		str, ok := value.(string)
		if !ok {
			continue
		}
		analyzer := s.mappings.AnalyzerFor(full, s.stopWords)
		for _, tok := range analyzer.Analyze(str) {
			s.index.AddToken(full, tok.Term, internalID, tok.Position)
			total++
		}
	}
	return total
}

func (s *Shard) addFacets(prefix string, fields map[string]any, internalID uint32) {
	for name, value := range fields {
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		if nested, ok := value.(map[string]any); ok {
			s.addFacets(full, nested, internalID)
			continue
		}
		def, ok := s.mappings.TypeOf(full)
		if !ok || !mapping.IsFacetable(def.Type) {
			continue
		}
		s.facets.Add(full, internalID, value)
	}
}

// Get returns the document with id, if present on this shard.
func (s *Shard) Get(id fdoc.DocumentId) (fdoc.Document, bool) {
	return s.docs.Get(id)
}

// Delete removes id from this shard's index, facets, and document store.
func (s *Shard) Delete(id fdoc.DocumentId) bool {
	s.mu.Lock()
	internalID, ok := s.toInternal[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.toInternal, id)
	delete(s.toExternal, internalID)
	s.mu.Unlock()

	s.index.RemoveDocument(internalID)
	s.facets.Remove(internalID)
	return s.docs.Delete(id)
}

// DocCount returns the number of documents this shard holds.
func (s *Shard) DocCount() uint64 { return s.docs.Count() }

// TokenCount returns the number of distinct (field, term) postings indexed
// on this shard, used for the "tokens" stat.
func (s *Shard) TokenCount() int { return s.index.TermCount() }

// Rough per-record size estimates used by MemoryUsage. Not exact accounting
// of Go's actual heap layout — a stats-display approximation only.
const (
	estBytesPerDoc   = 512
	estBytesPerToken = 96
)

// MemoryUsage estimates the bytes this shard's index and document store
// occupy, for stats reporting. It is a coarse approximation, not an
// instrumented heap measurement.
func (s *Shard) MemoryUsage() uint64 {
	return s.docs.Count()*estBytesPerDoc + uint64(s.index.TermCount())*estBytesPerToken
}

// Facets exposes the shard's AggregationIndex for the facets/aggregations
// response path.
func (s *Shard) Facets() *facet.AggregationIndex { return s.facets }

// Mappings exposes the shared field-type registry.
func (s *Shard) Mappings() *mapping.Mappings { return s.mappings }

// Corpus returns the exec.Corpus view of this shard, borrowed for the
// duration of one query per spec.md §9's owner-with-indices pattern.
func (s *Shard) Corpus() exec.Corpus { return &corpusAdapter{shard: s} }

// Collection returns the score.Collection view of this shard.
func (s *Shard) Collection() *corpusAdapter { return &corpusAdapter{shard: s} }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// corpusAdapter implements exec.Corpus and score.Collection by borrowing a
// Shard's index, docstore, mappings, and synonyms for one query.
type corpusAdapter struct {
	shard *Shard
}

func (c *corpusAdapter) Postings(field, term string) *index.Posting {
	return c.shard.index.GetPostings(field, term)
}

func (c *corpusAdapter) TermsForField(field string) []string {
	return c.shard.index.TermsForField(field)
}

func (c *corpusAdapter) Mappings() *mapping.Mappings { return c.shard.mappings }

func (c *corpusAdapter) Synonyms() *analysis.SynonymEngine { return c.shard.synonyms }

func (c *corpusAdapter) StopWords() []string { return c.shard.stopWords }

func (c *corpusAdapter) DocCount() uint64 { return c.shard.docs.Count() }

func (c *corpusAdapter) SumLengths() uint64 { return c.shard.docs.SumLengths() }

func (c *corpusAdapter) AvgDocLength() float64 { return c.shard.docs.AvgLength() }

func (c *corpusAdapter) DocFrequency(field, term string) int {
	return c.shard.index.DocFrequency(field, term)
}

func (c *corpusAdapter) DocLength(internalID uint32) uint32 {
	c.shard.mu.RLock()
	id, ok := c.shard.toExternal[internalID]
	c.shard.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.shard.docs.Length(id)
}

func (c *corpusAdapter) InsertionIndex(internalID uint32) int {
	c.shard.mu.RLock()
	id, ok := c.shard.toExternal[internalID]
	c.shard.mu.RUnlock()
	if !ok {
		return 0
	}
	idx, _ := c.shard.docs.InsertionIndex(id)
	return idx
}

func (c *corpusAdapter) AllDocIDs() *docset.DocIdSet {
	c.shard.mu.RLock()
	defer c.shard.mu.RUnlock()
	ids := make([]uint32, 0, len(c.shard.toInternal))
	for _, internalID := range c.shard.toInternal {
		ids = append(ids, internalID)
	}
	return docset.FromSlice(ids)
}

func (c *corpusAdapter) AllDocs() []exec.CorpusDoc {
	docs := c.shard.docs.All()
	result := make([]exec.CorpusDoc, 0, len(docs))
	c.shard.mu.RLock()
	defer c.shard.mu.RUnlock()
	for _, d := range docs {
		internalID, ok := c.shard.toInternal[d.ID]
		if !ok {
			continue
		}
		result = append(result, exec.CorpusDoc{InternalID: internalID, Document: d})
	}
	return result
}
