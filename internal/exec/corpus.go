// Package exec implements the QueryExecutor: evaluating a QueryTree into a
// candidate DocIdSet plus the scoring terms that contributed, per spec.md
// §4.6. It is the owner-with-indices pattern of spec.md §9 — the executor
// borrows its shard's InvertedIndex and DocumentStore for one query rather
// than owning or caching them.
package exec

import (
	"github.com/ftsengine/ftsengine/internal/analysis"
	"github.com/ftsengine/ftsengine/internal/doc"
	"github.com/ftsengine/ftsengine/internal/docset"
	"github.com/ftsengine/ftsengine/internal/index"
	"github.com/ftsengine/ftsengine/internal/mapping"
)

// CorpusDoc pairs a shard-internal uint32 doc id with its document, for the
// scan-based leaves (Range, GeoDistance) that must consult field values.
type CorpusDoc struct {
	InternalID uint32
	Document   doc.Document
}

// Corpus is everything the executor borrows from the owning shard for the
// duration of one query. It never mutates what it borrows.
type Corpus interface {
	Postings(field, term string) *index.Posting
	TermsForField(field string) []string
	Mappings() *mapping.Mappings
	Synonyms() *analysis.SynonymEngine
	StopWords() []string

	AllDocs() []CorpusDoc
	// AllDocIDs returns a fresh DocIdSet (not an alias into shard state) —
	// the executor mutates whatever it receives in place.
	AllDocIDs() *docset.DocIdSet
	DocCount() uint64
	SumLengths() uint64
	DocLength(id uint32) uint32
	InsertionIndex(id uint32) int
}
