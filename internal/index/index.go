// Package index implements the per-shard InvertedIndex: a (field, term) ->
// Posting map, per spec.md §4.3.
package index

import (
	"sort"
	"sync"

	"github.com/ftsengine/ftsengine/internal/docset"
)

// Posting is the per-(field, term) record of which documents contain the
// term, with positions and frequency. Doc membership is the bitmap;
// frequency/positions are side maps consulted only for scoring and phrase
// evaluation.
type Posting struct {
	Docs      *docset.DocIdSet
	Freqs     map[uint32]uint32
	Positions map[uint32][]uint32
}

func newPosting() *Posting {
	return &Posting{
		Docs:      docset.New(),
		Freqs:     make(map[uint32]uint32),
		Positions: make(map[uint32][]uint32),
	}
}

// TermFrequency returns the term frequency for docID, 0 if absent.
func (p *Posting) TermFrequency(docID uint32) uint32 {
	return p.Freqs[docID]
}

// PositionsFor returns the sorted positions for docID.
func (p *Posting) PositionsFor(docID uint32) []uint32 {
	return p.Positions[docID]
}

type fieldTerm struct {
	field string
	term  string
}

// InvertedIndex owns all postings for one shard. It is exclusive to its
// owning shard worker; cross-shard access is forbidden per spec.md §5.
type InvertedIndex struct {
	mu       sync.RWMutex
	postings map[fieldTerm]*Posting
	// docFieldTerms tracks which (field,term) keys reference a doc, so
	// RemoveDocument can be total without scanning every posting.
	docFieldTerms map[uint32][]fieldTerm
	// termsByField supports TermsForField without scanning all postings.
	termsByField map[string]map[string]struct{}
}

// New creates an empty InvertedIndex.
func New() *InvertedIndex {
	return &InvertedIndex{
		postings:      make(map[fieldTerm]*Posting),
		docFieldTerms: make(map[uint32][]fieldTerm),
		termsByField:  make(map[string]map[string]struct{}),
	}
}

// AddToken records one occurrence of term in field at position for docID.
func (idx *InvertedIndex) AddToken(field, term string, docID uint32, position uint32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := fieldTerm{field: field, term: term}
	p, ok := idx.postings[key]
	if !ok {
		p = newPosting()
		idx.postings[key] = p
		idx.docFieldTerms[docID] = append(idx.docFieldTerms[docID], key)

		terms, ok := idx.termsByField[field]
		if !ok {
			terms = make(map[string]struct{})
			idx.termsByField[field] = terms
		}
		terms[term] = struct{}{}
	} else if !p.Docs.Contains(docID) {
		idx.docFieldTerms[docID] = append(idx.docFieldTerms[docID], key)
	}

	p.Docs.Add(docID)
	p.Freqs[docID]++
	positions := p.Positions[docID]
	positions = append(positions, position)
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	p.Positions[docID] = positions
}

// GetPostings returns the Posting for (field, term), or nil if there is no
// such posting (an out-of-bound or unmapped field is not an error, per
// spec.md §4.3).
func (idx *InvertedIndex) GetPostings(field, term string) *Posting {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	p, ok := idx.postings[fieldTerm{field: field, term: term}]
	if !ok {
		return nil
	}
	return p
}

// TermsForField returns every term ever indexed under field, in
// unspecified order (spec.md §4.3: "term iteration within a field is
// unordered").
func (idx *InvertedIndex) TermsForField(field string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	terms := idx.termsByField[field]
	result := make([]string, 0, len(terms))
	for t := range terms {
		result = append(result, t)
	}
	return result
}

// RemoveDocument removes every (field, term) reference to docID, atomically
// from the caller's perspective (holds the index lock for the duration).
func (idx *InvertedIndex) RemoveDocument(docID uint32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	keys, ok := idx.docFieldTerms[docID]
	if !ok {
		return
	}

	for _, key := range keys {
		p, ok := idx.postings[key]
		if !ok {
			continue
		}
		p.Docs.Remove(docID)
		delete(p.Freqs, docID)
		delete(p.Positions, docID)

		if p.Docs.IsEmpty() {
			delete(idx.postings, key)
			if terms, ok := idx.termsByField[key.field]; ok {
				delete(terms, key.term)
				if len(terms) == 0 {
					delete(idx.termsByField, key.field)
				}
			}
		}
	}

	delete(idx.docFieldTerms, docID)
}

// Clear removes all postings. If field is non-empty, only postings for that
// field are removed.
func (idx *InvertedIndex) Clear(field string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if field == "" {
		idx.postings = make(map[fieldTerm]*Posting)
		idx.docFieldTerms = make(map[uint32][]fieldTerm)
		idx.termsByField = make(map[string]map[string]struct{})
		return
	}

	for key := range idx.postings {
		if key.field == field {
			delete(idx.postings, key)
		}
	}
	delete(idx.termsByField, field)
	for doc, keys := range idx.docFieldTerms {
		filtered := keys[:0]
		for _, k := range keys {
			if k.field != field {
				filtered = append(filtered, k)
			}
		}
		idx.docFieldTerms[doc] = filtered
	}
}

// TermCount returns the number of distinct (field, term) postings currently
// held, used as the "tokens" figure in stats reporting.
func (idx *InvertedIndex) TermCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.postings)
}

// DocFrequency returns n(t): the number of documents containing the given
// (field, term).
func (idx *InvertedIndex) DocFrequency(field, term string) int {
	p := idx.GetPostings(field, term)
	if p == nil {
		return 0
	}
	return p.Docs.Len()
}
