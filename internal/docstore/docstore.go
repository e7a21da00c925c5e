// Package docstore implements the per-shard DocumentStore: id -> Document
// plus per-document length and the running totals BM25 needs, per spec.md
// §4.4.
package docstore

import (
	"sync"

	"github.com/ftsengine/ftsengine/internal/doc"
)

// DocumentStore maps DocumentId -> Document and DocumentId -> docLength,
// and tracks the aggregates the scorer needs: totalDocs and sumDocLengths.
// Insertion order is preserved for ranking tie-breaks (spec.md §4.8).
type DocumentStore struct {
	mu sync.RWMutex

	docs        map[doc.DocumentId]doc.Document
	lengths     map[doc.DocumentId]uint32
	order       []doc.DocumentId
	orderIndex  map[doc.DocumentId]int
	sumLengths  uint64
}

// New creates an empty DocumentStore.
func New() *DocumentStore {
	return &DocumentStore{
		docs:       make(map[doc.DocumentId]doc.Document),
		lengths:    make(map[doc.DocumentId]uint32),
		orderIndex: make(map[doc.DocumentId]int),
	}
}

// Put inserts or replaces d, recording length as its analyzed token count.
func (s *DocumentStore) Put(d doc.Document, length uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, existed := s.lengths[d.ID]; existed {
		s.sumLengths -= uint64(old)
	} else {
		s.orderIndex[d.ID] = len(s.order)
		s.order = append(s.order, d.ID)
	}

	s.docs[d.ID] = d
	s.lengths[d.ID] = length
	s.sumLengths += uint64(length)
}

// Get returns a copy of the document with id, or (zero, false) if absent.
func (s *DocumentStore) Get(id doc.DocumentId) (doc.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return doc.Document{}, false
	}
	return d.Clone(), true
}

// Delete removes id, returning true if it was present.
func (s *DocumentStore) Delete(id doc.DocumentId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return false
	}

	s.sumLengths -= uint64(s.lengths[id])
	delete(s.docs, id)
	delete(s.lengths, id)

	// Insertion-order slice: mark the slot as removed by shifting. This
	// store assumes deletes are not the hot path for large shards; a
	// tombstone-and-compact scheme would amortize this for heavy churn.
	idx, ok := s.orderIndex[id]
	if ok {
		s.order = append(s.order[:idx], s.order[idx+1:]...)
		delete(s.orderIndex, id)
		for i := idx; i < len(s.order); i++ {
			s.orderIndex[s.order[i]] = i
		}
	}

	return true
}

// Length returns the analyzed token count for id.
func (s *DocumentStore) Length(id doc.DocumentId) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lengths[id]
}

// Count returns the total number of documents (N in the BM25 formula).
func (s *DocumentStore) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.docs))
}

// SumLengths returns the sum of all document lengths.
func (s *DocumentStore) SumLengths() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sumLengths
}

// AvgLength returns the average document length, 0 if the store is empty.
func (s *DocumentStore) AvgLength() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.docs) == 0 {
		return 0
	}
	return float64(s.sumLengths) / float64(len(s.docs))
}

// InsertionIndex returns id's position in insertion order, used as the
// ranking tie-break (earlier insertion first), and whether id is present.
func (s *DocumentStore) InsertionIndex(id doc.DocumentId) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.orderIndex[id]
	return idx, ok
}

// All returns every document in insertion order. Intended for snapshotting
// and small-scale iteration, not the query hot path.
func (s *DocumentStore) All() []doc.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]doc.Document, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.docs[id].Clone())
	}
	return result
}

// Clear removes every document.
func (s *DocumentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[doc.DocumentId]doc.Document)
	s.lengths = make(map[doc.DocumentId]uint32)
	s.order = nil
	s.orderIndex = make(map[doc.DocumentId]int)
	s.sumLengths = 0
}
