// Package docset provides DocIdSet, the compressed bitmap representation of
// a set of document ids shared by postings, query candidate sets, and
// aggregation buckets.
package docset

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// DocIdSet is a set of uint32 document ids backed by a Roaring bitmap.
// Every posting list, query executor candidate set, and aggregation bucket
// set is a DocIdSet, so boolean query composition (and/or/and-not) maps
// directly onto the underlying bitmap operations.
type DocIdSet struct {
	bm *roaring.Bitmap
}

// New creates an empty DocIdSet.
func New() *DocIdSet {
	return &DocIdSet{bm: roaring.New()}
}

// FromSlice creates a DocIdSet containing exactly the given ids.
func FromSlice(ids []uint32) *DocIdSet {
	return &DocIdSet{bm: roaring.BitmapOf(ids...)}
}

// Add inserts id into the set.
func (s *DocIdSet) Add(id uint32) {
	s.bm.Add(id)
}

// Remove deletes id from the set.
func (s *DocIdSet) Remove(id uint32) {
	s.bm.Remove(id)
}

// Contains reports whether id is a member of the set.
func (s *DocIdSet) Contains(id uint32) bool {
	return s.bm.Contains(id)
}

// Len returns the number of ids in the set.
func (s *DocIdSet) Len() int {
	return int(s.bm.GetCardinality())
}

// IsEmpty reports whether the set has no members.
func (s *DocIdSet) IsEmpty() bool {
	return s.bm.IsEmpty()
}

// ToSlice returns the sorted ids in the set.
func (s *DocIdSet) ToSlice() []uint32 {
	return s.bm.ToArray()
}

// Clone returns a deep copy of the set.
func (s *DocIdSet) Clone() *DocIdSet {
	return &DocIdSet{bm: s.bm.Clone()}
}

// And intersects the set with other, in place, and returns the receiver.
func (s *DocIdSet) And(other *DocIdSet) *DocIdSet {
	s.bm.And(other.bm)
	return s
}

// Or unions the set with other, in place, and returns the receiver.
func (s *DocIdSet) Or(other *DocIdSet) *DocIdSet {
	s.bm.Or(other.bm)
	return s
}

// AndNot removes members of other from the set, in place, and returns the
// receiver.
func (s *DocIdSet) AndNot(other *DocIdSet) *DocIdSet {
	s.bm.AndNot(other.bm)
	return s
}

// Intersect returns a new DocIdSet containing members present in every
// supplied set. An empty input returns an empty set.
func Intersect(sets ...*DocIdSet) *DocIdSet {
	if len(sets) == 0 {
		return New()
	}
	result := sets[0].Clone()
	for _, s := range sets[1:] {
		result.And(s)
	}
	return result
}

// Union returns a new DocIdSet containing members present in any supplied
// set.
func Union(sets ...*DocIdSet) *DocIdSet {
	result := New()
	for _, s := range sets {
		result.Or(s)
	}
	return result
}

// Iterator returns an iterator over the set's members in ascending order.
func (s *DocIdSet) Iterator() roaring.IntPeekable {
	return s.bm.Iterator()
}

// Each calls fn for every member id in ascending order.
func (s *DocIdSet) Each(fn func(id uint32)) {
	it := s.bm.Iterator()
	for it.HasNext() {
		fn(it.Next())
	}
}
