package docset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddContainsRemove(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(5)
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(2))

	s.Remove(1)
	assert.False(t, s.Contains(1))
	assert.Equal(t, 1, s.Len())
}

func TestIntersectUnionAndNot(t *testing.T) {
	a := FromSlice([]uint32{1, 2, 3})
	b := FromSlice([]uint32{2, 3, 4})

	inter := Intersect(a, b)
	assert.ElementsMatch(t, []uint32{2, 3}, inter.ToSlice())

	union := Union(a, b)
	assert.ElementsMatch(t, []uint32{1, 2, 3, 4}, union.ToSlice())

	diff := a.Clone().AndNot(b)
	assert.ElementsMatch(t, []uint32{1}, diff.ToSlice())
}

func TestEmptySetOperations(t *testing.T) {
	assert.True(t, New().IsEmpty())
	assert.True(t, Intersect().IsEmpty())
	assert.True(t, Union().IsEmpty())
}

func TestEach(t *testing.T) {
	s := FromSlice([]uint32{3, 1, 2})
	var seen []uint32
	s.Each(func(id uint32) { seen = append(seen, id) })
	assert.Equal(t, []uint32{1, 2, 3}, seen)
}
