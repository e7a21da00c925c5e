package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditDistanceIdentical(t *testing.T) {
	assert.Equal(t, 0, EditDistance("naruto", "naruto"))
}

func TestEditDistanceOneSubstitution(t *testing.T) {
	assert.Equal(t, 1, EditDistance("naruto", "naruta"))
}

func TestEditDistanceEmptyStrings(t *testing.T) {
	assert.Equal(t, 3, EditDistance("", "abc"))
	assert.Equal(t, 3, EditDistance("abc", ""))
}

func TestWithinEditDistance(t *testing.T) {
	assert.True(t, WithinEditDistance("naruto", "naruta", 1))
	assert.False(t, WithinEditDistance("naruto", "naruta", 0))
	assert.False(t, WithinEditDistance("naruto", "completelydifferent", 2))
}
