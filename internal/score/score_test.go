package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ftsengine/ftsengine/internal/exec"
	"github.com/ftsengine/ftsengine/internal/index"
)

type fakeCollection struct {
	docCount uint64
	avgLen   float64
	lengths  map[uint32]uint32
	idx      *index.InvertedIndex
}

func (c *fakeCollection) DocCount() uint64           { return c.docCount }
func (c *fakeCollection) AvgDocLength() float64      { return c.avgLen }
func (c *fakeCollection) DocLength(id uint32) uint32 { return c.lengths[id] }
func (c *fakeCollection) DocFrequency(field, term string) int {
	return c.idx.DocFrequency(field, term)
}

func TestIdfDecreasesAsDocFrequencyIncreases(t *testing.T) {
	rare := Idf(100, 1)
	common := Idf(100, 50)
	assert.Greater(t, rare, common)
}

func TestScoreZeroForNoMatchingTerms(t *testing.T) {
	idx := index.New()
	col := &fakeCollection{docCount: 1, avgLen: 5, lengths: map[uint32]uint32{1: 5}, idx: idx}
	s := New(0, 0)

	got := s.Score(col, 1, nil, 0, idx.GetPostings)
	assert.Equal(t, 0.0, got)
}

func TestScoreMatchAllConstantBoost(t *testing.T) {
	idx := index.New()
	col := &fakeCollection{docCount: 2, avgLen: 5, lengths: map[uint32]uint32{1: 5}, idx: idx}
	s := New(0, 0)

	got := s.Score(col, 1, nil, 1.0, idx.GetPostings)
	assert.Equal(t, 1.0, got)
}

func TestScoreHigherTermFrequencyScoresHigher(t *testing.T) {
	idx := index.New()
	idx.AddToken("title", "hello", 1, 0)
	idx.AddToken("title", "hello", 1, 1)
	idx.AddToken("title", "hello", 2, 0)

	col := &fakeCollection{docCount: 2, avgLen: 2, lengths: map[uint32]uint32{1: 2, 2: 1}, idx: idx}
	s := New(DefaultK1, DefaultB)

	terms := []exec.ScoringTerm{{Field: "title", Term: "hello"}}
	score1 := s.Score(col, 1, terms, 0, idx.GetPostings)
	score2 := s.Score(col, 2, terms, 0, idx.GetPostings)
	assert.Greater(t, score1, score2)
}

func TestScoreDeduplicatesRepeatedScoringTerms(t *testing.T) {
	idx := index.New()
	idx.AddToken("title", "hello", 1, 0)
	col := &fakeCollection{docCount: 1, avgLen: 1, lengths: map[uint32]uint32{1: 1}, idx: idx}
	s := New(DefaultK1, DefaultB)

	terms := []exec.ScoringTerm{{Field: "title", Term: "hello"}, {Field: "title", Term: "hello"}}
	singleTerm := []exec.ScoringTerm{{Field: "title", Term: "hello"}}

	assert.Equal(t, s.Score(col, 1, singleTerm, 0, idx.GetPostings), s.Score(col, 1, terms, 0, idx.GetPostings))
}
