// Package score implements the BM25 Scorer, per spec.md §4.7.
package score

import (
	"math"

	"github.com/ftsengine/ftsengine/internal/exec"
	"github.com/ftsengine/ftsengine/internal/index"
)

// Defaults mirror spec.md §4.7.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Collection is the per-shard statistics the scorer needs beyond what
// exec.Result already carries: N (total docs), avg|d|, and per-doc length.
type Collection interface {
	DocCount() uint64
	AvgDocLength() float64
	DocLength(id uint32) uint32
	DocFrequency(field, term string) int
}

// Scorer computes BM25 scores for a candidate set given the terms that
// contributed to it during execution.
type Scorer struct {
	K1 float64
	B  float64
}

// New creates a Scorer with the given k1/b; zero values fall back to the
// spec defaults.
func New(k1, b float64) *Scorer {
	if k1 == 0 {
		k1 = DefaultK1
	}
	if b == 0 {
		b = DefaultB
	}
	return &Scorer{K1: k1, B: b}
}

// Score computes score(d, q) for docID given the scoring terms from a
// QueryExecutor result and the collection's BM25 inputs. A (field, term)
// pair that appears more than once in terms is counted once.
func (s *Scorer) Score(col Collection, docID uint32, terms []exec.ScoringTerm, constantBoost float64, postingsOf func(field, term string) *index.Posting) float64 {
	total := constantBoost

	n := col.DocCount()
	avgLen := col.AvgDocLength()
	docLen := float64(col.DocLength(docID))

	seen := make(map[exec.ScoringTerm]struct{}, len(terms))
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}

		p := postingsOf(t.Field, t.Term)
		if p == nil {
			continue
		}
		tf := float64(p.TermFrequency(docID))
		if tf == 0 {
			continue
		}

		df := float64(col.DocFrequency(t.Field, t.Term))
		idf := Idf(n, df)

		denom := tf + s.K1*(1-s.B+s.B*safeRatio(docLen, avgLen))
		total += idf * (tf * (s.K1 + 1)) / denom
	}

	return total
}

// Idf computes ln(1 + (N - n(t) + 0.5) / (n(t) + 0.5)).
func Idf(n uint64, docFreq float64) float64 {
	nf := float64(n)
	return math.Log(1 + (nf-docFreq+0.5)/(docFreq+0.5))
}

func safeRatio(docLen, avgLen float64) float64 {
	if avgLen == 0 {
		return 0
	}
	return docLen / avgLen
}
