package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainString(t *testing.T) {
	n, err := Parse("hello world")
	require.NoError(t, err)
	m, ok := n.(Match)
	require.True(t, ok)
	assert.Equal(t, "*", m.Field)
	assert.Equal(t, "hello world", m.Value)
}

func TestParseMatchAllDefaultBoost(t *testing.T) {
	n, err := Parse(map[string]any{"match_all": map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, MatchAll{Boost: 1.0}, n)
}

func TestParseTermFieldKeyed(t *testing.T) {
	n, err := Parse(map[string]any{
		"term": map[string]any{"status": "Alive"},
	})
	require.NoError(t, err)
	assert.Equal(t, Term{Field: "status", Value: "Alive", Fuzziness: 0}, n)
}

func TestParseTermObjectLevel(t *testing.T) {
	n, err := Parse(map[string]any{
		"term": map[string]any{"field": "status", "value": "Alive", "fuzziness": float64(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, Term{Field: "status", Value: "Alive", Fuzziness: 1}, n)
}

func TestParseFuzzyDefaultFuzzinessOne(t *testing.T) {
	n, err := Parse(map[string]any{
		"fuzzy": map[string]any{"name": map[string]any{"value": "Naruta"}},
	})
	require.NoError(t, err)
	assert.Equal(t, Fuzzy{Field: "name", Value: "Naruta", Fuzziness: 1}, n)
}

func TestParseFuzzinessOutOfRangeErrors(t *testing.T) {
	_, err := Parse(map[string]any{
		"term": map[string]any{"field": "status", "value": "x", "fuzziness": float64(3)},
	})
	require.Error(t, err)
}

func TestParseMatchPhrase(t *testing.T) {
	n, err := Parse(map[string]any{
		"match_phrase": map[string]any{
			"text": map[string]any{"query": "hello new world", "slop": float64(1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Phrase{Field: "text", QueryText: "hello new world", Slop: 1}, n)
}

func TestParseRangeNumeric(t *testing.T) {
	n, err := Parse(map[string]any{
		"range": map[string]any{"age": map[string]any{"gte": float64(10), "lt": float64(20)}},
	})
	require.NoError(t, err)
	r, ok := n.(Range)
	require.True(t, ok)
	require.NotNil(t, r.Gte)
	require.NotNil(t, r.Lt)
	assert.Equal(t, 10.0, *r.Gte)
	assert.Equal(t, 20.0, *r.Lt)
}

func TestParseGeoDistanceWithCenterArray(t *testing.T) {
	n, err := Parse(map[string]any{
		"geo_distance": map[string]any{
			"field":    "location",
			"distance": "5km",
			"center":   []any{float64(45.2), float64(12.5)},
		},
	})
	require.NoError(t, err)
	g, ok := n.(GeoDistance)
	require.True(t, ok)
	assert.Equal(t, 5000.0, g.DistanceMeters)
}

func TestParseGeoDistanceMetersSuffix(t *testing.T) {
	n, err := Parse(map[string]any{
		"geo_distance": map[string]any{
			"field":    "location",
			"distance": "500m",
			"center":   map[string]any{"lat": float64(1), "lon": float64(2)},
		},
	})
	require.NoError(t, err)
	g := n.(GeoDistance)
	assert.Equal(t, 500.0, g.DistanceMeters)
}

func TestParseBoolMustShouldMustNotFilter(t *testing.T) {
	n, err := Parse(map[string]any{
		"bool": map[string]any{
			"must":                 map[string]any{"term": map[string]any{"a": "1"}},
			"should":               []any{map[string]any{"term": map[string]any{"b": "2"}}},
			"must_not":             map[string]any{"term": map[string]any{"c": "3"}},
			"filter":               map[string]any{"term": map[string]any{"d": "4"}},
			"minimum_should_match": float64(1),
		},
	})
	require.NoError(t, err)
	b, ok := n.(Bool)
	require.True(t, ok)
	assert.Len(t, b.Must, 1)
	assert.Len(t, b.Should, 1)
	assert.Len(t, b.MustNot, 1)
	assert.Len(t, b.Filter, 1)
	assert.Equal(t, 1, b.MinimumShouldMatch)
	assert.True(t, b.ShouldPresent)
}

func TestParseBoolEmptyShouldIsDistinctFromAbsent(t *testing.T) {
	n, err := Parse(map[string]any{"bool": map[string]any{"should": []any{}}})
	require.NoError(t, err)
	b := n.(Bool)
	assert.True(t, b.ShouldPresent)
	assert.Empty(t, b.Should)
}

func TestParseUnknownTopLevelKeyIsMalformed(t *testing.T) {
	_, err := Parse(map[string]any{"nonsense": map[string]any{}})
	assert.Error(t, err)
}

func TestParseMultipleTopLevelKeysIsMalformed(t *testing.T) {
	_, err := Parse(map[string]any{
		"term":  map[string]any{"a": "1"},
		"match": map[string]any{"b": "2"},
	})
	assert.Error(t, err)
}

func TestParseUnknownBoolKeyIsMalformed(t *testing.T) {
	_, err := Parse(map[string]any{"bool": map[string]any{"nonsense": true}})
	assert.Error(t, err)
}

func TestParseWildcardAndPrefix(t *testing.T) {
	n, err := Parse(map[string]any{"prefix": map[string]any{"title": "hel"}})
	require.NoError(t, err)
	assert.Equal(t, Prefix{Field: "title", Value: "hel"}, n)

	n, err = Parse(map[string]any{"wildcard": map[string]any{"title": "h*o"}})
	require.NoError(t, err)
	assert.Equal(t, Wildcard{Field: "title", Value: "h*o"}, n)
}
