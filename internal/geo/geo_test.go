package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMetersKnownPoints(t *testing.T) {
	// San Francisco to Los Angeles is roughly 559 km.
	sf := Point{Lat: 37.7749, Lon: -122.4194}
	la := Point{Lat: 34.0522, Lon: -118.2437}

	d := DistanceMeters(sf, la)
	assert.InDelta(t, 559000, d, 20000)
}

func TestDistanceMetersSamePoint(t *testing.T) {
	p := Point{Lat: 10, Lon: 20}
	assert.InDelta(t, 0, DistanceMeters(p, p), 0.001)
}

func TestWithin(t *testing.T) {
	center := Point{Lat: 0, Lon: 0}
	near := Point{Lat: 0.001, Lon: 0.001}
	far := Point{Lat: 10, Lon: 10}

	assert.True(t, Within(center, near, 1000))
	assert.False(t, Within(center, far, 1000))
}

func TestParsePointMap(t *testing.T) {
	p, err := ParsePoint(map[string]any{"lat": 12.5, "lon": -45.2})
	require.NoError(t, err)
	assert.Equal(t, 12.5, p.Lat)
	assert.Equal(t, -45.2, p.Lon)
}

func TestParsePointArrayUnambiguousLonLat(t *testing.T) {
	// 200 cannot be a latitude, so this must be [lon, lat].
	p, err := ParsePoint([]any{200.0, 45.0})
	require.NoError(t, err)
	assert.Equal(t, 45.0, p.Lat)
	assert.Equal(t, 200.0, p.Lon)
}

func TestParsePointArrayDefaultsLatLon(t *testing.T) {
	p, err := ParsePoint([]any{12.0, 45.0})
	require.NoError(t, err)
	assert.Equal(t, 12.0, p.Lat)
	assert.Equal(t, 45.0, p.Lon)
}

func TestParsePointInvalid(t *testing.T) {
	_, err := ParsePoint("not a point")
	assert.Error(t, err)

	_, err = ParsePoint([]any{1.0, 2.0, 3.0})
	assert.Error(t, err)
}
