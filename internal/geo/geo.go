// Package geo implements GeoDistance query evaluation: haversine distance
// and the [lat,lon] vs [lon,lat] coordinate-order heuristic from spec.md
// §4.6 and §9.
package geo

import (
	"fmt"

	blevegeo "github.com/blevesearch/geo"
)

// Point is a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// DistanceMeters returns the great-circle distance between a and b in
// meters, using the haversine formula from blevesearch/geo (which returns
// kilometers).
func DistanceMeters(a, b Point) float64 {
	km := blevegeo.Haversin(a.Lon, a.Lat, b.Lon, b.Lat)
	return km * 1000.0
}

// Within reports whether b lies within distanceMeters of center.
func Within(center, b Point, distanceMeters float64) bool {
	return DistanceMeters(center, b) <= distanceMeters
}

// ParsePoint interprets a raw field value as a geo point, accepting
// {lat,lon}-shaped maps or [a,b] two-element slices. For the ambiguous
// two-element array form it applies the valid-range heuristic: latitude is
// bounded to [-90,90] while longitude spans [-180,180], so if the first
// element is out of latitude range but the second is in range, the pair is
// treated as [lon,lat] rather than [lat,lon].
func ParsePoint(v any) (Point, error) {
	switch t := v.(type) {
	case Point:
		return t, nil
	case map[string]any:
		lat, latOK := toFloat(t["lat"])
		lon, lonOK := toFloat(t["lon"])
		if !latOK || !lonOK {
			return Point{}, fmt.Errorf("geo point map missing lat/lon: %v", v)
		}
		return Point{Lat: lat, Lon: lon}, nil
	case []any:
		if len(t) != 2 {
			return Point{}, fmt.Errorf("geo point array must have 2 elements, got %d", len(t))
		}
		a, aOK := toFloat(t[0])
		b, bOK := toFloat(t[1])
		if !aOK || !bOK {
			return Point{}, fmt.Errorf("geo point array elements must be numeric: %v", v)
		}
		return disambiguate(a, b), nil
	case []float64:
		if len(t) != 2 {
			return Point{}, fmt.Errorf("geo point array must have 2 elements, got %d", len(t))
		}
		return disambiguate(t[0], t[1]), nil
	default:
		return Point{}, fmt.Errorf("unsupported geo point value: %v (%T)", v, v)
	}
}

// disambiguate decides whether (a,b) is [lat,lon] or [lon,lat]. When both
// orderings are plausible (both values fit within latitude range), [lat,lon]
// is assumed, matching the more common convention in the spec's examples.
func disambiguate(a, b float64) Point {
	aIsLat := a >= -90 && a <= 90
	bIsLat := b >= -90 && b <= 90
	if aIsLat && !bIsLat {
		return Point{Lat: a, Lon: b}
	}
	if !aIsLat && bIsLat {
		return Point{Lat: b, Lon: a}
	}
	// Both plausible as latitude (or neither) - default to [lat,lon].
	return Point{Lat: a, Lon: b}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
