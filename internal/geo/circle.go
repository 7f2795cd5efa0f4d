// Package geo generates the protective areas drawn around approximate pin locations.
//
// All functions are pure. Centers exactly at a pole produce unstable
// longitudes because the bearing is undefined there; terrestrial habitats
// never sit on a pole so this is not special-cased.
package geo

import (
	"fmt"
	"math"

	"github.com/totegamma/biomap/internal/domain"
)

const (
	EarthRadiusKm       = 6371.0
	DefaultSegmentCount = 64
	MinSegmentCount     = 3
)

// Coordinate is a [longitude, latitude] pair, the order map renderers expect.
type Coordinate [2]float64

func (c Coordinate) Long() float64 { return c[0] }
func (c Coordinate) Lat() float64  { return c[1] }

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Destination returns the point reached by travelling distanceKm from center
// along the initial bearing (radians, clockwise from north) on a sphere.
func Destination(center domain.Point, bearing, distanceKm float64) Coordinate {
	delta := distanceKm / EarthRadiusKm
	lat1 := toRad(center.Lat)
	long1 := toRad(center.Long)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(bearing))
	long2 := long1 + math.Atan2(
		math.Sin(bearing)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Coordinate{toDeg(long2), toDeg(lat2)}
}

// Circle approximates a circle of radiusKm around center as a closed ring of
// segmentCount+1 coordinates. The last coordinate is the first one repeated.
func Circle(center domain.Point, radiusKm float64, segmentCount int) ([]Coordinate, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("center out of range: lat=%v long=%v", center.Lat, center.Long)
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return nil, fmt.Errorf("radius must be non-negative, got %v", radiusKm)
	}
	if segmentCount < MinSegmentCount {
		return nil, fmt.Errorf("segment count must be at least %d, got %d", MinSegmentCount, segmentCount)
	}

	ring := make([]Coordinate, 0, segmentCount+1)
	for i := 0; i < segmentCount; i++ {
		if radiusKm == 0 {
			ring = append(ring, Coordinate{center.Long, center.Lat})
			continue
		}
		bearing := 2 * math.Pi * float64(i) / float64(segmentCount)
		ring = append(ring, Destination(center, bearing, radiusKm))
	}
	ring = append(ring, ring[0])

	return ring, nil
}

// Distance is the great-circle (haversine) distance between two points in km.
func Distance(a, b domain.Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLong := toRad(b.Long - a.Long)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLong/2)*math.Sin(dLong/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bounds returns the south-west and north-east corners of a ring.
func Bounds(ring []Coordinate) (sw, ne Coordinate) {
	if len(ring) == 0 {
		return Coordinate{}, Coordinate{}
	}
	sw, ne = ring[0], ring[0]
	for _, c := range ring[1:] {
		sw[0] = math.Min(sw[0], c[0])
		sw[1] = math.Min(sw[1], c[1])
		ne[0] = math.Max(ne[0], c[0])
		ne[1] = math.Max(ne[1], c[1])
	}
	return sw, ne
}
