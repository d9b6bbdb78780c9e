package spatial

import (
	"context"
	"errors"
	"math"

	"github.com/owizdom/astral-location-services-sub000/geometry"
)

// ErrUnsupported marks operations the in-process engine cannot evaluate;
// callers should route them to an external engine instead.
var ErrUnsupported = errors.New("spatial: operation not supported by the geodesic engine")

// earthRadiusMeters is the mean earth radius used for great-circle math.
const earthRadiusMeters = 6371008.8

// Geodesic is an in-process Engine covering the point and line subset of the
// spatial surface with great-circle math. Polygon containment and
// intersection require a full geometry engine and return ErrUnsupported.
type Geodesic struct{}

// NewGeodesic returns the in-process engine.
func NewGeodesic() *Geodesic {
	return &Geodesic{}
}

// Distance implements Engine for Point inputs.
func (Geodesic) Distance(_ context.Context, a, b geometry.Geometry) (float64, error) {
	if a.Type != geometry.TypePoint || b.Type != geometry.TypePoint {
		return 0, ErrUnsupported
	}
	return haversine(a.Point, b.Point), nil
}

// Length implements Engine for LineString and MultiLineString inputs.
func (g Geodesic) Length(_ context.Context, line geometry.Geometry) (float64, error) {
	switch line.Type {
	case geometry.TypeLineString:
		return pathLength(line.Line), nil
	case geometry.TypeMultiLineString:
		var total float64
		for _, part := range line.MultiLine {
			total += pathLength(part)
		}
		return total, nil
	default:
		return 0, ErrUnsupported
	}
}

// Area implements Engine for Polygon and MultiPolygon inputs using the
// spherical-excess ring approximation.
func (g Geodesic) Area(_ context.Context, polygon geometry.Geometry) (float64, error) {
	switch polygon.Type {
	case geometry.TypePolygon:
		return polygonArea(polygon.Polygon), nil
	case geometry.TypeMultiPolygon:
		var total float64
		for _, rings := range polygon.MultiPolygon {
			total += polygonArea(rings)
		}
		return total, nil
	default:
		return 0, ErrUnsupported
	}
}

// Within implements Engine for Point against Point targets.
func (g Geodesic) Within(ctx context.Context, point, target geometry.Geometry, radiusMeters float64) (bool, error) {
	d, err := g.Distance(ctx, point, target)
	if err != nil {
		return false, err
	}
	return d <= radiusMeters, nil
}

// Contains is not supported by the geodesic engine.
func (Geodesic) Contains(context.Context, geometry.Geometry, geometry.Geometry) (bool, error) {
	return false, ErrUnsupported
}

// Intersects is not supported by the geodesic engine.
func (Geodesic) Intersects(context.Context, geometry.Geometry, geometry.Geometry) (bool, error) {
	return false, ErrUnsupported
}

// haversine returns the great-circle distance in meters between two
// [lon, lat] positions.
func haversine(a, b []float64) float64 {
	lat1 := radians(a[1])
	lat2 := radians(b[1])
	dLat := radians(b[1] - a[1])
	dLon := radians(b[0] - a[0])

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func pathLength(positions [][]float64) float64 {
	var total float64
	for i := 1; i < len(positions); i++ {
		total += haversine(positions[i-1], positions[i])
	}
	return total
}

// polygonArea sums the outer ring area minus any interior ring areas.
func polygonArea(rings [][][]float64) float64 {
	if len(rings) == 0 {
		return 0
	}
	area := ringArea(rings[0])
	for _, hole := range rings[1:] {
		area -= ringArea(hole)
	}
	return math.Max(0, area)
}

// ringArea approximates the geodesic area of a ring on a sphere.
func ringArea(ring [][]float64) float64 {
	if len(ring) < 3 {
		return 0
	}
	var total float64
	for i := 0; i < len(ring); i++ {
		p1 := ring[i]
		p2 := ring[(i+1)%len(ring)]
		total += radians(p2[0]-p1[0]) * (2 + math.Sin(radians(p1[1])) + math.Sin(radians(p2[1])))
	}
	return math.Abs(total * earthRadiusMeters * earthRadiusMeters / 2)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
