// Package spatial defines the boundary to the spatial-query engine and the
// rounding discipline applied to geodesic measurements before signing.
package spatial

import (
	"context"
	"math"

	"github.com/owizdom/astral-location-services-sub000/geometry"
)

// Engine is the opaque spatial function library consumed by the compute
// path. Production deployments back this with an external engine such as
// PostGIS; implementations must bound their calls with the given context.
type Engine interface {
	// Distance returns the geodesic distance between a and b in meters.
	Distance(ctx context.Context, a, b geometry.Geometry) (float64, error)

	// Area returns the geodesic area of a polygon in square meters.
	Area(ctx context.Context, polygon geometry.Geometry) (float64, error)

	// Length returns the geodesic length of a line in meters.
	Length(ctx context.Context, line geometry.Geometry) (float64, error)

	// Contains reports whether container fully contains containee.
	Contains(ctx context.Context, container, containee geometry.Geometry) (bool, error)

	// Within reports whether point lies within radiusMeters of target.
	Within(ctx context.Context, point, target geometry.Geometry, radiusMeters float64) (bool, error)

	// Intersects reports whether a and b share any point.
	Intersects(ctx context.Context, a, b geometry.Geometry) (bool, error)
}

// RoundCentimeters rounds a distance or length in meters to centimeter
// precision, bounding floating-point nondeterminism before the value is
// signed.
func RoundCentimeters(meters float64) float64 {
	return math.Round(meters*100) / 100
}

// RoundSquareCentimeters rounds an area in square meters to square-centimeter
// precision.
func RoundSquareCentimeters(squareMeters float64) float64 {
	return math.Round(squareMeters*10000) / 10000
}
