package spatial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owizdom/astral-location-services-sub000/geometry"
)

func point(lon, lat float64) geometry.Geometry {
	return geometry.Geometry{Type: geometry.TypePoint, Point: []float64{lon, lat}}
}

var (
	sanFrancisco = point(-122.4194, 37.7749)
	newYork      = point(-73.9857, 40.7484)
)

func TestDistance(t *testing.T) {
	engine := NewGeodesic()
	ctx := context.Background()

	t.Run("SF to NYC is about 4130 km", func(t *testing.T) {
		d, err := engine.Distance(ctx, sanFrancisco, newYork)
		require.NoError(t, err)
		assert.InDelta(t, 4130000, d, 4130000*0.05)
	})

	t.Run("Identical points are exactly zero", func(t *testing.T) {
		d, err := engine.Distance(ctx, sanFrancisco, sanFrancisco)
		require.NoError(t, err)
		assert.Equal(t, float64(0), d)
	})

	t.Run("Non-point geometry is unsupported", func(t *testing.T) {
		line := geometry.Geometry{Type: geometry.TypeLineString, Line: [][]float64{{0, 0}, {1, 1}}}
		_, err := engine.Distance(ctx, line, newYork)
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestWithin(t *testing.T) {
	engine := NewGeodesic()
	ctx := context.Background()

	tests := []struct {
		name     string
		point    geometry.Geometry
		target   geometry.Geometry
		radius   float64
		expected bool
	}{
		{"Zero distance within any positive radius", sanFrancisco, sanFrancisco, 1, true},
		{"SF not within 1000m of NYC", sanFrancisco, newYork, 1000, false},
		{"SF within 5000km of NYC", sanFrancisco, newYork, 5_000_000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Within(ctx, tt.point, tt.target, tt.radius)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLength(t *testing.T) {
	engine := NewGeodesic()

	line := geometry.Geometry{
		Type: geometry.TypeLineString,
		Line: [][]float64{{-122.4194, 37.7749}, {-73.9857, 40.7484}},
	}
	length, err := engine.Length(context.Background(), line)
	require.NoError(t, err)

	d, err := engine.Distance(context.Background(), sanFrancisco, newYork)
	require.NoError(t, err)
	assert.Equal(t, d, length, "single-segment line length equals endpoint distance")
}

func TestArea(t *testing.T) {
	engine := NewGeodesic()

	// Roughly a 1-degree square near the equator, about 1.2e10 m².
	square := geometry.Geometry{
		Type:    geometry.TypePolygon,
		Polygon: [][][]float64{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
	}
	area, err := engine.Area(context.Background(), square)
	require.NoError(t, err)
	assert.InDelta(t, 1.23e10, area, 1.23e10*0.05)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 4130000.12, RoundCentimeters(4130000.12345))
	assert.Equal(t, 0.1235, RoundSquareCentimeters(0.12345678))
}
