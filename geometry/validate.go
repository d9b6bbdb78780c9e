package geometry

import (
	"math"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
)

const (
	minLongitude = -180
	maxLongitude = 180
	minLatitude  = -90
	maxLatitude  = 90
)

// Validate checks that every coordinate lies within valid longitude/latitude
// bounds and that each variant carries enough positions to be meaningful.
func (g Geometry) Validate() error {
	switch g.Type {
	case TypePoint:
		return validatePosition(g.Point)
	case TypeMultiPoint:
		if len(g.MultiPoint) == 0 {
			return apperr.New(apperr.CodeInvalidInput, "MultiPoint requires at least one position")
		}
		return validatePositions(g.MultiPoint)
	case TypeLineString:
		return validateLine(g.Line)
	case TypeMultiLineString:
		if len(g.MultiLine) == 0 {
			return apperr.New(apperr.CodeInvalidInput, "MultiLineString requires at least one line")
		}
		for _, line := range g.MultiLine {
			if err := validateLine(line); err != nil {
				return err
			}
		}
		return nil
	case TypePolygon:
		return validateRings(g.Polygon)
	case TypeMultiPolygon:
		if len(g.MultiPolygon) == 0 {
			return apperr.New(apperr.CodeInvalidInput, "MultiPolygon requires at least one polygon")
		}
		for _, rings := range g.MultiPolygon {
			if err := validateRings(rings); err != nil {
				return err
			}
		}
		return nil
	case TypeCollection:
		if len(g.Geometries) == 0 {
			return apperr.New(apperr.CodeInvalidInput, "GeometryCollection requires at least one geometry")
		}
		for _, member := range g.Geometries {
			if err := member.Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return apperr.New(apperr.CodeInvalidInput, "unsupported geometry type %q", g.Type)
	}
}

func validateLine(line [][]float64) error {
	if len(line) < 2 {
		return apperr.New(apperr.CodeInvalidInput, "LineString requires at least 2 positions, got %d", len(line))
	}
	return validatePositions(line)
}

func validateRings(rings [][][]float64) error {
	if len(rings) == 0 {
		return apperr.New(apperr.CodeInvalidInput, "Polygon requires at least one ring")
	}
	for _, ring := range rings {
		if len(ring) < 4 {
			return apperr.New(apperr.CodeInvalidInput, "polygon ring requires at least 4 positions, got %d", len(ring))
		}
		if err := validatePositions(ring); err != nil {
			return err
		}
		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			return apperr.New(apperr.CodeInvalidInput, "polygon ring is not closed: first %v, last %v", first, last)
		}
	}
	return nil
}

func validatePositions(positions [][]float64) error {
	for _, pos := range positions {
		if err := validatePosition(pos); err != nil {
			return err
		}
	}
	return nil
}

func validatePosition(pos []float64) error {
	if len(pos) < 2 {
		return apperr.New(apperr.CodeInvalidInput, "position requires longitude and latitude, got %v", pos)
	}
	lon, lat := pos[0], pos[1]
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return apperr.New(apperr.CodeInvalidInput, "position contains a non-finite coordinate: %v", pos)
	}
	if lon < minLongitude || lon > maxLongitude {
		return apperr.New(apperr.CodeInvalidInput, "longitude %v out of range [-180, 180]", lon)
	}
	if lat < minLatitude || lat > maxLatitude {
		return apperr.New(apperr.CodeInvalidInput, "latitude %v out of range [-90, 90]", lat)
	}
	return nil
}
