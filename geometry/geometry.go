// Package geometry models GeoJSON geometry as a tagged union with exhaustive
// dispatch on the declared type, plus coordinate-range validation.
package geometry

import (
	"encoding/json"
	"fmt"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
)

// Type enumerates the supported geometry kinds.
type Type string

const (
	TypePoint           Type = "Point"
	TypeMultiPoint      Type = "MultiPoint"
	TypeLineString      Type = "LineString"
	TypeMultiLineString Type = "MultiLineString"
	TypePolygon         Type = "Polygon"
	TypeMultiPolygon    Type = "MultiPolygon"
	TypeCollection      Type = "GeometryCollection"
)

// Geometry is a typed geometry value. Exactly one coordinate field is
// populated, matching Type.
type Geometry struct {
	Type Type

	Point        []float64
	MultiPoint   [][]float64
	Line         [][]float64
	MultiLine    [][][]float64
	Polygon      [][][]float64
	MultiPolygon [][][][]float64
	Geometries   []Geometry
}

type geometryJSON struct {
	Type        Type            `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []Geometry      `json:"geometries,omitempty"`
}

// UnmarshalJSON dispatches on the declared "type" member.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var raw geometryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal geometry: %w", err)
	}

	g.Type = raw.Type
	switch raw.Type {
	case TypePoint:
		return json.Unmarshal(raw.Coordinates, &g.Point)
	case TypeMultiPoint:
		return json.Unmarshal(raw.Coordinates, &g.MultiPoint)
	case TypeLineString:
		return json.Unmarshal(raw.Coordinates, &g.Line)
	case TypeMultiLineString:
		return json.Unmarshal(raw.Coordinates, &g.MultiLine)
	case TypePolygon:
		return json.Unmarshal(raw.Coordinates, &g.Polygon)
	case TypeMultiPolygon:
		return json.Unmarshal(raw.Coordinates, &g.MultiPolygon)
	case TypeCollection:
		g.Geometries = raw.Geometries
		return nil
	default:
		return apperr.New(apperr.CodeInvalidInput, "unsupported geometry type %q", raw.Type)
	}
}

// MarshalJSON emits the GeoJSON form of the geometry.
func (g Geometry) MarshalJSON() ([]byte, error) {
	var coords interface{}
	switch g.Type {
	case TypePoint:
		coords = g.Point
	case TypeMultiPoint:
		coords = g.MultiPoint
	case TypeLineString:
		coords = g.Line
	case TypeMultiLineString:
		coords = g.MultiLine
	case TypePolygon:
		coords = g.Polygon
	case TypeMultiPolygon:
		coords = g.MultiPolygon
	case TypeCollection:
		return json.Marshal(struct {
			Type       Type       `json:"type"`
			Geometries []Geometry `json:"geometries"`
		}{g.Type, g.Geometries})
	default:
		return nil, apperr.New(apperr.CodeInvalidInput, "unsupported geometry type %q", g.Type)
	}

	return json.Marshal(struct {
		Type        Type        `json:"type"`
		Coordinates interface{} `json:"coordinates"`
	}{g.Type, coords})
}

// Parse decodes and validates a GeoJSON geometry document. Feature wrappers
// are unwrapped to the inner geometry.
func Parse(raw []byte) (Geometry, error) {
	inner, err := UnwrapFeature(raw)
	if err != nil {
		return Geometry{}, err
	}

	var g Geometry
	if err := json.Unmarshal(inner, &g); err != nil {
		if apperr.CodeOf(err) != "" {
			return Geometry{}, err
		}
		return Geometry{}, apperr.Wrap(apperr.CodeInvalidInput, err, "malformed geometry document")
	}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// UnwrapFeature returns the "geometry" member of a Feature-shaped document,
// or the document itself when it is not a Feature.
func UnwrapFeature(raw []byte) ([]byte, error) {
	var probe struct {
		Type     string          `json:"type"`
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, err, "malformed geometry document")
	}
	if probe.Type == "Feature" {
		if len(probe.Geometry) == 0 {
			return nil, apperr.New(apperr.CodeInvalidInput, "Feature document has no geometry member")
		}
		return probe.Geometry, nil
	}
	return raw, nil
}
