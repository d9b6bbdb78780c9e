package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectType  Type
		expectError bool
		errorCode   apperr.Code
	}{
		{
			name:       "Valid point",
			input:      `{"type":"Point","coordinates":[-122.4194,37.7749]}`,
			expectType: TypePoint,
		},
		{
			name:       "Valid polygon",
			input:      `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[0,0]]]}`,
			expectType: TypePolygon,
		},
		{
			name:       "Feature wrapper unwrapped",
			input:      `{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[10,20]}}`,
			expectType: TypePoint,
		},
		{
			name:       "Geometry collection",
			input:      `{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[0,0]}]}`,
			expectType: TypeCollection,
		},
		{
			name:        "Longitude out of range",
			input:       `{"type":"Point","coordinates":[-200,37.7749]}`,
			expectError: true,
			errorCode:   apperr.CodeInvalidInput,
		},
		{
			name:        "Latitude out of range",
			input:       `{"type":"Point","coordinates":[-122.4194,95]}`,
			expectError: true,
			errorCode:   apperr.CodeInvalidInput,
		},
		{
			name:        "Unsupported type",
			input:       `{"type":"Circle","coordinates":[0,0]}`,
			expectError: true,
			errorCode:   apperr.CodeInvalidInput,
		},
		{
			name:        "LineString with one position",
			input:       `{"type":"LineString","coordinates":[[0,0]]}`,
			expectError: true,
			errorCode:   apperr.CodeInvalidInput,
		},
		{
			name:        "Unclosed polygon ring",
			input:       `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0]]]}`,
			expectError: true,
			errorCode:   apperr.CodeInvalidInput,
		},
		{
			name:        "Feature without geometry",
			input:       `{"type":"Feature","properties":{}}`,
			expectError: true,
			errorCode:   apperr.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse([]byte(tt.input))
			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, apperr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectType, g.Type)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	input := `{"type":"MultiPolygon","coordinates":[[[[0,0],[0,1],[1,1],[0,0]]]]}`

	g, err := Parse([]byte(input))
	require.NoError(t, err)

	out, err := json.Marshal(g)
	require.NoError(t, err)

	var again Geometry
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, g, again)
}
