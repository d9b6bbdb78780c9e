package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformSortsKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Flat object",
			input:    `{"b":2,"a":1}`,
			expected: `{"a":1,"b":2}`,
		},
		{
			name:     "Nested object",
			input:    `{"type":"Point","coordinates":[-122.4194,37.7749]}`,
			expected: `{"coordinates":[-122.4194,37.7749],"type":"Point"}`,
		},
		{
			name:     "Deeply nested keys",
			input:    `{"z":{"d":4,"c":{"b":2,"a":1}},"y":[{"k":1,"j":2}]}`,
			expected: `{"y":[{"j":2,"k":1}],"z":{"c":{"a":1,"b":2},"d":4}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Transform([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestHashKeyOrderIndependent(t *testing.T) {
	a := []byte(`{"type":"Point","coordinates":[-122.4194,37.7749]}`)
	b := []byte(`{"coordinates":[-122.4194,37.7749],"type":"Point"}`)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb, "object key order must not affect the reference")
}

func TestHashArrayOrderDependent(t *testing.T) {
	a := []byte(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`)
	b := []byte(`{"type":"LineString","coordinates":[[1,1],[0,0]]}`)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb, "coordinate order must affect the reference")
}

func TestTransformPreservesNumberText(t *testing.T) {
	out, err := Transform([]byte(`{"a":1.0,"b":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1.0,"b":1}`, string(out))
}

func TestTransformRejectsInvalidJSON(t *testing.T) {
	_, err := Transform([]byte(`{invalid}`))
	assert.Error(t, err)

	_, err = Transform([]byte(`{"a":1} extra`))
	assert.Error(t, err)
}
