package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stampFrom(plugin string, start, end int64) LocationStamp {
	return LocationStamp{
		PluginName: plugin,
		TimeStart:  start,
		TimeEnd:    end,
	}
}

func validResult(score float64) StampResult {
	return StampResult{
		Verify: VerifyResult{Valid: true, StructureValid: true, SignaturesValid: true, SignalsConsistent: true},
		Assess: AssessResult{Score: score, SupportsClaim: score > 0.5},
	}
}

func invalidResult() StampResult {
	return StampResult{Verify: VerifyResult{}}
}

func TestIndependence(t *testing.T) {
	tests := []struct {
		name   string
		stamps []LocationStamp
		want   float64
	}{
		{
			name: "distinct sources are fully independent",
			stamps: []LocationStamp{
				stampFrom("device", 0, 60),
				stampFrom("wifi", 0, 60),
			},
			want: 1,
		},
		{
			name: "one source repeated halves independence",
			stamps: []LocationStamp{
				stampFrom("device", 0, 60),
				stampFrom("device", 0, 60),
			},
			want: 0.5,
		},
		{
			name: "two of three distinct",
			stamps: []LocationStamp{
				stampFrom("device", 0, 60),
				stampFrom("device", 0, 60),
				stampFrom("wifi", 0, 60),
			},
			want: 2.0 / 3.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, independence(tc.stamps), 1e-9)
		})
	}
}

func TestCorrelateNeutralBelowTwoValidStamps(t *testing.T) {
	stamps := []LocationStamp{
		stampFrom("device", 0, 60),
		stampFrom("wifi", 0, 60),
	}
	results := []StampResult{validResult(0.9), invalidResult()}

	// The invalid wifi stamp must not earn an independence score; the whole
	// correlation stays neutral.
	c := correlate(stamps, results)

	assert.InDelta(t, 0.5, c.Independence, 1e-9)
	assert.InDelta(t, 0.5, c.Agreement, 1e-9)
	assert.NotEmpty(t, c.Notes)
}

func TestCorrelateIgnoresInvalidStamps(t *testing.T) {
	// Two valid stamps from distinct sources plus an invalid third from a
	// repeated source: independence and agreement derive from the valid
	// pair only.
	stamps := []LocationStamp{
		stampFrom("device", 100, 200),
		stampFrom("wifi", 100, 200),
		stampFrom("device", 0, 10),
	}
	results := []StampResult{validResult(0.8), validResult(0.8), invalidResult()}

	c := correlate(stamps, results)

	assert.InDelta(t, 1.0, c.Independence, 1e-9)
	assert.InDelta(t, 1.0, c.Agreement, 1e-9)
	assert.Empty(t, c.Notes)
}

func TestCorrelateAgreement(t *testing.T) {
	t.Run("identical scores and footprints agree fully", func(t *testing.T) {
		stamps := []LocationStamp{
			stampFrom("device", 100, 200),
			stampFrom("wifi", 100, 200),
		}
		results := []StampResult{validResult(0.8), validResult(0.8)}

		c := correlate(stamps, results)
		assert.InDelta(t, 1.0, c.Agreement, 1e-9)
	})

	t.Run("divergent scores pull agreement down", func(t *testing.T) {
		stamps := []LocationStamp{
			stampFrom("device", 100, 200),
			stampFrom("wifi", 100, 200),
		}
		results := []StampResult{validResult(0.9), validResult(0.1)}

		// variance 0.16, score term 1-0.64 = 0.36, overlap 1.0.
		c := correlate(stamps, results)
		assert.InDelta(t, 0.6*0.36+0.4, c.Agreement, 1e-9)
	})

	t.Run("disjoint footprints zero the temporal term", func(t *testing.T) {
		stamps := []LocationStamp{
			stampFrom("device", 0, 100),
			stampFrom("wifi", 200, 300),
		}
		results := []StampResult{validResult(0.8), validResult(0.8)}

		c := correlate(stamps, results)
		assert.InDelta(t, 0.6, c.Agreement, 1e-9)
	})
}

func TestTemporalOverlapRatio(t *testing.T) {
	tests := []struct {
		name   string
		stamps []LocationStamp
		want   float64
	}{
		{
			name: "partial overlap",
			stamps: []LocationStamp{
				stampFrom("a", 0, 60),
				stampFrom("b", -120, 60),
			},
			// intersection 60 of union 180.
			want: 1.0 / 3.0,
		},
		{
			name: "full containment of an identical window",
			stamps: []LocationStamp{
				stampFrom("a", 0, 60),
				stampFrom("b", 0, 60),
			},
			want: 1,
		},
		{
			name: "disjoint windows",
			stamps: []LocationStamp{
				stampFrom("a", 0, 60),
				stampFrom("b", 3600, 3660),
			},
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, temporalOverlapRatio(tc.stamps), 1e-9)
		})
	}
}

func TestVariance(t *testing.T) {
	assert.InDelta(t, 0, variance([]float64{0.7, 0.7, 0.7}), 1e-9)
	assert.InDelta(t, 0.25, variance([]float64{0, 1}), 1e-9)
	assert.InDelta(t, 0, variance(nil), 1e-9)
}
