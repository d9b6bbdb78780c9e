package device

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decredecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owizdom/astral-location-services-sub000/common/canonical"
	commoncrypto "github.com/owizdom/astral-location-services-sub000/common/crypto"
	"github.com/owizdom/astral-location-services-sub000/geometry"
	"github.com/owizdom/astral-location-services-sub000/verification"
)

func pointGeometry(t *testing.T, lon, lat float64) geometry.Geometry {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"type":        "Point",
		"coordinates": []float64{lon, lat},
	})
	require.NoError(t, err)

	g, err := geometry.Parse(raw)
	require.NoError(t, err)
	return g
}

func baseStamp(t *testing.T) verification.LocationStamp {
	return verification.LocationStamp{
		ProtocolVersion: "1.0",
		Location:        pointGeometry(t, -0.1276, 51.5072),
		SRS:             "EPSG:4326",
		TimeStart:       1723400000,
		TimeEnd:         1723400600,
		PluginName:      "device",
		PluginVersion:   "1.0.0",
		Signatures: []verification.StampSignature{
			{
				Signer:    "device:gnss-unit-7",
				Algorithm: "ES256K",
				Value:     "0x" + stringOf('a', 130),
			},
		},
	}
}

func stringOf(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

func TestVerify(t *testing.T) {
	plugin, err := New()
	require.NoError(t, err)

	tests := []struct {
		name              string
		mutate            func(t *testing.T, s *verification.LocationStamp)
		wantValid         bool
		wantStructure     bool
		wantSignatures    bool
		wantSignalsNormal bool
	}{
		{
			name:              "well formed stamp passes",
			mutate:            func(*testing.T, *verification.LocationStamp) {},
			wantValid:         true,
			wantStructure:     true,
			wantSignatures:    true,
			wantSignalsNormal: true,
		},
		{
			name: "missing protocol version fails structure",
			mutate: func(_ *testing.T, s *verification.LocationStamp) {
				s.ProtocolVersion = ""
			},
			wantValid:         false,
			wantStructure:     false,
			wantSignatures:    true,
			wantSignalsNormal: true,
		},
		{
			name: "inverted temporal footprint fails structure",
			mutate: func(_ *testing.T, s *verification.LocationStamp) {
				s.TimeStart = s.TimeEnd + 1
			},
			wantValid:         false,
			wantStructure:     false,
			wantSignatures:    true,
			wantSignalsNormal: true,
		},
		{
			name: "no signatures fails structure",
			mutate: func(_ *testing.T, s *verification.LocationStamp) {
				s.Signatures = nil
			},
			wantValid:         false,
			wantStructure:     false,
			wantSignatures:    false,
			wantSignalsNormal: true,
		},
		{
			name: "non hex signature value fails",
			mutate: func(_ *testing.T, s *verification.LocationStamp) {
				s.Signatures[0].Value = "0xnothex"
			},
			wantValid:         false,
			wantStructure:     true,
			wantSignatures:    false,
			wantSignalsNormal: true,
		},
		{
			name: "der encoded signature is accepted",
			mutate: func(t *testing.T, s *verification.LocationStamp) {
				priv, err := secp256k1.GeneratePrivateKey()
				require.NoError(t, err)
				sig := decredecdsa.Sign(priv, make([]byte, 32))
				s.Signatures[0].Value = hexutil.Encode(sig.Serialize())
			},
			wantValid:         true,
			wantStructure:     true,
			wantSignatures:    true,
			wantSignalsNormal: true,
		},
		{
			name: "negative accuracy flags signals without invalidating",
			mutate: func(_ *testing.T, s *verification.LocationStamp) {
				s.Signals = map[string]interface{}{"accuracy": -4.0}
			},
			wantValid:         true,
			wantStructure:     true,
			wantSignatures:    true,
			wantSignalsNormal: false,
		},
		{
			name: "capture time outside footprint flags signals",
			mutate: func(_ *testing.T, s *verification.LocationStamp) {
				s.Signals = map[string]interface{}{"capturedAt": float64(s.TimeEnd + 3600)}
			},
			wantValid:         true,
			wantStructure:     true,
			wantSignatures:    true,
			wantSignalsNormal: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stamp := baseStamp(t)
			tc.mutate(t, &stamp)

			result, err := plugin.Verify(context.Background(), stamp)
			require.NoError(t, err)

			assert.Equal(t, tc.wantValid, result.Valid)
			assert.Equal(t, tc.wantStructure, result.StructureValid)
			assert.Equal(t, tc.wantSignatures, result.SignaturesValid)
			assert.Equal(t, tc.wantSignalsNormal, result.SignalsConsistent)
		})
	}
}

func TestVerifyRecoversAgainstEmbeddedKey(t *testing.T) {
	plugin, err := New()
	require.NoError(t, err)

	priv, err := gethcrypto.GenerateKey()
	require.NoError(t, err)

	stamp := baseStamp(t)
	stamp.Signatures = nil

	digest, err := canonical.HashObject(stamp)
	require.NoError(t, err)

	sig, err := commoncrypto.SignDigest(digest.Bytes(), priv)
	require.NoError(t, err)

	stamp.Signatures = []verification.StampSignature{{
		Signer:    hexutil.Encode(commoncrypto.CompressedPublicKey(priv)),
		Algorithm: "ES256K",
		Value:     hexutil.Encode(sig),
	}}

	result, err := plugin.Verify(context.Background(), stamp)
	require.NoError(t, err)
	assert.True(t, result.SignaturesValid)
	assert.True(t, result.Valid)

	// Tamper with the stamp after signing.
	stamp.TimeEnd += 60
	result, err = plugin.Verify(context.Background(), stamp)
	require.NoError(t, err)
	assert.False(t, result.SignaturesValid)
	assert.False(t, result.Valid)
}

func TestAssess(t *testing.T) {
	plugin, err := New()
	require.NoError(t, err)

	claim := verification.LocationClaim{
		Location:     pointGeometry(t, 0, 0),
		RadiusMeters: 200,
		TimeStart:    1723400000,
		TimeEnd:      1723400600,
		Subject:      "did:example:subject",
	}

	tests := []struct {
		name         string
		stamp        func(t *testing.T) verification.LocationStamp
		claim        func(t *testing.T) verification.LocationClaim
		wantScore    float64
		wantSupports bool
	}{
		{
			name: "same place and time scores full",
			stamp: func(t *testing.T) verification.LocationStamp {
				s := baseStamp(t)
				s.Location = pointGeometry(t, 0, 0)
				return s
			},
			claim:        func(*testing.T) verification.LocationClaim { return claim },
			wantScore:    1,
			wantSupports: true,
		},
		{
			name: "disjoint time keeps only the spatial weight",
			stamp: func(t *testing.T) verification.LocationStamp {
				s := baseStamp(t)
				s.Location = pointGeometry(t, 0, 0)
				s.TimeStart = claim.TimeEnd + 3600
				s.TimeEnd = claim.TimeEnd + 7200
				return s
			},
			claim:        func(*testing.T) verification.LocationClaim { return claim },
			wantScore:    0.6,
			wantSupports: true,
		},
		{
			name: "far away point scores only temporal weight",
			stamp: func(t *testing.T) verification.LocationStamp {
				s := baseStamp(t)
				s.Location = pointGeometry(t, 1, 0)
				return s
			},
			claim:        func(*testing.T) verification.LocationClaim { return claim },
			wantScore:    0.4,
			wantSupports: false,
		},
		{
			name: "point just outside the radius decays linearly",
			stamp: func(t *testing.T) verification.LocationStamp {
				s := baseStamp(t)
				// Roughly 111 meters east of the claim point.
				s.Location = pointGeometry(t, 0.001, 0)
				return s
			},
			claim: func(t *testing.T) verification.LocationClaim {
				c := claim
				c.RadiusMeters = 50
				return c
			},
			// temporal 1.0, spatial about 1 - (111.2-50)/100.
			wantScore:    0.4 + 0.6*0.388,
			wantSupports: true,
		},
		{
			name: "non point claim geometry gets neutral spatial score",
			stamp: func(t *testing.T) verification.LocationStamp {
				s := baseStamp(t)
				s.Location = pointGeometry(t, 0, 0)
				return s
			},
			claim: func(t *testing.T) verification.LocationClaim {
				c := claim
				raw := []byte(`{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[0,0]]]}`)
				g, err := geometry.Parse(raw)
				require.NoError(t, err)
				c.Location = g
				return c
			},
			wantScore:    0.4 + 0.6*0.5,
			wantSupports: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := plugin.Assess(context.Background(), tc.stamp(t), tc.claim(t))
			require.NoError(t, err)

			assert.InDelta(t, tc.wantScore, result.Score, 0.02)
			assert.Equal(t, tc.wantSupports, result.SupportsClaim)
		})
	}
}
