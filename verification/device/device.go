// Package device is the default evidence plugin for device-generated
// location stamps (GNSS fixes, sensor readings, and their signatures).
//
// LIMITATION: signature values are checked for well-formedness only. This
// plugin does not prove that a signature was produced by the claimed signer
// over the stamp's content, except opportunistically when the stamp's signer
// field is itself a compressed secp256k1 public key (in which case recovery
// is checked against the stamp content digest). Callers needing hard
// cryptographic attribution must not rely on this plugin alone.
package device

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/xeipuuv/gojsonschema"

	"github.com/owizdom/astral-location-services-sub000/common/canonical"
	commoncrypto "github.com/owizdom/astral-location-services-sub000/common/crypto"
	"github.com/owizdom/astral-location-services-sub000/geometry"
	"github.com/owizdom/astral-location-services-sub000/spatial"
	"github.com/owizdom/astral-location-services-sub000/verification"
)

const (
	pluginName    = "device"
	pluginVersion = "1.0.0"

	temporalWeight   = 0.4
	spatialWeight    = 0.6
	supportThreshold = 0.5

	// neutralSpatialScore is used for non-point geometries until a full
	// geometric overlap implementation is available.
	neutralSpatialScore = 0.5

	// decayCutoffFactor: spatial score decays linearly to zero at this
	// multiple of the claim radius.
	decayCutoffFactor = 3
)

// stampSchema is the structural contract a device stamp must satisfy.
const stampSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["protocolVersion", "location", "srs", "timeStart", "timeEnd", "pluginName", "pluginVersion", "signatures"],
  "properties": {
    "protocolVersion": {"type": "string", "minLength": 1},
    "location": {"type": "object"},
    "srs": {"type": "string", "minLength": 1},
    "timeStart": {"type": "integer"},
    "timeEnd": {"type": "integer"},
    "pluginName": {"type": "string", "minLength": 1},
    "pluginVersion": {"type": "string", "minLength": 1},
    "signatures": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["signer", "algorithm", "value"],
        "properties": {
          "signer": {"type": "string", "minLength": 1},
          "algorithm": {"type": "string", "minLength": 1},
          "value": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// Plugin implements verification.Plugin for device evidence.
type Plugin struct {
	schema *gojsonschema.Schema
	engine *spatial.Geodesic
}

// New builds the device plugin.
func New() (*Plugin, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(stampSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile stamp schema: %w", err)
	}
	return &Plugin{schema: schema, engine: spatial.NewGeodesic()}, nil
}

// Name implements verification.Plugin.
func (p *Plugin) Name() string { return pluginName }

// Version implements verification.Plugin.
func (p *Plugin) Version() string { return pluginVersion }

// Verify implements verification.Plugin.
func (p *Plugin) Verify(_ context.Context, stamp verification.LocationStamp) (verification.VerifyResult, error) {
	detail := make(map[string]interface{})

	structureValid := p.checkStructure(stamp, detail)
	signaturesValid := checkSignatures(stamp, detail)
	signalsConsistent := checkSignals(stamp, detail)

	return verification.VerifyResult{
		Valid:             structureValid && signaturesValid,
		StructureValid:    structureValid,
		SignaturesValid:   signaturesValid,
		SignalsConsistent: signalsConsistent,
		Detail:            detail,
	}, nil
}

func (p *Plugin) checkStructure(stamp verification.LocationStamp, detail map[string]interface{}) bool {
	doc, err := json.Marshal(stamp)
	if err != nil {
		detail["structure"] = fmt.Sprintf("stamp does not serialize: %v", err)
		return false
	}

	result, err := p.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		detail["structure"] = fmt.Sprintf("schema validation failed: %v", err)
		return false
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		detail["structure"] = issues
		return false
	}

	if stamp.TimeEnd < stamp.TimeStart {
		detail["structure"] = fmt.Sprintf("temporal footprint ends (%d) before it starts (%d)", stamp.TimeEnd, stamp.TimeStart)
		return false
	}
	if err := stamp.Location.Validate(); err != nil {
		detail["structure"] = err.Error()
		return false
	}
	return true
}

// checkSignatures requires every signature to carry a signer, an algorithm,
// and a syntactically valid signature value: a 64/65-byte compact form or
// DER. When the signer field is a compressed public key, the compact
// signature is additionally checked against the stamp content digest.
func checkSignatures(stamp verification.LocationStamp, detail map[string]interface{}) bool {
	if len(stamp.Signatures) == 0 {
		detail["signatures"] = "stamp carries no signatures"
		return false
	}

	for i, sig := range stamp.Signatures {
		if sig.Signer == "" || sig.Algorithm == "" || sig.Value == "" {
			detail["signatures"] = fmt.Sprintf("signature %d is missing signer, algorithm, or value", i)
			return false
		}

		raw, err := hexutil.Decode(sig.Value)
		if err != nil {
			detail["signatures"] = fmt.Sprintf("signature %d value is not hex: %v", i, err)
			return false
		}

		switch len(raw) {
		case 64, 65:
			if !recoverableAgainstSigner(stamp, sig, raw, detail, i) {
				return false
			}
		default:
			if _, err := ecdsa.ParseDERSignature(raw); err != nil {
				detail["signatures"] = fmt.Sprintf("signature %d is neither compact nor DER: %v", i, err)
				return false
			}
		}
	}
	return true
}

// recoverableAgainstSigner opportunistically verifies a compact signature
// when the signer field holds a compressed public key. Signers that are
// plain device identifiers pass on well-formedness alone.
func recoverableAgainstSigner(stamp verification.LocationStamp, sig verification.StampSignature, raw []byte, detail map[string]interface{}, index int) bool {
	pub, err := hexutil.Decode(sig.Signer)
	if err != nil || len(pub) != 33 {
		return true
	}

	digest, err := stampContentDigest(stamp)
	if err != nil {
		detail["signatures"] = fmt.Sprintf("failed to digest stamp content: %v", err)
		return false
	}
	if !commoncrypto.VerifySignature(pub, digest, raw) {
		detail["signatures"] = fmt.Sprintf("signature %d does not verify against its declared signer key", index)
		return false
	}
	return true
}

// stampContentDigest hashes the stamp with its signatures removed.
func stampContentDigest(stamp verification.LocationStamp) ([]byte, error) {
	content := stamp
	content.Signatures = nil
	digest, err := canonical.HashObject(content)
	if err != nil {
		return nil, err
	}
	return digest.Bytes(), nil
}

// checkSignals applies sanity checks to the plugin-specific evidence bag.
// Inconsistent signals discount the stamp's contribution downstream; they do
// not invalidate it.
func checkSignals(stamp verification.LocationStamp, detail map[string]interface{}) bool {
	if len(stamp.Signals) == 0 {
		return true
	}

	if accuracy, ok := numericSignal(stamp.Signals, "accuracy"); ok && accuracy < 0 {
		detail["signals"] = fmt.Sprintf("negative reported accuracy %v", accuracy)
		return false
	}
	if count, ok := numericSignal(stamp.Signals, "satelliteCount"); ok && count < 0 {
		detail["signals"] = fmt.Sprintf("negative satellite count %v", count)
		return false
	}
	if captured, ok := numericSignal(stamp.Signals, "capturedAt"); ok {
		at := int64(captured)
		if at < stamp.TimeStart || at > stamp.TimeEnd {
			detail["signals"] = fmt.Sprintf("capture time %d outside footprint [%d, %d]", at, stamp.TimeStart, stamp.TimeEnd)
			return false
		}
	}
	return true
}

func numericSignal(signals map[string]interface{}, key string) (float64, bool) {
	v, ok := signals[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Assess implements verification.Plugin: 0.4 temporal overlap plus
// 0.6 spatial overlap.
func (p *Plugin) Assess(ctx context.Context, stamp verification.LocationStamp, claim verification.LocationClaim) (verification.AssessResult, error) {
	temporal := temporalScore(stamp, claim)
	spatialScore, distance := p.spatialScore(ctx, stamp, claim)

	score := temporalWeight*temporal + spatialWeight*spatialScore
	detail := map[string]interface{}{
		"temporalScore": temporal,
		"spatialScore":  spatialScore,
	}
	if distance >= 0 {
		detail["distanceMeters"] = distance
	}

	return verification.AssessResult{
		SupportsClaim: score > supportThreshold,
		Score:         score,
		Detail:        detail,
	}, nil
}

// temporalScore is 1.0 when the stamp footprint fully contains the claim
// window, the overlap fraction of the claim duration otherwise, and 0 when
// disjoint.
func temporalScore(stamp verification.LocationStamp, claim verification.LocationClaim) float64 {
	if stamp.TimeStart <= claim.TimeStart && stamp.TimeEnd >= claim.TimeEnd {
		return 1
	}

	overlapStart := max64(stamp.TimeStart, claim.TimeStart)
	overlapEnd := min64(stamp.TimeEnd, claim.TimeEnd)
	if overlapEnd <= overlapStart {
		return 0
	}

	duration := claim.TimeEnd - claim.TimeStart
	if duration <= 0 {
		return 0
	}
	return float64(overlapEnd-overlapStart) / float64(duration)
}

// spatialScore is 1.0 inside the claim radius, decays linearly to 0 at three
// times the radius for point-versus-point comparisons, and falls back to a
// neutral score for non-point geometries. The second return value is the
// measured distance in meters, or -1 when no distance was computed.
func (p *Plugin) spatialScore(ctx context.Context, stamp verification.LocationStamp, claim verification.LocationClaim) (float64, float64) {
	if stamp.Location.Type != geometry.TypePoint || claim.Location.Type != geometry.TypePoint {
		return neutralSpatialScore, -1
	}

	distance, err := p.engine.Distance(ctx, stamp.Location, claim.Location)
	if err != nil {
		return neutralSpatialScore, -1
	}

	radius := claim.RadiusMeters
	if radius <= 0 {
		if distance == 0 {
			return 1, distance
		}
		return 0, distance
	}

	switch {
	case distance <= radius:
		return 1, distance
	case distance >= decayCutoffFactor*radius:
		return 0, distance
	default:
		return 1 - (distance-radius)/((decayCutoffFactor-1)*radius), distance
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
