// Package verification evaluates the credibility of location claims against
// independent evidence packages and issues signed credibility attestations.
//
// The confidence value produced here is a bounded heuristic in [0, 1], not a
// calibrated probability; callers must not treat it as one.
package verification

import (
	"github.com/owizdom/astral-location-services-sub000/geometry"
)

// LocationClaim is the assertion under evaluation: who or what was where,
// when, within what radius.
type LocationClaim struct {
	Location     geometry.Geometry `json:"location"`
	RadiusMeters float64           `json:"radius"`
	TimeStart    int64             `json:"timeStart"`
	TimeEnd      int64             `json:"timeEnd"`
	Subject      string            `json:"subject"`
	EventType    string            `json:"eventType,omitempty"`
}

// StampSignature is one signature carried by a stamp.
type StampSignature struct {
	Signer    string `json:"signer"`
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// LocationStamp is one piece of evidence from one named evidence source.
// Stamps never reference a specific claim; claim support is computed at
// verification time.
type LocationStamp struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Location        geometry.Geometry      `json:"location"`
	SRS             string                 `json:"srs"`
	TimeStart       int64                  `json:"timeStart"`
	TimeEnd         int64                  `json:"timeEnd"`
	PluginName      string                 `json:"pluginName"`
	PluginVersion   string                 `json:"pluginVersion"`
	Signals         map[string]interface{} `json:"signals,omitempty"`
	Signatures      []StampSignature       `json:"signatures"`
}

// LocationProof bundles a claim with the evidence submitted for it.
// Verification is stateless: a proof is constructed, submitted once, and
// verified once.
type LocationProof struct {
	Claim  LocationClaim   `json:"claim"`
	Stamps []LocationStamp `json:"stamps"`
}

// VerifyResult reports a stamp's internal validity as seen by its plugin.
type VerifyResult struct {
	Valid             bool                   `json:"valid"`
	SignaturesValid   bool                   `json:"signaturesValid"`
	StructureValid    bool                   `json:"structureValid"`
	SignalsConsistent bool                   `json:"signalsConsistent"`
	Detail            map[string]interface{} `json:"detail,omitempty"`
}

// AssessResult reports how well a stamp supports a claim.
type AssessResult struct {
	SupportsClaim bool                   `json:"supportsClaim"`
	Score         float64                `json:"score"`
	Detail        map[string]interface{} `json:"detail,omitempty"`
}

// StampResult combines the verification and assessment of one stamp.
type StampResult struct {
	Plugin string       `json:"plugin"`
	Verify VerifyResult `json:"verify"`
	Assess AssessResult `json:"assess"`
}

// CorrelationAssessment scores source independence and inter-stamp
// agreement. Present only when a proof carries at least two stamps.
type CorrelationAssessment struct {
	Independence float64 `json:"independence"`
	Agreement    float64 `json:"agreement"`
	Notes        string  `json:"notes,omitempty"`
}

// CredibilityAssessment is the terminal output of the verify path.
// Confidence is a heuristic in [0, 1].
type CredibilityAssessment struct {
	Confidence   float64                `json:"confidence"`
	StampResults []StampResult          `json:"stampResults"`
	Correlation  *CorrelationAssessment `json:"correlation,omitempty"`
}
