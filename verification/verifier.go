package verification

import (
	"context"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/owizdom/astral-location-services-sub000/attestation"
	"github.com/owizdom/astral-location-services-sub000/common/apperr"
	"github.com/owizdom/astral-location-services-sub000/common/canonical"
)

const defaultEvidenceBaseURI = "https://astral.global/api/proofs/"

// Request carries the attestation parameters of a proof check.
type Request struct {
	Recipient common.Address
	ChainID   uint64
}

// ProofCheckResult is the terminal output of the verify path: the assessment
// plus the signed credibility attestation over it.
type ProofCheckResult struct {
	Assessment  CredibilityAssessment
	ClaimHash   common.Hash
	ProofHash   common.Hash
	Attestation attestation.Attestation
	Delegation  attestation.Delegation
}

// Verifier orchestrates the verify path: plugin lookup, per-stamp
// verification and assessment, correlation, aggregation, and issuance.
type Verifier struct {
	plugins         *PluginRegistry
	signer          *attestation.SigningContext
	evidenceBaseURI string
}

// VerifierOpt configures a Verifier.
type VerifierOpt func(*Verifier)

// WithEvidenceBaseURI overrides the base URI recorded in credibility
// attestations.
func WithEvidenceBaseURI(base string) VerifierOpt {
	return func(v *Verifier) {
		v.evidenceBaseURI = base
	}
}

// NewVerifier creates the verification orchestrator.
func NewVerifier(plugins *PluginRegistry, signer *attestation.SigningContext, opts ...VerifierOpt) *Verifier {
	v := &Verifier{
		plugins:         plugins,
		signer:          signer,
		evidenceBaseURI: defaultEvidenceBaseURI,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// CheckStamp runs a single stamp through its declared plugin's internal
// validity checks.
func (v *Verifier) CheckStamp(ctx context.Context, stamp LocationStamp) (VerifyResult, error) {
	plugin, err := v.plugins.Get(stamp.PluginName)
	if err != nil {
		return VerifyResult{}, err
	}
	return plugin.Verify(ctx, stamp)
}

// CheckProof assesses a claim against its stamps and issues a signed
// credibility attestation. Stamps failing their checks lower the confidence;
// only a structurally invalid request is an error.
func (v *Verifier) CheckProof(ctx context.Context, proof LocationProof, req Request) (ProofCheckResult, error) {
	if err := validateProof(proof); err != nil {
		return ProofCheckResult{}, err
	}

	results, err := v.runStamps(ctx, proof)
	if err != nil {
		return ProofCheckResult{}, err
	}

	// Correlation and aggregation run only after every per-stamp result is
	// available.
	var correlation *CorrelationAssessment
	if len(proof.Stamps) >= 2 {
		c := correlate(proof.Stamps, results)
		correlation = &c
	}
	confidence := aggregate(results, correlation)

	assessment := CredibilityAssessment{
		Confidence:   confidence,
		StampResults: results,
		Correlation:  correlation,
	}

	claimHash, err := canonical.HashObject(proof.Claim)
	if err != nil {
		return ProofCheckResult{}, apperr.Wrap(apperr.CodeInvalidInput, err, "failed to hash claim")
	}
	proofHash, err := canonical.HashObject(proof)
	if err != nil {
		return ProofCheckResult{}, apperr.Wrap(apperr.CodeInvalidInput, err, "failed to hash proof")
	}

	payload := attestation.CredibilityPayload{
		ClaimHash:   claimHash,
		ProofHash:   proofHash,
		Confidence:  uint8(math.Round(confidence * 100)),
		EvidenceURI: v.evidenceBaseURI + proofHash.Hex(),
	}
	encoded, err := payload.Encode()
	if err != nil {
		return ProofCheckResult{}, err
	}

	att, del, err := v.signer.Sign(ctx, encoded, attestation.SchemaUID(attestation.CredibilitySchema), req.Recipient, req.ChainID)
	if err != nil {
		return ProofCheckResult{}, err
	}

	return ProofCheckResult{
		Assessment:  assessment,
		ClaimHash:   claimHash,
		ProofHash:   proofHash,
		Attestation: att,
		Delegation:  del,
	}, nil
}

// runStamps verifies and assesses every stamp concurrently, preserving stamp
// order in the results.
func (v *Verifier) runStamps(ctx context.Context, proof LocationProof) ([]StampResult, error) {
	results := make([]StampResult, len(proof.Stamps))
	g, groupCtx := errgroup.WithContext(ctx)
	for i, stamp := range proof.Stamps {
		g.Go(func() error {
			results[i] = v.runStamp(groupCtx, stamp, proof.Claim)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (v *Verifier) runStamp(ctx context.Context, stamp LocationStamp, claim LocationClaim) StampResult {
	result := StampResult{Plugin: stamp.PluginName}

	plugin, err := v.plugins.Get(stamp.PluginName)
	if err != nil {
		// An unknown evidence source makes the stamp invalid, not the
		// request.
		result.Verify = VerifyResult{
			Detail: map[string]interface{}{"error": err.Error()},
		}
		return result
	}

	verify, err := plugin.Verify(ctx, stamp)
	if err != nil {
		result.Verify = VerifyResult{
			Detail: map[string]interface{}{"error": err.Error()},
		}
		return result
	}
	result.Verify = verify

	assess, err := plugin.Assess(ctx, stamp, claim)
	if err != nil {
		result.Assess = AssessResult{
			Detail: map[string]interface{}{"error": err.Error()},
		}
		return result
	}
	result.Assess = assess
	return result
}

func validateProof(proof LocationProof) error {
	if len(proof.Stamps) == 0 {
		return apperr.New(apperr.CodeInvalidInput, "proof carries no stamps")
	}
	if proof.Claim.TimeEnd < proof.Claim.TimeStart {
		return apperr.New(apperr.CodeInvalidInput, "claim time window ends (%d) before it starts (%d)", proof.Claim.TimeEnd, proof.Claim.TimeStart)
	}
	if err := proof.Claim.Location.Validate(); err != nil {
		return err
	}
	return nil
}
