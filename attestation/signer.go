package attestation

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
	commoncrypto "github.com/owizdom/astral-location-services-sub000/common/crypto"
	"github.com/owizdom/astral-location-services-sub000/registry"
)

const (
	defaultDomainName    = "EAS Attestation"
	defaultDomainVersion = "1.2.0"
	defaultDeadline      = time.Hour
)

// SignerConfig configures a SigningContext.
type SignerConfig struct {
	// PrivateKey is the issuer key in hex, with or without the 0x prefix.
	PrivateKey string
	// Contracts maps each supported chain id to its issuer contract address.
	Contracts map[uint64]common.Address
	// DomainName and DomainVersion identify the EIP-712 signing domain.
	// Defaults match the EAS registry contracts.
	DomainName    string
	DomainVersion string
	// DeadlineWindow is how far in the future issued deadlines lie.
	// Defaults to one hour; the signer always issues future deadlines.
	DeadlineWindow time.Duration
}

// SigningContext owns the issuer key and the nonce serialization point.
// Concurrent Sign calls serialize nonce acquisition; the registry's on-chain
// nonce remains the authoritative source of truth, with a local high-water
// mark as an optimization between submissions.
type SigningContext struct {
	priv          *ecdsa.PrivateKey
	addr          common.Address
	reg           registry.Registry
	contracts     map[uint64]common.Address
	domainName    string
	domainVersion string
	window        time.Duration
	now           func() time.Time

	nonceMu    sync.Mutex
	nextNonces map[uint64]*big.Int
}

// NewSigningContext loads the key material and returns a ready signer.
// It fails with a signer-not-ready error when the key is absent or
// malformed, so service health checks can gate on construction.
func NewSigningContext(cfg SignerConfig, reg registry.Registry) (*SigningContext, error) {
	if cfg.PrivateKey == "" {
		return nil, apperr.New(apperr.CodeSignerNotReady, "no private key configured")
	}
	priv, err := commoncrypto.ParsePrivateKeyHex(cfg.PrivateKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeSignerNotReady, err, "failed to load key material")
	}
	if len(cfg.Contracts) == 0 {
		return nil, apperr.New(apperr.CodeUnsupportedChain, "no issuer contracts configured")
	}

	name := cfg.DomainName
	if name == "" {
		name = defaultDomainName
	}
	version := cfg.DomainVersion
	if version == "" {
		version = defaultDomainVersion
	}
	window := cfg.DeadlineWindow
	if window <= 0 {
		window = defaultDeadline
	}

	return &SigningContext{
		priv:          priv,
		addr:          gethcrypto.PubkeyToAddress(priv.PublicKey),
		reg:           reg,
		contracts:     cfg.Contracts,
		domainName:    name,
		domainVersion: version,
		window:        window,
		now:           time.Now,
		nextNonces:    make(map[uint64]*big.Int),
	}, nil
}

// Address returns the issuer address.
func (s *SigningContext) Address() common.Address {
	return s.addr
}

// Sign builds and signs the delegated issuance message over encodedData for
// the given schema and recipient. It returns both views of the same
// signature: the attestation view for off-chain verification and the
// delegation view for third-party on-chain submission.
//
// For fixed (data, schema, recipient, nonce, deadline) the signature is
// deterministic.
func (s *SigningContext) Sign(ctx context.Context, encodedData []byte, schemaUID common.Hash, recipient common.Address, chainID uint64) (Attestation, Delegation, error) {
	if s == nil || s.priv == nil {
		return Attestation{}, Delegation{}, apperr.New(apperr.CodeSignerNotReady, "signing context has no key material")
	}
	contract, ok := s.contracts[chainID]
	if !ok {
		return Attestation{}, Delegation{}, apperr.New(apperr.CodeUnsupportedChain, "no issuer contract configured for chain %d", chainID)
	}

	nonce, err := s.acquireNonce(ctx, chainID)
	if err != nil {
		return Attestation{}, Delegation{}, err
	}
	deadline := uint64(s.now().Add(s.window).Unix())

	digest, err := s.digest(encodedData, schemaUID, recipient, chainID, contract, nonce, deadline)
	if err != nil {
		return Attestation{}, Delegation{}, err
	}

	sig, err := commoncrypto.SignDigest(digest, s.priv)
	if err != nil {
		return Attestation{}, Delegation{}, apperr.Wrap(apperr.CodeSignerNotReady, err, "failed to sign issuance message")
	}
	// Shift the recovery id to the 27/28 convention the registry expects.
	sig[64] += 27

	att := Attestation{
		SchemaUID: schemaUID,
		Signer:    s.addr,
		Recipient: recipient,
		ChainID:   chainID,
		Data:      hexutil.Bytes(encodedData),
		Nonce:     nonce,
		Deadline:  deadline,
		Signature: hexutil.Bytes(sig),
	}
	del := Delegation{
		Signature: hexutil.Bytes(sig),
		Attester:  s.addr,
		Deadline:  deadline,
		Nonce:     nonce,
	}
	return att, del, nil
}

// Verify recomputes the issuance digest from the attestation fields and
// checks that the signature recovers to the attested signer.
func (s *SigningContext) Verify(att Attestation) error {
	contract, ok := s.contracts[att.ChainID]
	if !ok {
		return apperr.New(apperr.CodeUnsupportedChain, "no issuer contract configured for chain %d", att.ChainID)
	}

	digest, err := s.digest(att.Data, att.SchemaUID, att.Recipient, att.ChainID, contract, att.Nonce, att.Deadline)
	if err != nil {
		return err
	}

	sig := make([]byte, len(att.Signature))
	copy(sig, att.Signature)
	if len(sig) == 65 && sig[64] >= 27 {
		sig[64] -= 27
	}

	recovered, err := commoncrypto.RecoverAddress(digest, sig)
	if err != nil {
		return apperr.Wrap(apperr.CodeVerificationFailed, err, "failed to recover signer")
	}
	if recovered != att.Signer {
		return apperr.New(apperr.CodeVerificationFailed, "signature recovers to %s, expected %s", recovered.Hex(), att.Signer.Hex())
	}
	return nil
}

// acquireNonce serializes nonce acquisition across concurrent signs. The
// registry nonce is authoritative; the local high-water mark only advances
// past it between on-chain submissions.
func (s *SigningContext) acquireNonce(ctx context.Context, chainID uint64) (*big.Int, error) {
	s.nonceMu.Lock()
	defer s.nonceMu.Unlock()

	onchain, err := s.reg.GetNonce(ctx, s.addr, chainID)
	if err != nil {
		return nil, err
	}

	next := new(big.Int).Set(onchain)
	if local, ok := s.nextNonces[chainID]; ok && local.Cmp(next) > 0 {
		next.Set(local)
	}
	s.nextNonces[chainID] = new(big.Int).Add(next, big.NewInt(1))
	return next, nil
}

// digest computes the EIP-712 structured hash of the issuance message. The
// domain binds the chain id and issuer contract, preventing cross-chain and
// cross-contract replay.
func (s *SigningContext) digest(encodedData []byte, schemaUID common.Hash, recipient common.Address, chainID uint64, contract common.Address, nonce *big.Int, deadline uint64) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Attest": []apitypes.Type{
				{Name: "schema", Type: "bytes32"},
				{Name: "recipient", Type: "address"},
				{Name: "expirationTime", Type: "uint64"},
				{Name: "revocable", Type: "bool"},
				{Name: "refUID", Type: "bytes32"},
				{Name: "data", Type: "bytes"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint64"},
			},
		},
		PrimaryType: "Attest",
		Domain: apitypes.TypedDataDomain{
			Name:              s.domainName,
			Version:           s.domainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: contract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"schema":         schemaUID.Hex(),
			"recipient":      recipient.Hex(),
			"expirationTime": (*math.HexOrDecimal256)(big.NewInt(0)),
			"revocable":      true,
			"refUID":         common.Hash{}.Hex(),
			"data":           hexutil.Encode(encodedData),
			"value":          (*math.HexOrDecimal256)(big.NewInt(0)),
			"nonce":          (*math.HexOrDecimal256)(nonce),
			"deadline":       (*math.HexOrDecimal256)(new(big.Int).SetUint64(deadline)),
		},
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeSignerNotReady, err, "failed to hash issuance message")
	}
	return digest, nil
}
