package attestation

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Schema definition strings. Their Keccak-256 digest is the schema UID.
const (
	NumericSchema     = "uint256 result,string units,bytes32[] inputRefs,uint256 timestamp,string operation"
	BooleanSchema     = "bool result,bytes32[] inputRefs,uint256 timestamp,string operation"
	CredibilitySchema = "bytes32 claimHash,bytes32 proofHash,uint8 confidence,string evidenceURI"
)

// SchemaUID derives the 32-byte schema identifier from its definition.
func SchemaUID(definition string) common.Hash {
	return crypto.Keccak256Hash([]byte(definition))
}

// NumericPayload is the data of a numeric attestation. Result is the scaled
// integer measurement (centimeters or square centimeters); Operation may
// embed operation parameters such as a radius.
type NumericPayload struct {
	Result    *big.Int
	Units     string
	InputRefs []common.Hash
	Timestamp uint64
	Operation string
}

// BooleanPayload is the data of a boolean attestation.
type BooleanPayload struct {
	Result    bool
	InputRefs []common.Hash
	Timestamp uint64
	Operation string
}

// CredibilityPayload is the data of a credibility attestation. Confidence is
// the heuristic score scaled to 0-100.
type CredibilityPayload struct {
	ClaimHash   common.Hash
	ProofHash   common.Hash
	Confidence  uint8
	EvidenceURI string
}

var (
	numericArgs = abi.Arguments{
		{Name: "result", Type: mustType("uint256")},
		{Name: "units", Type: mustType("string")},
		{Name: "inputRefs", Type: mustType("bytes32[]")},
		{Name: "timestamp", Type: mustType("uint256")},
		{Name: "operation", Type: mustType("string")},
	}
	booleanArgs = abi.Arguments{
		{Name: "result", Type: mustType("bool")},
		{Name: "inputRefs", Type: mustType("bytes32[]")},
		{Name: "timestamp", Type: mustType("uint256")},
		{Name: "operation", Type: mustType("string")},
	}
	credibilityArgs = abi.Arguments{
		{Name: "claimHash", Type: mustType("bytes32")},
		{Name: "proofHash", Type: mustType("bytes32")},
		{Name: "confidence", Type: mustType("uint8")},
		{Name: "evidenceURI", Type: mustType("string")},
	}
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("bad abi type %q: %v", t, err))
	}
	return typ
}

// Encode packs the payload into the binary layout a verifier expects.
func (p NumericPayload) Encode() ([]byte, error) {
	if p.Result == nil {
		return nil, fmt.Errorf("numeric payload has no result")
	}
	packed, err := numericArgs.Pack(p.Result, p.Units, hashesToWords(p.InputRefs), new(big.Int).SetUint64(p.Timestamp), p.Operation)
	if err != nil {
		return nil, fmt.Errorf("failed to encode numeric payload: %w", err)
	}
	return packed, nil
}

// DecodeNumericPayload reverses Encode.
func DecodeNumericPayload(data []byte) (NumericPayload, error) {
	values, err := numericArgs.Unpack(data)
	if err != nil {
		return NumericPayload{}, fmt.Errorf("failed to decode numeric payload: %w", err)
	}
	return NumericPayload{
		Result:    values[0].(*big.Int),
		Units:     values[1].(string),
		InputRefs: wordsToHashes(values[2].([][32]byte)),
		Timestamp: values[3].(*big.Int).Uint64(),
		Operation: values[4].(string),
	}, nil
}

// Encode packs the payload into the binary layout a verifier expects.
func (p BooleanPayload) Encode() ([]byte, error) {
	packed, err := booleanArgs.Pack(p.Result, hashesToWords(p.InputRefs), new(big.Int).SetUint64(p.Timestamp), p.Operation)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boolean payload: %w", err)
	}
	return packed, nil
}

// DecodeBooleanPayload reverses Encode.
func DecodeBooleanPayload(data []byte) (BooleanPayload, error) {
	values, err := booleanArgs.Unpack(data)
	if err != nil {
		return BooleanPayload{}, fmt.Errorf("failed to decode boolean payload: %w", err)
	}
	return BooleanPayload{
		Result:    values[0].(bool),
		InputRefs: wordsToHashes(values[1].([][32]byte)),
		Timestamp: values[2].(*big.Int).Uint64(),
		Operation: values[3].(string),
	}, nil
}

// Encode packs the payload into the binary layout a verifier expects.
func (p CredibilityPayload) Encode() ([]byte, error) {
	packed, err := credibilityArgs.Pack([32]byte(p.ClaimHash), [32]byte(p.ProofHash), p.Confidence, p.EvidenceURI)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credibility payload: %w", err)
	}
	return packed, nil
}

// DecodeCredibilityPayload reverses Encode.
func DecodeCredibilityPayload(data []byte) (CredibilityPayload, error) {
	values, err := credibilityArgs.Unpack(data)
	if err != nil {
		return CredibilityPayload{}, fmt.Errorf("failed to decode credibility payload: %w", err)
	}
	return CredibilityPayload{
		ClaimHash:   common.Hash(values[0].([32]byte)),
		ProofHash:   common.Hash(values[1].([32]byte)),
		Confidence:  values[2].(uint8),
		EvidenceURI: values[3].(string),
	}, nil
}

func hashesToWords(hashes []common.Hash) [][32]byte {
	words := make([][32]byte, len(hashes))
	for i, h := range hashes {
		words[i] = h
	}
	return words
}

func wordsToHashes(words [][32]byte) []common.Hash {
	hashes := make([]common.Hash, len(words))
	for i, w := range words {
		hashes[i] = w
	}
	return hashes
}
