package attestation

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericPayloadRoundTrip(t *testing.T) {
	payload := NumericPayload{
		Result:    big.NewInt(413000012), // 4,130,000.12 m in centimeters
		Units:     "centimeters",
		InputRefs: []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
		Timestamp: 1723400000,
		Operation: "distance",
	}

	encoded, err := payload.Encode()
	require.NoError(t, err)

	decoded, err := DecodeNumericPayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestBooleanPayloadRoundTrip(t *testing.T) {
	payload := BooleanPayload{
		Result:    true,
		InputRefs: []common.Hash{common.HexToHash("0xaa")},
		Timestamp: 1723400000,
		Operation: "within:100",
	}

	encoded, err := payload.Encode()
	require.NoError(t, err)

	decoded, err := DecodeBooleanPayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestCredibilityPayloadRoundTrip(t *testing.T) {
	payload := CredibilityPayload{
		ClaimHash:   common.HexToHash("0x1234"),
		ProofHash:   common.HexToHash("0x5678"),
		Confidence:  85,
		EvidenceURI: "https://evidence.example/proof/1",
	}

	encoded, err := payload.Encode()
	require.NoError(t, err)

	decoded, err := DecodeCredibilityPayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestNumericPayloadRequiresResult(t *testing.T) {
	_, err := NumericPayload{Units: "centimeters"}.Encode()
	assert.Error(t, err)
}

func TestSchemaUIDStable(t *testing.T) {
	assert.Equal(t, SchemaUID(NumericSchema), SchemaUID(NumericSchema))
	assert.NotEqual(t, SchemaUID(NumericSchema), SchemaUID(BooleanSchema))
}
