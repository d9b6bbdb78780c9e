package crypto

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func TestKeyToBytes(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantLen int
		wantErr bool
	}{
		{name: "prefixed hex key", key: testKeyHex, wantLen: 32},
		{name: "missing prefix", key: testKeyHex[2:], wantErr: true},
		{name: "non hex payload", key: "0xzz", wantErr: true},
		{name: "empty string", key: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := KeyToBytes(tc.key)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, raw, tc.wantLen)
		})
	}
}

func TestParsePrivateKey(t *testing.T) {
	raw, err := KeyToBytes(testKeyHex)
	require.NoError(t, err)

	priv, err := ParsePrivateKey(raw)
	require.NoError(t, err)
	assert.True(t, OnCurve(&priv.PublicKey))

	_, err = ParsePrivateKey(raw[:16])
	assert.Error(t, err)

	_, err = ParsePrivateKey(nil)
	assert.Error(t, err)
}

func TestParsePrivateKeyHex(t *testing.T) {
	withPrefix, err := ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)

	withoutPrefix, err := ParsePrivateKeyHex(testKeyHex[2:])
	require.NoError(t, err)

	// Both forms load the same key.
	assert.Equal(t, gethcrypto.PubkeyToAddress(withPrefix.PublicKey), gethcrypto.PubkeyToAddress(withoutPrefix.PublicKey))

	_, err = ParsePrivateKeyHex("0x1234")
	assert.Error(t, err)
}

func TestSignAndRecover(t *testing.T) {
	priv, err := ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)

	digest := gethcrypto.Keccak256([]byte("payload"))
	sig, err := SignDigest(digest, priv)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, gethcrypto.PubkeyToAddress(priv.PublicKey), recovered)

	_, err = SignDigest([]byte("short"), priv)
	assert.Error(t, err)

	_, err = RecoverAddress(digest, sig[:64])
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	priv, err := ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)
	pub := CompressedPublicKey(priv)

	digest := gethcrypto.Keccak256([]byte("payload"))
	sig, err := SignDigest(digest, priv)
	require.NoError(t, err)

	assert.True(t, VerifySignature(pub, digest, sig))
	assert.True(t, VerifySignature(pub, digest, sig[:64]))

	tampered := gethcrypto.Keccak256([]byte("other payload"))
	assert.False(t, VerifySignature(pub, tampered, sig))

	other, err := gethcrypto.GenerateKey()
	require.NoError(t, err)
	assert.False(t, VerifySignature(CompressedPublicKey(other), digest, sig))

	assert.False(t, VerifySignature(pub[:32], digest, sig))
	assert.False(t, VerifySignature(pub, digest, sig[:10]))
}

func TestOnCurve(t *testing.T) {
	priv, err := ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)
	assert.True(t, OnCurve(&priv.PublicKey))

	offCurve := ecdsa.PublicKey{
		Curve: priv.PublicKey.Curve,
		X:     new(big.Int).Add(priv.PublicKey.X, big.NewInt(1)),
		Y:     priv.PublicKey.Y,
	}
	assert.False(t, OnCurve(&offCurve))

	assert.False(t, OnCurve(nil))
	assert.False(t, OnCurve(&ecdsa.PublicKey{}))
}
