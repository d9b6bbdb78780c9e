// Package crypto wraps the secp256k1 operations used by the attestation
// engine: digest signing, signer recovery, and signature checks against
// compressed public keys.
package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const privateKeySize = 32

// KeyToBytes converts a 0x-prefixed hex string to raw key bytes.
func KeyToBytes(key string) ([]byte, error) {
	if !strings.HasPrefix(key, "0x") {
		return nil, errors.New("key is not in 0x hex format")
	}
	return hex.DecodeString(key[2:])
}

// ParsePrivateKey parses a 32-byte secp256k1 private key.
func ParsePrivateKey(raw []byte) (*ecdsa.PrivateKey, error) {
	if len(raw) != privateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", privateKeySize, len(raw))
	}
	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return priv, nil
}

// ParsePrivateKeyHex parses a private key from hex, with or without the 0x
// prefix.
func ParsePrivateKeyHex(keyHex string) (*ecdsa.PrivateKey, error) {
	if !strings.HasPrefix(keyHex, "0x") {
		keyHex = "0x" + keyHex
	}
	raw, err := KeyToBytes(keyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key hex: %w", err)
	}
	return ParsePrivateKey(raw)
}

// SignDigest signs a 32-byte digest, returning a 65-byte [R || S || V]
// signature.
func SignDigest(digest []byte, priv *ecdsa.PrivateKey) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	sig, err := crypto.Sign(digest, priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(sig))
	}
	return sig, nil
}

// RecoverAddress recovers the signer address from a 65-byte signature over
// the given digest.
func RecoverAddress(digest, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(signature))
	}
	pub, err := crypto.SigToPub(digest, signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature checks a 65-byte signature over digest against a 33-byte
// compressed public key by recovering the signer and comparing compressed
// forms. A 64-byte [R || S] signature is checked without recovery.
func VerifySignature(compressedPub, digest, signature []byte) bool {
	if len(compressedPub) != 33 || len(digest) != 32 {
		return false
	}

	if len(signature) == 64 {
		return crypto.VerifySignature(compressedPub, digest, signature)
	}
	if len(signature) != 65 {
		return false
	}

	recovered, err := crypto.Ecrecover(digest, signature)
	if err != nil {
		return false
	}
	pub, err := crypto.UnmarshalPubkey(recovered)
	if err != nil {
		return false
	}
	return bytes.Equal(crypto.CompressPubkey(pub), compressedPub)
}

// CompressedPublicKey returns the 33-byte compressed public key of priv.
func CompressedPublicKey(priv *ecdsa.PrivateKey) []byte {
	return crypto.CompressPubkey(&priv.PublicKey)
}

// OnCurve reports whether the point (x, y) of pub lies on the secp256k1
// curve.
func OnCurve(pub *ecdsa.PublicKey) bool {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return false
	}
	return btcec.S256().IsOnCurve(pub.X, pub.Y)
}
