package resolver

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
)

// SigningMethodES256K implements ES256K (secp256k1 with SHA-256) for compact
// JWS documents.
type SigningMethodES256K struct{}

// ES256K is the signing method instance.
var ES256K = &SigningMethodES256K{}

func init() {
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod { return ES256K })
}

// Alg returns the algorithm name.
func (m *SigningMethodES256K) Alg() string {
	return "ES256K"
}

// Sign signs the signing string with a secp256k1 private key.
func (m *SigningMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("ES256K sign expects *ecdsa.PrivateKey, got %T", key)
	}

	hash := sha256.Sum256([]byte(signingString))
	sig, err := gethcrypto.Sign(hash[:], priv)
	if err != nil {
		return nil, fmt.Errorf("ES256K signing failed: %w", err)
	}

	// R and S only; the recovery id is not part of the JWS signature.
	return sig[:64], nil
}

// Verify checks an ES256K signature against a secp256k1 public key.
func (m *SigningMethodES256K) Verify(signingString string, sig []byte, key interface{}) error {
	pub, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("ES256K verify expects *ecdsa.PublicKey, got %T", key)
	}
	if len(sig) != 64 {
		return fmt.Errorf("invalid ES256K signature length %d", len(sig))
	}

	hash := sha256.Sum256([]byte(signingString))
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	if !ecdsa.Verify(pub, hash[:], r, s) {
		return fmt.Errorf("ES256K signature verification failed")
	}
	return nil
}
