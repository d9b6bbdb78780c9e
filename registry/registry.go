// Package registry provides access to the external attestation ledger: record
// lookup for on-chain references and the authoritative signer nonce.
package registry

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Record is one ledger attestation record.
type Record struct {
	UID            common.Hash
	Schema         common.Hash
	Data           []byte
	Attester       common.Address
	Recipient      common.Address
	Time           uint64
	ExpirationTime uint64
	RevocationTime uint64
}

// Revoked reports whether the record has been revoked.
func (r Record) Revoked() bool {
	return r.RevocationTime != 0
}

// ExpiredAt reports whether the record is expired at the given unix time.
func (r Record) ExpiredAt(now uint64) bool {
	return r.ExpirationTime != 0 && r.ExpirationTime < now
}

// Registry is the ledger boundary consumed by the resolver and the signer.
// Implementations must carry bounded timeouts on every call and surface
// upstream failures instead of hanging.
type Registry interface {
	// GetRecord fetches a record by its 32-byte identifier. A zeroed
	// identifier fails with a not-found error.
	GetRecord(ctx context.Context, uid common.Hash, chainID uint64) (Record, error)

	// GetNonce returns the current on-chain nonce for the given attester
	// address. This is the authoritative replay-protection counter.
	GetNonce(ctx context.Context, attester common.Address, chainID uint64) (*big.Int, error)
}
