// Package attestation builds, encodes, and signs delegated attestations.
//
// The signer produces EIP-712 structured signatures that a third party can
// submit on-chain while the signing key holder remains the attributed issuer.
package attestation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Attestation is the full off-chain view of a signed attestation, usable for
// local verification.
type Attestation struct {
	SchemaUID common.Hash    `json:"schema"`
	Signer    common.Address `json:"signer"`
	Recipient common.Address `json:"recipient"`
	ChainID   uint64         `json:"chainId"`
	Data      hexutil.Bytes  `json:"data"`
	Nonce     *big.Int       `json:"nonce"`
	Deadline  uint64         `json:"deadline"`
	Signature hexutil.Bytes  `json:"signature"`
}

// Delegation is the compact view sized for on-chain submission by a third
// party who pays the transaction cost.
type Delegation struct {
	Signature hexutil.Bytes  `json:"signature"`
	Attester  common.Address `json:"attester"`
	Deadline  uint64         `json:"deadline"`
	Nonce     *big.Int       `json:"nonce"`
}
