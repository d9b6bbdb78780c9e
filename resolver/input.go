// Package resolver maps heterogeneous attestation inputs (inline geometry,
// on-chain references, off-chain references) to resolved geometry plus a
// 32-byte content reference.
package resolver

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
	"github.com/owizdom/astral-location-services-sub000/geometry"
)

// Input is the sum of the three accepted input forms. Use a type switch for
// exhaustive dispatch.
type Input interface {
	isInput()
}

// InlineGeometry is a raw geometry document supplied in the request. The
// original bytes are kept so the content reference is computed over exactly
// what the caller sent.
type InlineGeometry struct {
	Raw []byte
}

// OnChainReference identifies a ledger record holding the geometry.
type OnChainReference struct {
	UID     common.Hash
	ChainID uint64
}

// OffChainReference identifies externally hosted content by checksum and URI.
// The checksum is what makes a non-content-addressed URI safe to use.
type OffChainReference struct {
	UID common.Hash
	URI string
}

func (InlineGeometry) isInput()    {}
func (OnChainReference) isInput()  {}
func (OffChainReference) isInput() {}

// ResolvedInput pairs a resolved geometry with its content reference. The
// reference is either the canonical content hash (inline and off-chain
// inputs) or the original ledger identifier (on-chain inputs); it is never
// recomputed once resolution has happened.
type ResolvedInput struct {
	Geometry  geometry.Geometry
	Reference common.Hash
}

// inputWire is the request-level representation of an input.
type inputWire struct {
	UID     string          `json:"uid"`
	URI     string          `json:"uri"`
	ChainID uint64          `json:"chainId"`
	Type    string          `json:"type"`
	Raw     json.RawMessage `json:"-"`
}

// ParseInput decodes a request input document into its typed form. A
// document with a "type" member is inline geometry; "uid" plus "uri" is an
// off-chain reference; "uid" alone is an on-chain reference.
func ParseInput(raw []byte) (Input, error) {
	var wire inputWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, err, "malformed input document")
	}

	switch {
	case wire.Type != "":
		return InlineGeometry{Raw: raw}, nil
	case wire.UID != "" && wire.URI != "":
		uid, err := parseUID(wire.UID)
		if err != nil {
			return nil, err
		}
		return OffChainReference{UID: uid, URI: wire.URI}, nil
	case wire.UID != "":
		uid, err := parseUID(wire.UID)
		if err != nil {
			return nil, err
		}
		return OnChainReference{UID: uid, ChainID: wire.ChainID}, nil
	default:
		return nil, apperr.New(apperr.CodeInvalidInput, "input is neither a geometry nor a reference: %s", raw)
	}
}

func parseUID(s string) (common.Hash, error) {
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, apperr.New(apperr.CodeInvalidInput, "malformed reference identifier %q", s)
	}
	return common.BytesToHash(raw), nil
}
