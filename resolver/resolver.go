package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/sync/errgroup"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
	"github.com/owizdom/astral-location-services-sub000/common/canonical"
	"github.com/owizdom/astral-location-services-sub000/geometry"
	"github.com/owizdom/astral-location-services-sub000/registry"
)

// Resolver turns Inputs into ResolvedInputs.
type Resolver struct {
	registry registry.Registry
	fetcher  *Fetcher
	now      func() time.Time
}

// Opt configures a Resolver.
type Opt func(*Resolver)

// WithFetcher overrides the off-chain content fetcher.
func WithFetcher(f *Fetcher) Opt {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

// WithClock overrides the expiry clock.
func WithClock(now func() time.Time) Opt {
	return func(r *Resolver) {
		r.now = now
	}
}

// New creates a Resolver backed by the given ledger.
func New(reg registry.Registry, opts ...Opt) *Resolver {
	r := &Resolver{
		registry: reg,
		fetcher:  NewFetcher(FetcherConfig{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps one input to its geometry and content reference.
func (r *Resolver) Resolve(ctx context.Context, input Input) (ResolvedInput, error) {
	switch in := input.(type) {
	case InlineGeometry:
		return r.resolveInline(in)
	case OnChainReference:
		return r.resolveOnChain(ctx, in)
	case OffChainReference:
		return r.resolveOffChain(ctx, in)
	default:
		return ResolvedInput{}, apperr.New(apperr.CodeInvalidInput, "unknown input variant %T", input)
	}
}

// ResolveAll resolves every input concurrently, preserving input order in
// the result.
func (r *Resolver) ResolveAll(ctx context.Context, inputs []Input) ([]ResolvedInput, error) {
	if len(inputs) == 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "no inputs to resolve")
	}

	resolved := make([]ResolvedInput, len(inputs))
	g, groupCtx := errgroup.WithContext(ctx)
	for i, input := range inputs {
		g.Go(func() error {
			out, err := r.Resolve(groupCtx, input)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			resolved[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (r *Resolver) resolveInline(in InlineGeometry) (ResolvedInput, error) {
	geom, err := geometry.Parse(in.Raw)
	if err != nil {
		return ResolvedInput{}, err
	}

	// Hash the caller's document, not a re-marshaled struct, so the
	// reference stays key-order independent and coordinate-order sensitive.
	ref, err := canonical.Hash(in.Raw)
	if err != nil {
		return ResolvedInput{}, apperr.Wrap(apperr.CodeInvalidInput, err, "failed to hash geometry document")
	}
	return ResolvedInput{Geometry: geom, Reference: ref}, nil
}

func (r *Resolver) resolveOnChain(ctx context.Context, in OnChainReference) (ResolvedInput, error) {
	record, err := r.registry.GetRecord(ctx, in.UID, in.ChainID)
	if err != nil {
		return ResolvedInput{}, err
	}

	if record.Revoked() {
		return ResolvedInput{}, apperr.New(apperr.CodeRevoked, "attestation %s was revoked at %d", in.UID.Hex(), record.RevocationTime)
	}
	if record.ExpiredAt(uint64(r.now().Unix())) {
		return ResolvedInput{}, apperr.New(apperr.CodeExpired, "attestation %s expired at %d", in.UID.Hex(), record.ExpirationTime)
	}

	geom, err := decodeRecordGeometry(record.Data)
	if err != nil {
		return ResolvedInput{}, err
	}

	// The reference stays the ledger identifier, never a recomputed hash.
	return ResolvedInput{Geometry: geom, Reference: in.UID}, nil
}

// decodeRecordGeometry extracts geometry from a ledger record payload. The
// payload is either a GeoJSON document (possibly Feature-wrapped) or an
// ABI-encoded string holding one.
func decodeRecordGeometry(data []byte) (geometry.Geometry, error) {
	if len(data) == 0 {
		return geometry.Geometry{}, apperr.New(apperr.CodeInvalidInput, "referenced record has an empty payload")
	}

	doc := data
	if !json.Valid(data) {
		decoded, err := abiDecodeString(data)
		if err != nil {
			return geometry.Geometry{}, apperr.Wrap(apperr.CodeInvalidInput, err, "record payload is neither JSON nor an ABI string")
		}
		doc = []byte(decoded)
	}

	return geometry.Parse(doc)
}

var stringArgs = abi.Arguments{{Type: mustNewType("string")}}

func abiDecodeString(data []byte) (string, error) {
	values, err := stringArgs.Unpack(data)
	if err != nil {
		return "", err
	}
	s, ok := values[0].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("decoded payload is not a string")
	}
	return s, nil
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
