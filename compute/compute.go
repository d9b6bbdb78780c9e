// Package compute runs deterministic geospatial operations over resolved
// inputs and issues signed attestations over their results.
package compute

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/owizdom/astral-location-services-sub000/attestation"
	"github.com/owizdom/astral-location-services-sub000/resolver"
	"github.com/owizdom/astral-location-services-sub000/spatial"
)

const (
	unitsCentimeters       = "centimeters"
	unitsSquareCentimeters = "square-centimeters"
)

// Request carries the attestation parameters shared by every operation.
type Request struct {
	Recipient common.Address
	ChainID   uint64
}

// NumericResult is the outcome of a measurement operation.
type NumericResult struct {
	Value       float64 // rounded to centimeter precision, in meters
	Scaled      *big.Int
	Units       string
	Operation   string
	Timestamp   uint64
	InputRefs   []common.Hash
	Attestation attestation.Attestation
	Delegation  attestation.Delegation
}

// BooleanResult is the outcome of a predicate operation.
type BooleanResult struct {
	Value       bool
	Operation   string
	Timestamp   uint64
	InputRefs   []common.Hash
	Attestation attestation.Attestation
	Delegation  attestation.Delegation
}

// Service wires the resolver, the spatial engine, and the signer into the
// compute path: resolve, measure, round, scale, encode, sign.
type Service struct {
	resolver *resolver.Resolver
	engine   spatial.Engine
	signer   *attestation.SigningContext
	now      func() time.Time
}

// NewService creates the compute service.
func NewService(res *resolver.Resolver, engine spatial.Engine, signer *attestation.SigningContext) *Service {
	return &Service{resolver: res, engine: engine, signer: signer, now: time.Now}
}

// Distance measures the geodesic distance between two geometries in meters.
func (s *Service) Distance(ctx context.Context, req Request, a, b resolver.Input) (NumericResult, error) {
	return s.numericOp(ctx, req, "distance", unitsCentimeters, []resolver.Input{a, b},
		func(ctx context.Context, resolved []resolver.ResolvedInput) (float64, error) {
			meters, err := s.engine.Distance(ctx, resolved[0].Geometry, resolved[1].Geometry)
			if err != nil {
				return 0, err
			}
			return spatial.RoundCentimeters(meters), nil
		}, scaleCentimeters)
}

// Area measures the geodesic area of a polygon in square meters.
func (s *Service) Area(ctx context.Context, req Request, polygon resolver.Input) (NumericResult, error) {
	return s.numericOp(ctx, req, "area", unitsSquareCentimeters, []resolver.Input{polygon},
		func(ctx context.Context, resolved []resolver.ResolvedInput) (float64, error) {
			squareMeters, err := s.engine.Area(ctx, resolved[0].Geometry)
			if err != nil {
				return 0, err
			}
			return spatial.RoundSquareCentimeters(squareMeters), nil
		}, scaleSquareCentimeters)
}

// Length measures the geodesic length of a line in meters.
func (s *Service) Length(ctx context.Context, req Request, line resolver.Input) (NumericResult, error) {
	return s.numericOp(ctx, req, "length", unitsCentimeters, []resolver.Input{line},
		func(ctx context.Context, resolved []resolver.ResolvedInput) (float64, error) {
			meters, err := s.engine.Length(ctx, resolved[0].Geometry)
			if err != nil {
				return 0, err
			}
			return spatial.RoundCentimeters(meters), nil
		}, scaleCentimeters)
}

// Contains reports whether the first geometry fully contains the second.
func (s *Service) Contains(ctx context.Context, req Request, container, containee resolver.Input) (BooleanResult, error) {
	return s.booleanOp(ctx, req, "contains", []resolver.Input{container, containee},
		func(ctx context.Context, resolved []resolver.ResolvedInput) (bool, error) {
			return s.engine.Contains(ctx, resolved[0].Geometry, resolved[1].Geometry)
		})
}

// Within reports whether point lies within radiusMeters of target. The
// radius is encoded into the operation string in centimeters, so it is
// covered by the signature.
func (s *Service) Within(ctx context.Context, req Request, point, target resolver.Input, radiusMeters float64) (BooleanResult, error) {
	operation := fmt.Sprintf("within:%d", int64(math.Round(radiusMeters*100)))
	return s.booleanOp(ctx, req, operation, []resolver.Input{point, target},
		func(ctx context.Context, resolved []resolver.ResolvedInput) (bool, error) {
			return s.engine.Within(ctx, resolved[0].Geometry, resolved[1].Geometry, radiusMeters)
		})
}

// Intersects reports whether two geometries share any point.
func (s *Service) Intersects(ctx context.Context, req Request, a, b resolver.Input) (BooleanResult, error) {
	return s.booleanOp(ctx, req, "intersects", []resolver.Input{a, b},
		func(ctx context.Context, resolved []resolver.ResolvedInput) (bool, error) {
			return s.engine.Intersects(ctx, resolved[0].Geometry, resolved[1].Geometry)
		})
}

func (s *Service) numericOp(ctx context.Context, req Request, operation, units string, inputs []resolver.Input, measure func(context.Context, []resolver.ResolvedInput) (float64, error), scale func(float64) *big.Int) (NumericResult, error) {
	resolved, err := s.resolver.ResolveAll(ctx, inputs)
	if err != nil {
		return NumericResult{}, err
	}

	value, err := measure(ctx, resolved)
	if err != nil {
		return NumericResult{}, fmt.Errorf("%s computation failed: %w", operation, err)
	}

	timestamp := uint64(s.now().Unix())
	refs := references(resolved)
	scaled := scale(value)

	payload := attestation.NumericPayload{
		Result:    scaled,
		Units:     units,
		InputRefs: refs,
		Timestamp: timestamp,
		Operation: operation,
	}
	encoded, err := payload.Encode()
	if err != nil {
		return NumericResult{}, err
	}

	att, del, err := s.signer.Sign(ctx, encoded, attestation.SchemaUID(attestation.NumericSchema), req.Recipient, req.ChainID)
	if err != nil {
		return NumericResult{}, err
	}

	return NumericResult{
		Value:       value,
		Scaled:      scaled,
		Units:       units,
		Operation:   operation,
		Timestamp:   timestamp,
		InputRefs:   refs,
		Attestation: att,
		Delegation:  del,
	}, nil
}

func (s *Service) booleanOp(ctx context.Context, req Request, operation string, inputs []resolver.Input, predicate func(context.Context, []resolver.ResolvedInput) (bool, error)) (BooleanResult, error) {
	resolved, err := s.resolver.ResolveAll(ctx, inputs)
	if err != nil {
		return BooleanResult{}, err
	}

	value, err := predicate(ctx, resolved)
	if err != nil {
		return BooleanResult{}, fmt.Errorf("%s computation failed: %w", operation, err)
	}

	timestamp := uint64(s.now().Unix())
	refs := references(resolved)

	payload := attestation.BooleanPayload{
		Result:    value,
		InputRefs: refs,
		Timestamp: timestamp,
		Operation: operation,
	}
	encoded, err := payload.Encode()
	if err != nil {
		return BooleanResult{}, err
	}

	att, del, err := s.signer.Sign(ctx, encoded, attestation.SchemaUID(attestation.BooleanSchema), req.Recipient, req.ChainID)
	if err != nil {
		return BooleanResult{}, err
	}

	return BooleanResult{
		Value:       value,
		Operation:   operation,
		Timestamp:   timestamp,
		InputRefs:   refs,
		Attestation: att,
		Delegation:  del,
	}, nil
}

func references(resolved []resolver.ResolvedInput) []common.Hash {
	refs := make([]common.Hash, len(resolved))
	for i, r := range resolved {
		refs[i] = r.Reference
	}
	return refs
}

// scaleCentimeters converts rounded meters to an integer centimeter count.
func scaleCentimeters(meters float64) *big.Int {
	return big.NewInt(int64(math.Round(meters * 100)))
}

// scaleSquareCentimeters converts rounded square meters to an integer square
// centimeter count.
func scaleSquareCentimeters(squareMeters float64) *big.Int {
	return big.NewInt(int64(math.Round(squareMeters * 10000)))
}
