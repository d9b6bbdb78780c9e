// Package astral assembles the location services engine: signed geospatial
// computation attestations and location-claim credibility assessment over a
// shared attestation ledger.
package astral

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/owizdom/astral-location-services-sub000/attestation"
	"github.com/owizdom/astral-location-services-sub000/common/apperr"
	"github.com/owizdom/astral-location-services-sub000/compute"
	"github.com/owizdom/astral-location-services-sub000/registry"
	"github.com/owizdom/astral-location-services-sub000/resolver"
	"github.com/owizdom/astral-location-services-sub000/spatial"
	"github.com/owizdom/astral-location-services-sub000/verification"
	"github.com/owizdom/astral-location-services-sub000/verification/device"
)

// ChainConfig describes one supported chain.
type ChainConfig struct {
	// RPCURL is the chain's JSON-RPC endpoint.
	RPCURL string
	// RegistryContract is the attestation registry contract address.
	RegistryContract string
	// IssuerContract is the EIP-712 verifying contract attestations are
	// signed against. Defaults to the registry contract.
	IssuerContract string
}

// Config configures the engine.
type Config struct {
	// PrivateKey is the issuer key in hex. Construction fails without it,
	// so deployments can gate readiness on New.
	PrivateKey string
	// Chains maps each supported chain id to its endpoints and contracts.
	Chains map[uint64]ChainConfig
	// EvidenceBaseURI overrides the base URI recorded in credibility
	// attestations.
	EvidenceBaseURI string
	// FetchTimeout bounds one off-chain content fetch.
	FetchTimeout time.Duration
	// CallTimeout bounds one ledger RPC call.
	CallTimeout time.Duration
}

// Engine is the assembled service: the compute path issues signed geospatial
// measurement attestations, the verify path assesses location-claim
// credibility.
type Engine struct {
	Compute  *compute.Service
	Verifier *verification.Verifier
	Resolver *resolver.Resolver
	Plugins  *verification.PluginRegistry
	Signer   *attestation.SigningContext

	ledger  registry.Registry
	closers []func()
}

// Opt configures an Engine.
type Opt func(*options)

type options struct {
	ledger  registry.Registry
	engine  spatial.Engine
	plugins []verification.Plugin
}

// WithLedger replaces the EAS-backed ledger, e.g. with an in-memory stub.
func WithLedger(reg registry.Registry) Opt {
	return func(o *options) {
		o.ledger = reg
	}
}

// WithSpatialEngine replaces the in-process geodesic engine.
func WithSpatialEngine(engine spatial.Engine) Opt {
	return func(o *options) {
		o.engine = engine
	}
}

// WithPlugin registers an additional evidence plugin alongside the default
// device plugin.
func WithPlugin(p verification.Plugin) Opt {
	return func(o *options) {
		o.plugins = append(o.plugins, p)
	}
}

// New wires the full engine. It fails fast when the signing key is absent or
// malformed and when no chain is configured.
func New(cfg Config, opts ...Opt) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	eng := &Engine{}

	ledger := o.ledger
	if ledger == nil {
		chains := make(map[uint64]registry.ChainConfig, len(cfg.Chains))
		for id, chain := range cfg.Chains {
			chains[id] = registry.ChainConfig{
				RPCURL:          chain.RPCURL,
				ContractAddress: chain.RegistryContract,
			}
		}
		eas, err := registry.NewEASRegistry(registry.EASConfig{
			Chains:      chains,
			CallTimeout: cfg.CallTimeout,
		})
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInvalidInput, err, "invalid chain configuration")
		}
		ledger = eas
		eng.closers = append(eng.closers, eas.Close)
	}
	eng.ledger = ledger

	contracts := make(map[uint64]common.Address, len(cfg.Chains))
	for id, chain := range cfg.Chains {
		issuer := chain.IssuerContract
		if issuer == "" {
			issuer = chain.RegistryContract
		}
		contracts[id] = common.HexToAddress(issuer)
	}

	signer, err := attestation.NewSigningContext(attestation.SignerConfig{
		PrivateKey: cfg.PrivateKey,
		Contracts:  contracts,
	}, ledger)
	if err != nil {
		return nil, err
	}
	eng.Signer = signer

	fetcher := resolver.NewFetcher(resolver.FetcherConfig{Timeout: cfg.FetchTimeout})
	eng.Resolver = resolver.New(ledger, resolver.WithFetcher(fetcher))

	spatialEngine := o.engine
	if spatialEngine == nil {
		spatialEngine = spatial.NewGeodesic()
	}
	eng.Compute = compute.NewService(eng.Resolver, spatialEngine, signer)

	plugins := verification.NewPluginRegistry()
	devicePlugin, err := device.New()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, err, "failed to build the device plugin")
	}
	if err := plugins.Register(devicePlugin); err != nil {
		return nil, err
	}
	for _, p := range o.plugins {
		if err := plugins.Register(p); err != nil {
			return nil, err
		}
	}
	eng.Plugins = plugins

	var verifierOpts []verification.VerifierOpt
	if cfg.EvidenceBaseURI != "" {
		verifierOpts = append(verifierOpts, verification.WithEvidenceBaseURI(cfg.EvidenceBaseURI))
	}
	eng.Verifier = verification.NewVerifier(plugins, signer, verifierOpts...)

	return eng, nil
}

// Address returns the issuer address attestations are attributed to.
func (e *Engine) Address() common.Address {
	return e.Signer.Address()
}

// Close releases ledger connections.
func (e *Engine) Close() {
	for _, closeFn := range e.closers {
		closeFn()
	}
}
