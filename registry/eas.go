package registry

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
)

// easABIJSON is the subset of the EAS contract surface the engine consumes.
const easABIJSON = `[
  {"type":"function","name":"getAttestation","stateMutability":"view",
   "inputs":[{"name":"uid","type":"bytes32"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"uid","type":"bytes32"},
     {"name":"schema","type":"bytes32"},
     {"name":"time","type":"uint64"},
     {"name":"expirationTime","type":"uint64"},
     {"name":"revocationTime","type":"uint64"},
     {"name":"refUID","type":"bytes32"},
     {"name":"recipient","type":"address"},
     {"name":"attester","type":"address"},
     {"name":"revocable","type":"bool"},
     {"name":"data","type":"bytes"}]}]},
  {"type":"function","name":"getNonce","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	easABI      abi.ABI
	easABIOnce  sync.Once
	errParseABI error
)

// loadABI ensures the ABI is parsed exactly once.
func loadABI() (abi.ABI, error) {
	easABIOnce.Do(func() {
		easABI, errParseABI = abi.JSON(strings.NewReader(easABIJSON))
	})
	return easABI, errParseABI
}

// ChainConfig describes one supported chain.
type ChainConfig struct {
	RPCURL          string
	ContractAddress string
}

// EASConfig configures the ledger client.
type EASConfig struct {
	// Chains maps a chain id to its endpoint and registry contract.
	Chains map[uint64]ChainConfig
	// CallTimeout bounds each RPC call. Defaults to 10 seconds.
	CallTimeout time.Duration
}

// EASRegistry reads attestation records and nonces from EAS registry
// contracts, one bound contract per configured chain.
type EASRegistry struct {
	chains      map[uint64]ChainConfig
	callTimeout time.Duration
	providers   *providerCache

	// binder resolves the bound contract for a chain; tests swap in a
	// stubbed caller.
	binder func(ctx context.Context, chainID uint64) (*bind.BoundContract, error)
}

// NewEASRegistry validates the configuration and returns a ledger client.
// Connections are dialed lazily per chain and cached.
func NewEASRegistry(cfg EASConfig) (*EASRegistry, error) {
	if len(cfg.Chains) == 0 {
		return nil, fmt.Errorf("at least one chain must be configured")
	}
	for id, chain := range cfg.Chains {
		if strings.TrimSpace(chain.RPCURL) == "" {
			return nil, fmt.Errorf("chain %d has no RPC URL", id)
		}
		if strings.TrimSpace(chain.ContractAddress) == "" {
			return nil, fmt.Errorf("chain %d has no registry contract address", id)
		}
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	r := &EASRegistry{
		chains:      cfg.Chains,
		callTimeout: timeout,
		providers:   newProviderCache(),
	}
	r.binder = r.boundContract
	return r, nil
}

// Close releases all cached chain connections.
func (r *EASRegistry) Close() {
	r.providers.close()
}

// attestationResult mirrors the getAttestation tuple layout.
type attestationResult struct {
	Uid            [32]byte
	Schema         [32]byte
	Time           uint64
	ExpirationTime uint64
	RevocationTime uint64
	RefUID         [32]byte
	Recipient      common.Address
	Attester       common.Address
	Revocable      bool
	Data           []byte
}

// GetRecord implements Registry.
func (r *EASRegistry) GetRecord(ctx context.Context, uid common.Hash, chainID uint64) (Record, error) {
	if uid == (common.Hash{}) {
		return Record{}, apperr.New(apperr.CodeNotFound, "zeroed attestation identifier")
	}

	contract, err := r.binder(ctx, chainID)
	if err != nil {
		return Record{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: callCtx}, &out, "getAttestation", uid); err != nil {
		return Record{}, apperr.Wrap(apperr.CodeUpstreamUnavailable, err, "registry getAttestation(%s) on chain %d", uid.Hex(), chainID)
	}
	if len(out) == 0 {
		return Record{}, apperr.New(apperr.CodeUpstreamUnavailable, "registry getAttestation(%s) returned no output", uid.Hex())
	}

	raw := *abi.ConvertType(out[0], new(attestationResult)).(*attestationResult)

	if raw.Uid == ([32]byte{}) {
		return Record{}, apperr.New(apperr.CodeNotFound, "attestation %s not found on chain %d", uid.Hex(), chainID)
	}

	return Record{
		UID:            raw.Uid,
		Schema:         raw.Schema,
		Data:           raw.Data,
		Attester:       raw.Attester,
		Recipient:      raw.Recipient,
		Time:           raw.Time,
		ExpirationTime: raw.ExpirationTime,
		RevocationTime: raw.RevocationTime,
	}, nil
}

// GetNonce implements Registry.
func (r *EASRegistry) GetNonce(ctx context.Context, attester common.Address, chainID uint64) (*big.Int, error) {
	contract, err := r.binder(ctx, chainID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: callCtx}, &out, "getNonce", attester); err != nil {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, err, "registry getNonce(%s) on chain %d", attester.Hex(), chainID)
	}

	nonce, ok := out[0].(*big.Int)
	if !ok {
		return nil, apperr.New(apperr.CodeUpstreamUnavailable, "unexpected getNonce return shape %T", out[0])
	}
	return nonce, nil
}

func (r *EASRegistry) boundContract(ctx context.Context, chainID uint64) (*bind.BoundContract, error) {
	chain, ok := r.chains[chainID]
	if !ok {
		return nil, apperr.New(apperr.CodeUnsupportedChain, "no registry configured for chain %d", chainID)
	}

	contractABI, err := loadABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}

	client, err := r.providers.get(ctx, chainID, chain.RPCURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, err, "failed to dial chain %d", chainID)
	}

	addr := common.HexToAddress(chain.ContractAddress)
	return bind.NewBoundContract(addr, contractABI, client, client, client), nil
}
