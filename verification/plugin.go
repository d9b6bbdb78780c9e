package verification

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/owizdom/astral-location-services-sub000/common/apperr"
)

// Plugin verifies stamps from one evidence source and assesses their claim
// support. Implementations must be safe for concurrent use.
type Plugin interface {
	// Name is the identifier stamps declare to select this plugin.
	Name() string

	// Version is the plugin implementation version.
	Version() string

	// Verify checks the stamp's internal validity: signatures, structure,
	// signal consistency.
	Verify(ctx context.Context, stamp LocationStamp) (VerifyResult, error)

	// Assess scores how well the stamp supports the claim.
	Assess(ctx context.Context, stamp LocationStamp, claim LocationClaim) (AssessResult, error)
}

// PluginInfo is the registry listing entry for one plugin.
type PluginInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PluginRegistry maps evidence-source names to plugins. It carries no global
// state: the engine owns one instance and passes it down explicitly.
type PluginRegistry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewPluginRegistry returns an empty registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin, rejecting duplicate names.
func (r *PluginRegistry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[p.Name()]; exists {
		return apperr.New(apperr.CodeInvalidInput, "plugin %q already registered", p.Name())
	}
	r.plugins[p.Name()] = p
	return nil
}

// Get looks a plugin up by the name a stamp declares.
func (r *PluginRegistry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "no plugin registered under %q", name)
	}
	return p, nil
}

// List returns metadata for every registered plugin, sorted by name.
func (r *PluginRegistry) List() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := maps.Keys(r.plugins)
	sort.Strings(names)

	infos := make([]PluginInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, PluginInfo{Name: name, Version: r.plugins[name].Version()})
	}
	return infos
}
