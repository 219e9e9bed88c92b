// Package registry knows which external module types exist and what kind
// of module each one is.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gyaneshwarpardhi/fwconfig/internal/cfgerr"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
)

// Plugin describes one module type the framework can load.
type Plugin struct {
	Type string      `json:"type"`
	Kind module.Kind `json:"kind"`
}

// Registry maps module type names to their plugin description.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds plugins. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(plugins ...Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range plugins {
		if _, exists := r.plugins[p.Type]; exists {
			panic(fmt.Sprintf("plugin registry: duplicate type %q", p.Type))
		}
		kind, err := module.ParseKind(string(p.Kind))
		if err != nil {
			panic(fmt.Sprintf("plugin registry: type %q has invalid kind %q", p.Type, p.Kind))
		}
		p.Kind = kind
		r.plugins[p.Type] = p
	}
}

// Lookup returns the plugin for the given type.
func (r *Registry) Lookup(typeName string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[typeName]
	if !ok {
		return Plugin{}, cfgerr.New(cfgerr.ErrNotFound, typeName, "no plugin registered for module type %q", typeName)
	}
	return p, nil
}

// Check reports whether m names a registered type of the matching kind.
func (r *Registry) Check(m *module.Module) error {
	p, err := r.Lookup(m.Type())
	if err != nil {
		return cfgerr.Unresolved(m.Label(), m.Type())
	}
	if p.Kind != m.Kind() {
		return cfgerr.Mismatch(m.Label(), fmt.Sprintf("%s for type %s", p.Kind, p.Type), string(m.Kind()))
	}
	return nil
}

// Types returns all registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.plugins))
	for k := range r.plugins {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Plugins returns every registered plugin sorted by type.
func (r *Registry) Plugins() []Plugin {
	types := r.Types()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(types))
	for i, t := range types {
		out[i] = r.plugins[t]
	}
	return out
}

// Builtin returns a registry holding the module types used by the shipped
// catalog.
func Builtin() *Registry {
	r := New()
	r.Register(
		Plugin{Type: "MCTruthCompositeMatcherNew", Kind: module.KindFilter},
		Plugin{Type: "TPPFCandidatesOnPFCandidates", Kind: module.KindProducer},
		Plugin{Type: "OuterTrackerMCTruth", Kind: module.KindAnalyzer},
		Plugin{Type: "OuterTrackerMonitorCluster", Kind: module.KindAnalyzer},
		Plugin{Type: "OuterTrackerMonitorStub", Kind: module.KindAnalyzer},
		Plugin{Type: "OuterTrackerMonitorL1Track", Kind: module.KindAnalyzer},
		Plugin{Type: "OuterTrackerMonitorPixelDigiMaps", Kind: module.KindAnalyzer},
		Plugin{Type: "MuonME0Digis", Kind: module.KindAnalyzer},
	)
	return r
}
