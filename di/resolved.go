package di

import (
	"slices"

	"gopkg.in/yaml.v3"
)

// ResolvedModule is the frozen result of building a Module.
//
// It is shared by every importer and by the assembly memo. Nothing mutates it
// after Build returns, so it may be read from any goroutine.
type ResolvedModule struct {
	id           string
	graph        *Graph
	imports      []*ResolvedModule
	exports      *Graph
	clients      []ServiceFactory
	clientTokens []Token
}

func newResolvedModule(id string) *ResolvedModule {
	return &ResolvedModule{
		id:      id,
		graph:   NewGraph(),
		exports: NewGraph(),
	}
}

// ID returns the module id the module was built under.
func (r *ResolvedModule) ID() string { return r.id }

// Graph returns every capability declared or used by the module.
func (r *ResolvedModule) Graph() *Graph { return r.graph }

// Exports returns the exported subgraph visible to importers.
func (r *ResolvedModule) Exports() *Graph { return r.exports }

// Imports returns the imported modules in declaration order.
func (r *ResolvedModule) Imports() []*ResolvedModule { return slices.Clone(r.imports) }

// Clients returns this module's own clients in declaration order.
func (r *ResolvedModule) Clients() []ServiceFactory { return slices.Clone(r.clients) }

// AllClients returns the clients of the whole import tree: imports first,
// depth-first in declaration order, then r's own. A module shared by several
// importers contributes its clients once.
func (r *ResolvedModule) AllClients() []ServiceFactory {
	var out []ServiceFactory
	r.walk(map[*ResolvedModule]bool{}, func(m *ResolvedModule) {
		out = append(out, m.clients...)
	})
	return out
}

func (r *ResolvedModule) walk(seen map[*ResolvedModule]bool, visit func(*ResolvedModule)) {
	if seen[r] {
		return
	}
	seen[r] = true
	for _, imp := range r.imports {
		imp.walk(seen, visit)
	}
	visit(r)
}

// ModuleManifest describes one module of an assembly.
type ModuleManifest struct {
	ID           string   `yaml:"id"`
	Imports      []string `yaml:"imports,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty"`
	Exports      []string `yaml:"exports,omitempty"`
	Clients      []string `yaml:"clients,omitempty"`
}

// Manifest describes an assembled module tree, leaves first.
type Manifest struct {
	Root    string           `yaml:"root"`
	Modules []ModuleManifest `yaml:"modules"`
}

// Describe returns a manifest of r and everything it imports.
func (r *ResolvedModule) Describe() Manifest {
	mf := Manifest{Root: r.id}
	r.walk(map[*ResolvedModule]bool{}, func(m *ResolvedModule) {
		mm := ModuleManifest{
			ID:           m.id,
			Capabilities: tokenNames(m.graph.Tokens()),
			Exports:      tokenNames(m.exports.Tokens()),
			Clients:      tokenNames(m.clientTokens),
		}
		for _, imp := range m.imports {
			mm.Imports = append(mm.Imports, imp.id)
		}
		mf.Modules = append(mf.Modules, mm)
	})
	return mf
}

// YAML renders the manifest.
func (m Manifest) YAML() ([]byte, error) {
	return yaml.Marshal(m)
}

func tokenNames(ts []Token) []string {
	if len(ts) == 0 {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name()
	}
	return out
}
