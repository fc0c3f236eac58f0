package di

import "slices"

// Graph maps capability tokens to shared, fully constructed instances.
//
// A Graph is mutable while its owning module builds and must be treated as
// read-only afterwards. Once a token is present, every later lookup against
// the same Graph returns the same instance.
//
// Graph is not safe for concurrent mutation. A module freezes its graphs when
// its build finishes; a frozen Graph rejects writes with ErrGraphFrozen and
// is safe for concurrent reads.
type Graph struct {
	nodes  map[Token]any
	order  []Token
	frozen bool

	// resolving is the stack of tokens currently under construction.
	resolving []Token

	onConstruct func(Token)
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{nodes: map[Token]any{}}
}

// Provide inserts an already constructed instance under t.
//
// An existing entry for t is silently replaced. Modules reject duplicate
// declarations before they ever reach the Graph.
func (g *Graph) Provide(t Token, v any) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	g.put(t, v)
	return nil
}

func (g *Graph) put(t Token, v any) {
	if _, exists := g.nodes[t]; !exists {
		g.order = append(g.order, t)
	}
	g.nodes[t] = v
}

// Frozen reports whether g has been sealed by a finished module build.
func (g *Graph) Frozen() bool {
	return g != nil && g.frozen
}

func (g *Graph) freeze() { g.frozen = true }

// GetNode reports whether t is present, without attempting construction.
func (g *Graph) GetNode(t Token) (any, bool) {
	if g == nil {
		return nil, false
	}
	v, ok := g.nodes[t]
	return v, ok
}

// Len returns the number of resolved entries.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// Tokens returns the resolved tokens in insertion order.
func (g *Graph) Tokens() []Token {
	if g == nil {
		return nil
	}
	return slices.Clone(g.order)
}

// Resolve returns the shared instance for t.
//
// Lookup order is: this Graph, then each of search in order (first match wins).
// A match found in search is also recorded in this Graph, so the module keeps
// a reference to every capability it used.
//
// When nothing matches, the contract for t is taken from contracts. Its
// dependencies are resolved first, recursively and with the same search list,
// then Build runs and the result is memoized here.
//
// It returns UnresolvedCapabilityError naming the first token with neither an
// instance nor a contract, and CyclicDependencyError if t is needed to build
// itself. A frozen Graph only answers from its own entries and returns
// ErrGraphFrozen for anything it would have to record.
func (g *Graph) Resolve(t Token, contracts ContractSource, search ...*Graph) (any, error) {
	if !t.Valid() {
		return nil, ErrInvalidToken
	}
	if v, ok := g.nodes[t]; ok {
		return v, nil
	}
	if g.frozen {
		return nil, ErrGraphFrozen
	}
	for _, s := range search {
		if v, ok := s.GetNode(t); ok {
			g.put(t, v)
			return v, nil
		}
	}

	if i := slices.Index(g.resolving, t); i >= 0 {
		path := append(slices.Clone(g.resolving[i:]), t)
		return nil, CyclicDependencyError{Path: path}
	}

	var (
		ct Contract
		ok bool
	)
	if contracts != nil {
		ct, ok = contracts.Contract(t)
	}
	if !ok {
		return nil, UnresolvedCapabilityError{Token: t}
	}

	g.resolving = append(g.resolving, t)
	defer func() { g.resolving = g.resolving[:len(g.resolving)-1] }()

	values := make([]any, len(ct.Deps))
	for i, dep := range ct.Deps {
		v, err := g.Resolve(dep, contracts, search...)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	v, err := ct.construct(t, Deps{tokens: ct.Deps, values: values})
	if err != nil {
		return nil, err
	}
	g.put(t, v)
	if g.onConstruct != nil {
		g.onConstruct(t)
	}
	return v, nil
}

// FilterBy returns a new, unfrozen Graph holding only the entries whose token
// is in keep. Instances are shared with g, not copied.
func (g *Graph) FilterBy(keep TokenSet) *Graph {
	out := NewGraph()
	if g == nil {
		return out
	}
	for _, t := range g.order {
		if keep.Has(t) {
			out.put(t, g.nodes[t])
		}
	}
	return out
}

// Lookup returns the instance stored under k typed as T.
//
// ok is false if the token is missing or the instance is not a T.
func Lookup[T any](g *Graph, k Key[T]) (T, bool) {
	raw, ok := g.GetNode(k.Token)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// Resolve is the typed form of (*Graph).Resolve.
func Resolve[T any](g *Graph, k Key[T], contracts ContractSource, search ...*Graph) (T, error) {
	var zero T
	raw, err := g.Resolve(k.Token, contracts, search...)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, WrongTypeError{Token: k.Token, GotType: typeName(raw)}
	}
	return v, nil
}
