package di

import (
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ServiceFactory is implemented by client capabilities that register routes
// or handlers with the host serving layer.
//
// The host calls Register once per client, after assembly, in client
// declaration order.
type ServiceFactory interface {
	Register(r chi.Router)
}

// ModuleFactory produces fresh Module declarations.
//
// ModuleID is the memo key of a module within one assembly: every import of
// the same id collapses to a single build. NewModule must return a new *Module
// on every call because a Module can only be built once.
type ModuleFactory interface {
	ModuleID() string
	NewModule() *Module
}

type moduleFunc struct {
	id string
	fn func() *Module
}

func (f moduleFunc) ModuleID() string   { return f.id }
func (f moduleFunc) NewModule() *Module { return f.fn() }

// ModuleOf adapts a declaration function into a ModuleFactory.
//
//	var Storage = di.ModuleOf("storage", func() *di.Module {
//		return di.NewModule().Provide(TokStore.Token).Export(TokStore.Token)
//	})
func ModuleOf(id string, fn func() *Module) ModuleFactory {
	return moduleFunc{id: id, fn: fn}
}

type opKind uint8

const (
	opImport opKind = iota
	opProvide
	opProvideVal
	opClient
)

// op is one recorded declaration. Build interprets the list in four passes.
type op struct {
	kind    opKind
	token   Token
	value   any
	factory ModuleFactory
}

type moduleState uint8

const (
	stateUnbuilt moduleState = iota
	stateBuilding
	stateBuilt
)

// Module records what a module imports, provides, exports and exposes as
// clients. Nothing is resolved until Build.
//
// Declaration methods return the same *Module for chaining. A Module is
// consumed by its first Build, successful or not.
type Module struct {
	ops     []op
	exports []Token
	state   moduleState
}

// NewModule returns an empty declaration.
func NewModule() *Module {
	return &Module{}
}

// Import makes the exports of the module produced by f visible to this one.
// The imported module is built at most once per assembly.
func (m *Module) Import(f ModuleFactory) *Module {
	m.ops = append(m.ops, op{kind: opImport, factory: f})
	return m
}

// Export marks tokens for the exported subgraph. It has no resolution effect.
func (m *Module) Export(tokens ...Token) *Module {
	m.exports = append(m.exports, tokens...)
	return m
}

// ExportVal marks a token installed with ProvideVal for export.
func (m *Module) ExportVal(t Token) *Module {
	return m.Export(t)
}

// Provide declares that this module constructs t from its contract.
func (m *Module) Provide(t Token) *Module {
	m.ops = append(m.ops, op{kind: opProvide, token: t})
	return m
}

// ProvideVal installs v under t, bypassing construction.
func (m *Module) ProvideVal(t Token, v any) *Module {
	m.ops = append(m.ops, op{kind: opProvideVal, token: t, value: v})
	return m
}

// Client declares t as a capability that is also a ServiceFactory. It is
// resolved during Build and appended to the module's client list.
func (m *Module) Client(t Token) *Module {
	m.ops = append(m.ops, op{kind: opClient, token: t})
	return m
}

// ProvideValue is the typed form of (*Module).ProvideVal.
func ProvideValue[T any](m *Module, k Key[T], v T) *Module {
	return m.ProvideVal(k.Token, v)
}

// Build resolves m against ctx under the id "anonymous".
//
// Modules that may be imported elsewhere should be built through
// ApplicationContext.GetOrBuild so they take part in the memo.
func (m *Module) Build(ctx *ApplicationContext) (*ResolvedModule, error) {
	return m.build(ctx, "anonymous")
}

func (m *Module) build(ctx *ApplicationContext, id string) (*ResolvedModule, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if m.state != stateUnbuilt {
		return nil, ErrModuleConsumed
	}
	m.state = stateBuilding
	defer func() { m.state = stateBuilt }()

	start := time.Now()
	log := ctx.logger.With(zap.String("module", id))
	log.Debug("building module", zap.Int("declarations", len(m.ops)))

	if err := m.validate(id); err != nil {
		return nil, &ModuleBuildError{Module: id, Phase: PhaseDeclare, Err: err}
	}

	rm := newResolvedModule(id)
	rm.graph.onConstruct = func(t Token) {
		log.Debug("capability constructed", zap.Stringer("token", t))
		ctx.observer.CapabilityConstructed(id, t)
	}
	defer func() { rm.graph.onConstruct = nil }()

	for _, o := range m.ops {
		if o.kind != opImport {
			continue
		}
		imp, err := ctx.GetOrBuild(o.factory)
		if err != nil {
			return nil, &ModuleBuildError{Module: id, Phase: PhaseImports, Err: err}
		}
		rm.imports = append(rm.imports, imp)
	}

	for _, o := range m.ops {
		if o.kind == opProvideVal {
			rm.graph.put(o.token, o.value)
		}
	}

	search := ctx.searchPath(rm.imports)

	for _, o := range m.ops {
		if o.kind != opProvide {
			continue
		}
		if _, err := rm.graph.Resolve(o.token, ctx.contracts, search...); err != nil {
			return nil, &ModuleBuildError{Module: id, Phase: PhaseProviders, Err: err}
		}
	}

	for _, o := range m.ops {
		if o.kind != opClient {
			continue
		}
		v, err := rm.graph.Resolve(o.token, ctx.contracts, search...)
		if err != nil {
			return nil, &ModuleBuildError{Module: id, Phase: PhaseClients, Err: err}
		}
		sf, ok := v.(ServiceFactory)
		if !ok {
			err := NotServiceFactoryError{Token: o.token, GotType: typeName(v)}
			return nil, &ModuleBuildError{Module: id, Phase: PhaseClients, Err: err}
		}
		rm.clients = append(rm.clients, sf)
		rm.clientTokens = append(rm.clientTokens, o.token)
	}

	rm.exports = rm.graph.FilterBy(NewTokenSet(m.exports...))
	for _, t := range m.exports {
		if _, ok := rm.exports.GetNode(t); !ok {
			log.Warn("exported capability was never resolved", zap.Stringer("token", t))
		}
	}

	rm.graph.freeze()
	rm.exports.freeze()

	elapsed := time.Since(start)
	ctx.observer.ModuleBuilt(id, elapsed)
	log.Debug("module built",
		zap.Int("capabilities", rm.graph.Len()),
		zap.Int("exports", rm.exports.Len()),
		zap.Int("clients", len(rm.clients)),
		zap.Duration("elapsed", elapsed),
	)
	return rm, nil
}

// validate reports every duplicate or invalid declaration at once.
func (m *Module) validate(id string) error {
	var errs error
	seen := make(TokenSet, len(m.ops))
	for _, o := range m.ops {
		if o.kind == opImport {
			if o.factory == nil {
				errs = multierr.Append(errs, ErrNilFactory)
			}
			continue
		}
		if !o.token.Valid() {
			errs = multierr.Append(errs, ErrInvalidToken)
			continue
		}
		if seen.Has(o.token) {
			errs = multierr.Append(errs, DuplicateRegistrationError{Module: id, Token: o.token})
			continue
		}
		seen[o.token] = struct{}{}
	}
	return errs
}
