package di

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer receives assembly events. Implementations must be cheap; they run
// inline with the build.
type Observer interface {
	// ModuleBuilt is called once per successfully built module.
	ModuleBuilt(module string, elapsed time.Duration)

	// ModuleReused is called when an import is served from the memo.
	ModuleReused(module string)

	// CapabilityConstructed is called each time a contract's Build runs.
	CapabilityConstructed(module string, t Token)
}

type nopObserver struct{}

func (nopObserver) ModuleBuilt(string, time.Duration)   {}
func (nopObserver) ModuleReused(string)                 {}
func (nopObserver) CapabilityConstructed(string, Token) {}

// ApplicationContext is the state of one assembly pass: the global provider
// Graph visible to every module, the construction contracts, and the memo of
// modules already built.
//
// It is not safe for concurrent use. Create one per assembly and drop it when
// the root module is built.
type ApplicationContext struct {
	id        string
	globals   *Graph
	contracts ContractSource
	logger    *zap.Logger
	observer  Observer

	modules map[string]*ResolvedModule
	order   []string

	// building is the stack of module ids whose Build is in progress.
	building []string
}

// Option configures an ApplicationContext.
type Option func(*ApplicationContext)

// WithContracts sets where construction contracts are looked up.
func WithContracts(c ContractSource) Option {
	return func(ctx *ApplicationContext) { ctx.contracts = c }
}

// WithGlobal pre-seeds the global provider Graph.
func WithGlobal(t Token, v any) Option {
	return func(ctx *ApplicationContext) { ctx.globals.put(t, v) }
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(ctx *ApplicationContext) {
		if l != nil {
			ctx.logger = l
		}
	}
}

// WithObserver sets the receiver of assembly events.
func WithObserver(o Observer) Option {
	return func(ctx *ApplicationContext) {
		if o != nil {
			ctx.observer = o
		}
	}
}

// NewApplicationContext creates the state for a fresh assembly pass.
func NewApplicationContext(opts ...Option) *ApplicationContext {
	ctx := &ApplicationContext{
		id:       uuid.NewString(),
		globals:  NewGraph(),
		logger:   zap.NewNop(),
		observer: nopObserver{},
		modules:  map[string]*ResolvedModule{},
	}
	for _, opt := range opts {
		opt(ctx)
	}
	ctx.globals.freeze()
	ctx.logger = ctx.logger.With(zap.String("assembly", ctx.id))
	return ctx
}

// AssemblyID returns the random id stamped on this pass's log lines.
func (c *ApplicationContext) AssemblyID() string { return c.id }

// Globals returns the global provider Graph. It is frozen once options are applied.
func (c *ApplicationContext) Globals() *Graph { return c.globals }

// Contracts returns the configured contract source, which may be nil.
func (c *ApplicationContext) Contracts() ContractSource { return c.contracts }

// Module returns the memoized module with the given id.
func (c *ApplicationContext) Module(id string) (*ResolvedModule, bool) {
	rm, ok := c.modules[id]
	return rm, ok
}

// Modules returns every memoized module in the order its build completed.
func (c *ApplicationContext) Modules() []*ResolvedModule {
	out := make([]*ResolvedModule, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.modules[id])
	}
	return out
}

// GetOrBuild returns the memoized module for f, building and memoizing it
// first if needed. Sibling imports of the same module therefore share one
// instance and one execution of its construction.
//
// It returns ModuleImportCycleError if f is already being built further up
// the import chain.
func (c *ApplicationContext) GetOrBuild(f ModuleFactory) (*ResolvedModule, error) {
	if f == nil {
		return nil, ErrNilFactory
	}
	id := f.ModuleID()
	if rm, ok := c.modules[id]; ok {
		c.logger.Debug("module reused", zap.String("module", id))
		c.observer.ModuleReused(id)
		return rm, nil
	}
	if i := slices.Index(c.building, id); i >= 0 {
		path := append(slices.Clone(c.building[i:]), id)
		return nil, ModuleImportCycleError{Path: path}
	}

	m := f.NewModule()
	if m == nil {
		return nil, &ModuleBuildError{Module: id, Phase: PhaseDeclare, Err: ErrNilModule}
	}

	c.building = append(c.building, id)
	rm, err := m.build(c, id)
	c.building = c.building[:len(c.building)-1]
	if err != nil {
		return nil, err
	}

	c.modules[id] = rm
	c.order = append(c.order, id)
	return rm, nil
}

// searchPath is the lookup order after a module's own Graph: globals first,
// then each import's exports in declaration order.
func (c *ApplicationContext) searchPath(imports []*ResolvedModule) []*Graph {
	out := make([]*Graph, 0, len(imports)+1)
	out = append(out, c.globals)
	for _, imp := range imports {
		out = append(out, imp.exports)
	}
	return out
}

// Assemble builds root in a fresh ApplicationContext and returns the frozen
// result. It is the usual entry point from a composition root.
func Assemble(root ModuleFactory, opts ...Option) (*ResolvedModule, error) {
	ctx := NewApplicationContext(opts...)
	ctx.logger.Info("assembly started")
	rm, err := ctx.GetOrBuild(root)
	if err != nil {
		ctx.logger.Error("assembly failed", zap.Error(err))
		return nil, err
	}
	ctx.logger.Info("assembly finished",
		zap.String("root", rm.ID()),
		zap.Int("modules", len(ctx.order)),
	)
	return rm, nil
}
