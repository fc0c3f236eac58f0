// Package di assembles a server's object graph from composable modules.
//
// A module declares which capabilities it provides, which modules it imports,
// which of its capabilities it exports to importers, and which capabilities
// are clients of the host serving layer. Building the root module resolves
// the whole tree once, at startup, before any traffic is served.
//
// # Building blocks
//
//   - Token / Key[T]: identity of a capability. Equality is by identity, so two
//     NewToken("db") calls give two different capabilities.
//   - Contract: dependency tokens plus a Build function. Contracts live in a
//     ContractSource (usually *Contracts) handed to the ApplicationContext.
//   - Graph: token -> shared instance. Resolve constructs on demand and
//     memoizes, so a token resolves to one instance per Graph.
//   - Module: an ordered list of declarations, consumed by one Build.
//   - ApplicationContext: global capabilities plus a memo of built modules.
//   - ResolvedModule: frozen result; its Exports graph is what importers see.
//
// # Build order
//
// Build runs four passes over the declarations regardless of the order they
// were written in:
//
//  1. imports (each built at most once per assembly)
//  2. ProvideVal values
//  3. Provide tokens
//  4. Client tokens
//
// A lookup inside a module consults its own Graph, then the global Graph,
// then each import's exports in import order. First match wins.
//
// # Errors
//
// Every failure is fatal to the assembly and reported as a typed error:
// UnresolvedCapabilityError, CyclicDependencyError, ModuleImportCycleError,
// DuplicateRegistrationError, NotServiceFactoryError and ConstructionError,
// wrapped in *ModuleBuildError for module and phase context. Use errors.As.
//
// # Example
//
//	var (
//		TokClock = di.NewKey[Clock]("clock")
//		TokAPI   = di.NewKey[*API]("api")
//	)
//
//	contracts := di.NewContracts()
//	di.Define0(contracts, TokClock, func() (Clock, error) { return SystemClock{}, nil })
//	di.Define1(contracts, TokAPI, TokClock, NewAPI)
//
//	var Core = di.ModuleOf("core", func() *di.Module {
//		return di.NewModule().Provide(TokClock.Token).Export(TokClock.Token)
//	})
//	var Root = di.ModuleOf("root", func() *di.Module {
//		return di.NewModule().Import(Core).Client(TokAPI.Token)
//	})
//
//	root, err := di.Assemble(Root, di.WithContracts(contracts))
//
// # Import
//
//	"github.com/sghaida/sept/di"
package di
