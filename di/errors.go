package di

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNilFactory is returned when a nil ModuleFactory is imported or built.
	ErrNilFactory = errors.New("di: nil module factory")

	// ErrNilModule is returned when a ModuleFactory produces a nil *Module.
	ErrNilModule = errors.New("di: module factory returned nil module")

	// ErrModuleConsumed is returned when Build is called on a Module that has
	// already been built. Ask the factory for a fresh Module instead.
	ErrModuleConsumed = errors.New("di: module already built")

	// ErrContractPanic is wrapped when a contract Build function panics.
	ErrContractPanic = errors.New("di: panic during construction")

	// ErrInvalidToken is returned when the zero Token is resolved or declared.
	ErrInvalidToken = errors.New("di: invalid token")

	// ErrGraphFrozen is returned when a built module's Graph is written to.
	ErrGraphFrozen = errors.New("di: graph is frozen")

	// ErrNilContext is returned when a Module is built without an ApplicationContext.
	ErrNilContext = errors.New("di: nil application context")
)

// UnresolvedCapabilityError is returned when a token has no instance in any
// consulted Graph and no construction contract.
//
// Token names the capability that could not be found, which for a transitive
// failure is the missing dependency and not the capability that asked for it.
type UnresolvedCapabilityError struct{ Token Token }

// Error implements the error interface.
func (e UnresolvedCapabilityError) Error() string {
	// Example: di: unresolved capability "db"
	return "di: unresolved capability " + e.Token.String()
}

// CyclicDependencyError is returned when resolving a token re-enters its own
// resolution before it completes.
//
// Path lists the tokens from the first occurrence of the repeated token up to
// and including the repeat.
type CyclicDependencyError struct{ Path []Token }

// Error implements the error interface.
func (e CyclicDependencyError) Error() string {
	// Example: di: cyclic dependency "a" -> "b" -> "a"
	parts := make([]string, len(e.Path))
	for i, t := range e.Path {
		parts[i] = t.String()
	}
	return "di: cyclic dependency " + strings.Join(parts, " -> ")
}

// ModuleImportCycleError is returned when modules import each other
// transitively within one assembly.
type ModuleImportCycleError struct{ Path []string }

// Error implements the error interface.
func (e ModuleImportCycleError) Error() string {
	// Example: di: module import cycle "x" -> "y" -> "x"
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = strconv.Quote(id)
	}
	return "di: module import cycle " + strings.Join(parts, " -> ")
}

// DuplicateRegistrationError is returned when one module declares the same
// token more than once through Provide, ProvideVal or Client.
type DuplicateRegistrationError struct {
	Module string
	Token  Token
}

// Error implements the error interface.
func (e DuplicateRegistrationError) Error() string {
	// Example: di: module "users" registers "db" more than once
	return "di: module " + strconv.Quote(e.Module) + " registers " + e.Token.String() + " more than once"
}

// NotServiceFactoryError is returned when a client capability resolves to a
// value that does not implement ServiceFactory.
type NotServiceFactoryError struct {
	Token Token

	// GotType is the dynamic type of the resolved value.
	GotType string
}

// Error implements the error interface.
func (e NotServiceFactoryError) Error() string {
	// Example: di: client "greeter" is not a ServiceFactory (*greeter.Store)
	return "di: client " + e.Token.String() + " is not a ServiceFactory (" + e.GotType + ")"
}

// WrongTypeError is returned by the typed helpers when a stored instance is
// not of the Key's static type.
type WrongTypeError struct {
	Token   Token
	GotType string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	return "di: capability " + e.Token.String() + " has wrong type (" + e.GotType + ")"
}

// ConstructionError wraps an error returned (or a panic raised) by a
// contract's Build function.
type ConstructionError struct {
	Token Token
	Err   error
}

// Error implements the error interface.
func (e ConstructionError) Error() string {
	return "di: construct " + e.Token.String() + ": " + e.Err.Error()
}

// Unwrap returns the builder's error.
func (e ConstructionError) Unwrap() error { return e.Err }

// Phase names a step of Module.Build.
type Phase string

const (
	PhaseDeclare   Phase = "declare"
	PhaseImports   Phase = "imports"
	PhaseValues    Phase = "values"
	PhaseProviders Phase = "providers"
	PhaseClients   Phase = "clients"
)

// ModuleBuildError attributes a failure to the module and phase it happened in.
//
// It unwraps to the cause, so errors.As(err, &UnresolvedCapabilityError{}) works
// through any number of nested imports.
type ModuleBuildError struct {
	Module string
	Phase  Phase
	Err    error
}

// Error implements the error interface.
func (e *ModuleBuildError) Error() string {
	// Example: di: build module "api" (providers): di: unresolved capability "db"
	return "di: build module " + strconv.Quote(e.Module) + " (" + string(e.Phase) + "): " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *ModuleBuildError) Unwrap() error { return e.Err }
