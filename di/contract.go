package di

import (
	"fmt"
	"reflect"
)

// Contract tells the engine how to construct one capability: which tokens it
// depends on, and how to turn their resolved instances into a new instance.
//
// Contracts are pure recipes. The engine decides when (and how often) to call
// Build; within one Graph it is called at most once per token.
type Contract struct {
	Deps  []Token
	Build func(deps Deps) (any, error)
}

// ContractSource looks up construction contracts by token.
//
// It is intentionally:
// - read-only
// - side effect free
// - build-time only
type ContractSource interface {
	Contract(t Token) (Contract, bool)
}

// Deps holds the resolved dependencies handed to Contract.Build, in the order
// they were declared in Contract.Deps.
type Deps struct {
	tokens []Token
	values []any
}

// Len returns the number of resolved dependencies.
func (d Deps) Len() int { return len(d.values) }

// At returns the i-th dependency without type assertions.
func (d Deps) At(i int) any { return d.values[i] }

// Arg returns the i-th dependency typed as T.
//
// It returns WrongTypeError if the stored instance is not a T.
func Arg[T any](d Deps, i int) (T, error) {
	raw := d.values[i]
	v, ok := raw.(T)
	if !ok {
		var zero T
		return zero, WrongTypeError{Token: d.tokens[i], GotType: typeName(raw)}
	}
	return v, nil
}

// Contracts is a simple in-memory ContractSource.
type Contracts struct {
	items map[Token]Contract
}

// NewContracts returns an empty contract set.
func NewContracts() *Contracts {
	return &Contracts{items: map[Token]Contract{}}
}

// Define stores a contract for t and returns the set for chaining.
// A second Define for the same token replaces the first.
func (c *Contracts) Define(t Token, deps []Token, build func(Deps) (any, error)) *Contracts {
	c.items[t] = Contract{Deps: deps, Build: build}
	return c
}

// Contract implements ContractSource. A nil *Contracts holds nothing.
func (c *Contracts) Contract(t Token) (Contract, bool) {
	if c == nil {
		return Contract{}, false
	}
	ct, ok := c.items[t]
	return ct, ok
}

// MustContract returns the contract for t or panics with a helpful message.
// Useful in tests where a missing contract should fail fast.
func (c *Contracts) MustContract(t Token) Contract {
	ct, ok := c.Contract(t)
	if !ok {
		panic(fmt.Errorf("di: no contract for %s", t))
	}
	return ct
}

// Len returns the number of defined contracts.
func (c *Contracts) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Define0 defines a contract for a capability with no dependencies.
func Define0[T any](c *Contracts, k Key[T], fn func() (T, error)) *Contracts {
	return c.Define(k.Token, nil, func(Deps) (any, error) {
		return fn()
	})
}

// Define1 defines a contract for a capability built from one dependency.
func Define1[T, A any](c *Contracts, k Key[T], a Key[A], fn func(A) (T, error)) *Contracts {
	return c.Define(k.Token, []Token{a.Token}, func(d Deps) (any, error) {
		av, err := Arg[A](d, 0)
		if err != nil {
			return nil, err
		}
		return fn(av)
	})
}

// Define2 defines a contract for a capability built from two dependencies.
func Define2[T, A, B any](c *Contracts, k Key[T], a Key[A], b Key[B], fn func(A, B) (T, error)) *Contracts {
	return c.Define(k.Token, []Token{a.Token, b.Token}, func(d Deps) (any, error) {
		av, err := Arg[A](d, 0)
		if err != nil {
			return nil, err
		}
		bv, err := Arg[B](d, 1)
		if err != nil {
			return nil, err
		}
		return fn(av, bv)
	})
}

// Define3 defines a contract for a capability built from three dependencies.
func Define3[T, A, B, C any](c *Contracts, k Key[T], a Key[A], b Key[B], cc Key[C], fn func(A, B, C) (T, error)) *Contracts {
	return c.Define(k.Token, []Token{a.Token, b.Token, cc.Token}, func(d Deps) (any, error) {
		av, err := Arg[A](d, 0)
		if err != nil {
			return nil, err
		}
		bv, err := Arg[B](d, 1)
		if err != nil {
			return nil, err
		}
		cv, err := Arg[C](d, 2)
		if err != nil {
			return nil, err
		}
		return fn(av, bv, cv)
	})
}

// construct runs ct.Build and converts panics into errors.
func (ct Contract) construct(t Token, d Deps) (val any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			err = ConstructionError{Token: t, Err: fmt.Errorf("%w: %v", ErrContractPanic, rec)}
		}
	}()

	if ct.Build == nil {
		return nil, UnresolvedCapabilityError{Token: t}
	}
	v, err := ct.Build(d)
	if err != nil {
		return nil, ConstructionError{Token: t, Err: err}
	}
	return v, nil
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
