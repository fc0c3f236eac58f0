package di_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/sghaida/sept/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type DB struct{ DSN string }

type Logger struct{ Level string }

type UserService struct {
	DB     *DB
	Logger *Logger
}

//
// -----------------------------------------------------------------------------
// Provide / GetNode / FilterBy
// -----------------------------------------------------------------------------

func TestGraph_ProvideAndGetNode(t *testing.T) {
	t.Parallel()

	tok := di.NewToken("db")
	db := &DB{DSN: "postgres://"}

	g := di.NewGraph()
	_, ok := g.GetNode(tok)
	require.False(t, ok)

	require.NoError(t, g.Provide(tok, db))
	got, ok := g.GetNode(tok)
	require.True(t, ok)
	assert.Same(t, db, got)
	assert.Equal(t, 1, g.Len())
}

func TestGraph_ProvideOverwritesKeepsOrder(t *testing.T) {
	t.Parallel()

	a, b := di.NewToken("a"), di.NewToken("b")
	g := di.NewGraph()
	require.NoError(t, g.Provide(a, 1))
	require.NoError(t, g.Provide(b, 2))
	require.NoError(t, g.Provide(a, 3))

	got, _ := g.GetNode(a)
	assert.Equal(t, 3, got)
	assert.Equal(t, []di.Token{a, b}, g.Tokens())
}

func TestGraph_TokensWithSameNameAreDistinct(t *testing.T) {
	t.Parallel()

	first, second := di.NewToken("db"), di.NewToken("db")
	g := di.NewGraph()
	require.NoError(t, g.Provide(first, "x"))

	_, ok := g.GetNode(second)
	assert.False(t, ok)
}

func TestGraph_FilterBySharesInstances(t *testing.T) {
	t.Parallel()

	pub, priv := di.NewToken("public"), di.NewToken("private")
	db := &DB{}

	g := di.NewGraph()
	require.NoError(t, g.Provide(pub, db))
	require.NoError(t, g.Provide(priv, &Logger{}))

	exported := g.FilterBy(di.NewTokenSet(pub))
	require.Equal(t, 1, exported.Len())

	got, ok := exported.GetNode(pub)
	require.True(t, ok)
	assert.Same(t, db, got)

	_, ok = exported.GetNode(priv)
	assert.False(t, ok)
}

func TestGraph_FilterByIgnoresAbsentTokens(t *testing.T) {
	t.Parallel()

	g := di.NewGraph()
	exported := g.FilterBy(di.NewTokenSet(di.NewToken("never")))
	assert.Equal(t, 0, exported.Len())
}

//
// -----------------------------------------------------------------------------
// Resolve
// -----------------------------------------------------------------------------

func TestGraph_ResolveConstructsOnceAndMemoizes(t *testing.T) {
	t.Parallel()

	tok := di.NewKey[*DB]("db")
	calls := 0
	contracts := di.Define0(di.NewContracts(), tok, func() (*DB, error) {
		calls++
		return &DB{DSN: "mem"}, nil
	})

	g := di.NewGraph()
	first, err := di.Resolve(g, tok, contracts)
	require.NoError(t, err)
	second, err := di.Resolve(g, tok, contracts)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGraph_ResolveDependenciesFirst(t *testing.T) {
	t.Parallel()

	dbKey := di.NewKey[*DB]("db")
	logKey := di.NewKey[*Logger]("logger")
	userKey := di.NewKey[*UserService]("users")

	contracts := di.NewContracts()
	di.Define0(contracts, dbKey, func() (*DB, error) { return &DB{}, nil })
	di.Define0(contracts, logKey, func() (*Logger, error) { return &Logger{Level: "info"}, nil })
	di.Define2(contracts, userKey, dbKey, logKey, func(db *DB, l *Logger) (*UserService, error) {
		return &UserService{DB: db, Logger: l}, nil
	})

	g := di.NewGraph()
	users, err := di.Resolve(g, userKey, contracts)
	require.NoError(t, err)

	db, ok := di.Lookup(g, dbKey)
	require.True(t, ok)
	assert.Same(t, db, users.DB)

	assert.Equal(t, []di.Token{dbKey.Token, logKey.Token, userKey.Token}, g.Tokens())
}

func TestGraph_ResolveSearchOrderFirstMatchWins(t *testing.T) {
	t.Parallel()

	tok := di.NewToken("db")
	own, global, imported := di.NewGraph(), di.NewGraph(), di.NewGraph()
	require.NoError(t, global.Provide(tok, "global"))
	require.NoError(t, imported.Provide(tok, "imported"))

	got, err := own.Resolve(tok, nil, global, imported)
	require.NoError(t, err)
	assert.Equal(t, "global", got)

	// the match is recorded locally
	local, ok := own.GetNode(tok)
	require.True(t, ok)
	assert.Equal(t, "global", local)
}

func TestGraph_ResolveOwnGraphBeatsSearch(t *testing.T) {
	t.Parallel()

	tok := di.NewToken("db")
	own, global := di.NewGraph(), di.NewGraph()
	require.NoError(t, own.Provide(tok, "own"))
	require.NoError(t, global.Provide(tok, "global"))

	got, err := own.Resolve(tok, nil, global)
	require.NoError(t, err)
	assert.Equal(t, "own", got)
}

func TestGraph_ResolveSearchBeatsContract(t *testing.T) {
	t.Parallel()

	tok := di.NewKey[*DB]("db")
	shared := &DB{DSN: "shared"}
	contracts := di.Define0(di.NewContracts(), tok, func() (*DB, error) {
		t.Fatal("contract must not run when a search graph has the token")
		return nil, nil
	})

	global := di.NewGraph()
	require.NoError(t, global.Provide(tok.Token, shared))

	got, err := di.Resolve(di.NewGraph(), tok, contracts, global)
	require.NoError(t, err)
	assert.Same(t, shared, got)
}

func TestGraph_ResolveUnresolvedNamesMissingDependency(t *testing.T) {
	t.Parallel()

	tKey := di.NewKey[*UserService]("T")
	uKey := di.NewKey[*DB]("U")
	contracts := di.Define1(di.NewContracts(), tKey, uKey, func(*DB) (*UserService, error) {
		return &UserService{}, nil
	})

	g := di.NewGraph()
	_, err := g.Resolve(tKey.Token, contracts)
	require.Error(t, err)

	var unresolved di.UnresolvedCapabilityError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, uKey.Token, unresolved.Token)
	assert.Equal(t, `di: unresolved capability "U"`, err.Error())

	_, ok := g.GetNode(tKey.Token)
	assert.False(t, ok)
}

func TestGraph_ResolveDetectsCycle(t *testing.T) {
	t.Parallel()

	a, b := di.NewToken("a"), di.NewToken("b")
	build := func(di.Deps) (any, error) { return struct{}{}, nil }
	contracts := di.NewContracts().
		Define(a, []di.Token{b}, build).
		Define(b, []di.Token{a}, build)

	g := di.NewGraph()
	_, err := g.Resolve(a, contracts)
	require.Error(t, err)

	var cyc di.CyclicDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []di.Token{a, b, a}, cyc.Path)
	assert.Equal(t, `di: cyclic dependency "a" -> "b" -> "a"`, err.Error())

	// a failed resolution leaves the graph usable
	other := di.NewToken("other")
	contracts.Define(other, nil, build)
	_, err = g.Resolve(other, contracts)
	require.NoError(t, err)
}

func TestGraph_ResolveSelfDependency(t *testing.T) {
	t.Parallel()

	a := di.NewToken("a")
	contracts := di.NewContracts().Define(a, []di.Token{a}, func(di.Deps) (any, error) { return 1, nil })

	_, err := di.NewGraph().Resolve(a, contracts)

	var cyc di.CyclicDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []di.Token{a, a}, cyc.Path)
}

func TestGraph_ResolveInvalidToken(t *testing.T) {
	t.Parallel()

	_, err := di.NewGraph().Resolve(di.Token{}, di.NewContracts())
	assert.ErrorIs(t, err, di.ErrInvalidToken)
}

func TestGraph_ResolveWrapsBuildError(t *testing.T) {
	t.Parallel()

	boom := errors.New("dial failed")
	tok := di.NewKey[*DB]("db")
	contracts := di.Define0(di.NewContracts(), tok, func() (*DB, error) { return nil, boom })

	_, err := di.Resolve(di.NewGraph(), tok, contracts)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var ce di.ConstructionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, tok.Token, ce.Token)
}

func TestResolve_WrongType(t *testing.T) {
	t.Parallel()

	tok := di.NewKey[*DB]("db")
	g := di.NewGraph()
	require.NoError(t, g.Provide(tok.Token, "not a db"))

	_, err := di.Resolve(g, tok, nil)

	var wt di.WrongTypeError
	require.True(t, errors.As(err, &wt))
	assert.Equal(t, "string", wt.GotType)

	_, ok := di.Lookup(g, tok)
	assert.False(t, ok)
}

func TestGraph_FrozenGraphIsSafeForConcurrentReads(t *testing.T) {
	t.Parallel()

	known := di.NewKey[*DB]("db")
	contracts := di.Define0(di.NewContracts(), known, func() (*DB, error) { return &DB{}, nil })

	rm, err := di.NewModule().Provide(known.Token).Build(di.NewApplicationContext(di.WithContracts(contracts)))
	require.NoError(t, err)
	g := rm.Graph()
	want, _ := g.GetNode(known.Token)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := g.Resolve(known.Token, contracts)
			assert.NoError(t, err)
			assert.Same(t, want, got)

			_, err = g.Resolve(di.NewToken("missing"), contracts)
			assert.ErrorIs(t, err, di.ErrGraphFrozen)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, g.Len())
}

func TestGraph_FilterByReturnsUnfrozenCopy(t *testing.T) {
	t.Parallel()

	tok := di.NewToken("db")
	rm, err := di.NewModule().ProvideVal(tok, 1).Build(di.NewApplicationContext())
	require.NoError(t, err)

	cp := rm.Graph().FilterBy(di.NewTokenSet(tok))
	assert.False(t, cp.Frozen())
	require.NoError(t, cp.Provide(di.NewToken("extra"), 2))
	assert.Equal(t, 1, rm.Graph().Len())
}
