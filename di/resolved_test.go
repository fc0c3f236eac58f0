package di_test

import (
	"testing"

	"github.com/sghaida/sept/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func clientTree(t *testing.T) *di.ResolvedModule {
	t.Helper()

	shared := di.NewKey[*pingClient]("shared")
	left := di.NewKey[*pingClient]("left")
	right := di.NewKey[*pingClient]("right")
	root := di.NewKey[*pingClient]("root")
	hidden := di.NewKey[*DB]("hidden")

	contracts := di.NewContracts()
	for _, k := range []di.Key[*pingClient]{shared, left, right, root} {
		k := k
		di.Define0(contracts, k, func() (*pingClient, error) {
			return &pingClient{path: "/" + k.Name()}, nil
		})
	}

	a := di.ModuleOf("A", func() *di.Module {
		m := di.NewModule().Client(shared.Token).Export(shared.Token)
		return di.ProvideValue(m, hidden, &DB{})
	})
	b := di.ModuleOf("B", func() *di.Module { return di.NewModule().Import(a).Client(left.Token) })
	c := di.ModuleOf("C", func() *di.Module { return di.NewModule().Import(a).Client(right.Token) })
	p := di.ModuleOf("P", func() *di.Module { return di.NewModule().Import(b).Import(c).Client(root.Token) })

	rm, err := di.Assemble(p, di.WithContracts(contracts))
	require.NoError(t, err)
	return rm
}

func TestResolvedModule_AllClientsOncePerModule(t *testing.T) {
	t.Parallel()

	rm := clientTree(t)

	var paths []string
	for _, c := range rm.AllClients() {
		paths = append(paths, c.(*pingClient).path)
	}
	assert.Equal(t, []string{"/shared", "/left", "/right", "/root"}, paths)
	assert.Len(t, rm.Clients(), 1)
}

func TestResolvedModule_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	rm := clientTree(t)

	imports := rm.Imports()
	imports[0] = nil
	assert.NotNil(t, rm.Imports()[0])

	clients := rm.Clients()
	clients[0] = nil
	assert.NotNil(t, rm.Clients()[0])
}

func TestResolvedModule_Describe(t *testing.T) {
	t.Parallel()

	mf := clientTree(t).Describe()
	assert.Equal(t, "P", mf.Root)
	require.Len(t, mf.Modules, 4)

	a := mf.Modules[0]
	assert.Equal(t, "A", a.ID)
	assert.Empty(t, a.Imports)
	assert.ElementsMatch(t, []string{"shared", "hidden"}, a.Capabilities)
	assert.Equal(t, []string{"shared"}, a.Exports)
	assert.Equal(t, []string{"shared"}, a.Clients)

	p := mf.Modules[3]
	assert.Equal(t, "P", p.ID)
	assert.Equal(t, []string{"B", "C"}, p.Imports)
	assert.Equal(t, []string{"root"}, p.Clients)
}

func TestManifest_YAML(t *testing.T) {
	t.Parallel()

	mf := clientTree(t).Describe()
	raw, err := mf.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "root: P")

	var back di.Manifest
	require.NoError(t, yaml.Unmarshal(raw, &back))
	assert.Equal(t, mf, back)
}
