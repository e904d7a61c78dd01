package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinchproject/jpm/pkg/catalog"
	"github.com/cinchproject/jpm/pkg/errors"
	"github.com/cinchproject/jpm/pkg/plugin"
	"github.com/cinchproject/jpm/pkg/updatecenter"
)

// plugins is a compact catalog description for tests:
// each entry maps name -> (version, dependency refs as "name==version").
type plugins map[string]struct {
	version string
	deps    []string
}

func buildCatalog(t *testing.T, p plugins) *catalog.Catalog {
	t.Helper()
	raw := make(map[string]updatecenter.Plugin, len(p))
	for name, spec := range p {
		up := updatecenter.Plugin{Name: name, Version: spec.version}
		for _, d := range spec.deps {
			ref, err := plugin.ParseEntry(d)
			require.NoError(t, err)
			up.Dependencies = append(up.Dependencies, updatecenter.Dependency{
				Name:    ref.Name,
				Version: ref.Version,
			})
		}
		raw[name] = up
	}
	return catalog.Build(raw)
}

func TestResolve_NoDependencies(t *testing.T) {
	cat := buildCatalog(t, plugins{
		"solo": {version: "1.0"},
	})

	closure, warnings, err := Resolve("solo", cat)
	require.NoError(t, err)
	assert.Equal(t, Closure{plugin.New("solo", "1.0")}, closure)
	assert.Empty(t, warnings)
}

func TestResolve_ReseedsDependencyFromCatalogLatest(t *testing.T) {
	// catalog = {A: v2 deps [], B: v1 deps [A@v1]}
	// Resolving B must yield [B@1, A@2]: the unconditional recursion
	// re-seeds A from the catalog's latest, overriding the declared A@1.
	cat := buildCatalog(t, plugins{
		"A": {version: "2"},
		"B": {version: "1", deps: []string{"A==1"}},
	})

	closure, warnings, err := Resolve("B", cat)
	require.NoError(t, err)
	assert.Equal(t, Closure{plugin.New("B", "1"), plugin.New("A", "2")}, closure)
	assert.Empty(t, warnings)
}

func TestResolve_TargetFirst(t *testing.T) {
	cat := buildCatalog(t, plugins{
		"root": {version: "3.0", deps: []string{"leaf==1.0"}},
		"leaf": {version: "1.0"},
	})

	closure, _, err := Resolve("root", cat)
	require.NoError(t, err)
	require.NotEmpty(t, closure)
	assert.Equal(t, "root", closure[0].Name)
	assert.Equal(t, "3.0", closure[0].Version)
}

func TestResolve_MaxVersionAcrossPaths(t *testing.T) {
	// Both x and y require shared, at different versions. The maximum wins,
	// and shared appears exactly once.
	cat := buildCatalog(t, plugins{
		"top":    {version: "1", deps: []string{"x==1", "y==1"}},
		"x":      {version: "1", deps: []string{"shared==1.4"}},
		"y":      {version: "1", deps: []string{"shared==1.9"}},
		"shared": {version: "1.9"},
	})

	closure, warnings, err := Resolve("top", cat)
	require.NoError(t, err)

	count := 0
	for _, ref := range closure {
		if ref.SameAs(plugin.New("shared", "")) {
			count++
			assert.Equal(t, "1.9", ref.Version)
		}
	}
	assert.Equal(t, 1, count, "shared must appear exactly once")
	assert.Empty(t, warnings)
}

func TestResolve_OneEntryPerReachableName(t *testing.T) {
	cat := buildCatalog(t, plugins{
		"a": {version: "1", deps: []string{"b==1", "c==1"}},
		"b": {version: "1", deps: []string{"d==1"}},
		"c": {version: "1", deps: []string{"d==1", "b==1"}},
		"d": {version: "2"},
	})

	closure, _, err := Resolve("a", cat)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, ref := range closure {
		seen[ref.Key()]++
	}
	assert.Len(t, seen, 4)
	for name, n := range seen {
		assert.Equal(t, 1, n, "plugin %s appears %d times", name, n)
	}
	// d was declared at 1 but the catalog's latest is 2
	assert.Equal(t, 1, seen["d"])
	for _, ref := range closure {
		if ref.Key() == "d" {
			assert.Equal(t, "2", ref.Version)
		}
	}
}

func TestResolve_PluginNotFound(t *testing.T) {
	cat := buildCatalog(t, plugins{
		"a": {version: "1"},
	})

	_, _, err := Resolve("missing", cat)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodePluginNotFound))
}

func TestResolve_DanglingDependency(t *testing.T) {
	// a depends on a plugin the catalog has no entry for
	cat := buildCatalog(t, plugins{
		"a": {version: "1", deps: []string{"ghost==1"}},
	})

	_, _, err := Resolve("a", cat)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodePluginNotFound))
}

func TestResolve_DependencyCycle(t *testing.T) {
	cat := buildCatalog(t, plugins{
		"a": {version: "1", deps: []string{"b==1"}},
		"b": {version: "1", deps: []string{"c==1"}},
		"c": {version: "1", deps: []string{"a==1"}},
	})

	_, _, err := Resolve("a", cat)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDependencyCycle))
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestResolve_SelfCycle(t *testing.T) {
	cat := buildCatalog(t, plugins{
		"narcissus": {version: "1", deps: []string{"narcissus==1"}},
	})

	_, _, err := Resolve("narcissus", cat)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDependencyCycle))
}

func TestResolve_ConsistencyWarning(t *testing.T) {
	// a requires dep@5 but the catalog's latest dep is 3: the closure keeps
	// the demanded 5 and a warning is reported.
	cat := buildCatalog(t, plugins{
		"a":   {version: "1", deps: []string{"dep==5"}},
		"dep": {version: "3"},
	})

	closure, warnings, err := Resolve("a", cat)
	require.NoError(t, err)

	var dep plugin.Ref
	for _, ref := range closure {
		if ref.Key() == "dep" {
			dep = ref
		}
	}
	assert.Equal(t, "5", dep.Version, "closure keeps the demanded version")

	require.Len(t, warnings, 1)
	assert.Equal(t, plugin.New("dep", "5"), warnings[0].Required)
	assert.Equal(t, plugin.New("dep", "3"), warnings[0].Available)
	assert.Contains(t, warnings[0].String(), "newer than available version 3")
}

func TestCheckConsistency(t *testing.T) {
	cat := buildCatalog(t, plugins{
		"a": {version: "2.0"},
	})

	// Entry newer than catalog latest warns
	w, warned, found := CheckConsistency(plugin.New("a", "3.0"), cat)
	assert.True(t, found)
	assert.True(t, warned)
	assert.Equal(t, "2.0", w.Available.Version)

	// Entry at or below catalog latest does not warn
	_, warned, found = CheckConsistency(plugin.New("a", "2.0"), cat)
	assert.True(t, found)
	assert.False(t, warned)

	_, warned, found = CheckConsistency(plugin.New("a", "1.0"), cat)
	assert.True(t, found)
	assert.False(t, warned)

	// Unknown plugin
	_, warned, found = CheckConsistency(plugin.New("ghost", "1.0"), cat)
	assert.False(t, found)
	assert.False(t, warned)
}
