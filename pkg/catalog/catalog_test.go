package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinchproject/jpm/pkg/plugin"
	"github.com/cinchproject/jpm/pkg/updatecenter"
)

func sampleData() map[string]updatecenter.Plugin {
	return map[string]updatecenter.Plugin{
		"git": {
			Name:    "git",
			Version: "5.2.0",
			Dependencies: []updatecenter.Dependency{
				{Name: "git-client", Version: "4.0.0"},
				{Name: "credentials", Version: "2.0", Optional: true},
				{Name: "scm-api", Version: "3.0"},
			},
		},
		"git-client": {Name: "git-client", Version: "4.1.0"},
		"scm-api":    {Name: "scm-api", Version: "3.1"},
	}
}

func TestBuild_DropsOptionalDependencies(t *testing.T) {
	cat := Build(sampleData())

	deps, ok := cat.DependenciesOf("git")
	require.True(t, ok)
	require.Len(t, deps, 2)
	assert.Equal(t, plugin.New("git-client", "4.0.0"), deps[0])
	assert.Equal(t, plugin.New("scm-api", "3.0"), deps[1])
}

func TestLookupLatest(t *testing.T) {
	cat := Build(sampleData())

	latest, ok := cat.LookupLatest("git-client")
	require.True(t, ok)
	assert.Equal(t, plugin.New("git-client", "4.1.0"), latest)

	// Case-insensitive lookup
	latest, ok = cat.LookupLatest("Git-Client")
	require.True(t, ok)
	assert.Equal(t, "4.1.0", latest.Version)

	_, ok = cat.LookupLatest("no-such-plugin")
	assert.False(t, ok)
}

func TestDependenciesOf_ReturnsCopy(t *testing.T) {
	cat := Build(sampleData())

	deps, ok := cat.DependenciesOf("git")
	require.True(t, ok)
	deps[0] = plugin.New("tampered", "0")

	again, ok := cat.DependenciesOf("git")
	require.True(t, ok)
	assert.Equal(t, "git-client", again[0].Name, "catalog contents must not be mutable through lookups")
}

func TestDependenciesOf_NotFound(t *testing.T) {
	cat := Build(sampleData())
	deps, ok := cat.DependenciesOf("missing")
	assert.False(t, ok)
	assert.Nil(t, deps)
}

func TestLenAndNames(t *testing.T) {
	cat := Build(sampleData())
	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{"git", "git-client", "scm-api"}, cat.Names())
}

func TestBuild_NoDependencies(t *testing.T) {
	cat := Build(sampleData())
	deps, ok := cat.DependenciesOf("git-client")
	require.True(t, ok)
	assert.Empty(t, deps)
}
