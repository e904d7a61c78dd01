// Package catalog builds an immutable snapshot of the plugins available in
// an update center.
//
// The catalog maps each plugin name to its latest advertised version and its
// direct mandatory dependencies. Optional dependency edges declared by the
// update center are dropped at build time: jpm resolves the minimum required
// set for a plugin, and optional edges are by definition not required.
//
// A Catalog is read-only after [Build]; lookups never hand out references
// into its internal state.
package catalog

import (
	"slices"
	"strings"

	"github.com/cinchproject/jpm/pkg/plugin"
	"github.com/cinchproject/jpm/pkg/updatecenter"
)

// entry pairs a plugin's latest version with its mandatory dependency edges.
type entry struct {
	latest plugin.Ref
	deps   []plugin.Ref
}

// Catalog is a read-only snapshot of available plugins, keyed by
// case-insensitive plugin name.
type Catalog struct {
	entries map[string]entry
}

// Build constructs a Catalog from decoded update-center plugin data,
// retaining only mandatory dependency edges.
func Build(plugins map[string]updatecenter.Plugin) *Catalog {
	entries := make(map[string]entry, len(plugins))
	for name, p := range plugins {
		e := entry{latest: plugin.New(name, p.Version)}
		for _, dep := range p.Dependencies {
			if dep.Optional {
				continue
			}
			e.deps = append(e.deps, plugin.New(dep.Name, dep.Version))
		}
		entries[strings.ToLower(name)] = e
	}
	return &Catalog{entries: entries}
}

// LookupLatest returns the latest available version for the named plugin.
// The boolean reports whether the plugin exists in the catalog.
func (c *Catalog) LookupLatest(name string) (plugin.Ref, bool) {
	e, ok := c.entries[strings.ToLower(name)]
	if !ok {
		return plugin.Ref{}, false
	}
	return e.latest, true
}

// DependenciesOf returns the direct mandatory dependencies of the named
// plugin, in update-center declaration order. The returned slice is a copy;
// callers may modify it freely. The boolean reports whether the plugin
// exists in the catalog.
func (c *Catalog) DependenciesOf(name string) ([]plugin.Ref, bool) {
	e, ok := c.entries[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return slices.Clone(e.deps), true
}

// Len returns the number of plugins in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Names returns all plugin names in the catalog, sorted. Names are returned
// in their original update-center casing.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.latest.Name)
	}
	slices.Sort(names)
	return names
}
