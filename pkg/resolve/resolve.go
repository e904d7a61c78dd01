// Package resolve computes the transitive dependency closure of a plugin
// against a catalog snapshot.
//
// Resolution is depth-first and accumulator-based. The closure starts with
// the target plugin at its latest catalog version; every dependency edge is
// then folded in with a "latest wins" merge (the maximum version seen for a
// name survives) and recursed into unconditionally, so a dependency reached
// through several paths is re-seeded from the catalog each time. There is no
// visited-set short-circuit; termination relies on the catalog being acyclic,
// and a cycle is detected via the active resolution path and reported as a
// DEPENDENCY_CYCLE error rather than recursing forever.
//
// Consistency warnings are returned as values, never logged from here:
// callers decide whether to print, collect, or ignore them.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cinchproject/jpm/pkg/catalog"
	"github.com/cinchproject/jpm/pkg/errors"
	"github.com/cinchproject/jpm/pkg/plugin"
)

// Closure is the resolved dependency set for one target plugin: the target
// itself first (at its latest catalog version), followed by every
// transitively required plugin at the maximum version encountered across all
// paths. Order among dependencies reflects first discovery, not semantics.
type Closure []plugin.Ref

// Warning signals that a required plugin version exceeds the latest version
// the catalog advertises for it. This happens when the update center's own
// dependency declarations are internally inconsistent; it never blocks
// resolution.
type Warning struct {
	Required  plugin.Ref // the version demanded by resolution or a list entry
	Available plugin.Ref // the catalog's advertised latest
}

// String formats the warning for display.
func (w Warning) String() string {
	return fmt.Sprintf("%s %s is newer than available version %s",
		w.Required.Name, w.Required.Version, w.Available.Version)
}

// Resolve computes the dependency closure of the named plugin against cat.
//
// It fails with PLUGIN_NOT_FOUND if the plugin has no catalog entry, and
// with DEPENDENCY_CYCLE if a dependency edge re-enters a plugin already on
// the active resolution path. Warnings are returned sorted by plugin name.
func Resolve(name string, cat *catalog.Catalog) (Closure, []Warning, error) {
	latest, ok := cat.LookupLatest(name)
	if !ok {
		return nil, nil, notFound(name)
	}

	r := &resolver{
		cat:      cat,
		index:    make(map[string]int),
		active:   make(map[string]bool),
		warnings: make(map[string]Warning),
	}
	if err := r.solve(latest.Name); err != nil {
		return nil, nil, err
	}
	return r.closure, r.sortedWarnings(), nil
}

// CheckConsistency returns a warning if ref is strictly newer than the
// catalog's advertised latest version for the same plugin, and reports
// whether the plugin exists in the catalog at all. Used by the reconciler
// for pre-existing list entries.
func CheckConsistency(ref plugin.Ref, cat *catalog.Catalog) (Warning, bool, bool) {
	latest, ok := cat.LookupLatest(ref.Name)
	if !ok {
		return Warning{}, false, false
	}
	if plugin.CompareVersions(ref.Version, latest.Version) > 0 {
		return Warning{Required: ref, Available: latest}, true, true
	}
	return Warning{}, false, true
}

func notFound(name string) error {
	return errors.New(errors.ErrCodePluginNotFound, "plugin %s not found in update center", name)
}

type resolver struct {
	cat *catalog.Catalog

	closure Closure
	index   map[string]int // plugin key -> position in closure

	active map[string]bool // plugin keys on the current resolution path
	path   []string        // same path, ordered, for error messages

	warnings map[string]Warning // deduped by "name==version"
}

func (r *resolver) append(ref plugin.Ref) {
	r.index[ref.Key()] = len(r.closure)
	r.closure = append(r.closure, ref)
}

// merge folds one dependency edge into the accumulator, keeping the maximum
// version for an already-present name.
func (r *resolver) merge(dep plugin.Ref) {
	if i, ok := r.index[dep.Key()]; ok {
		if plugin.CompareVersions(dep.Version, r.closure[i].Version) > 0 {
			r.closure[i] = dep
		}
		return
	}
	r.append(dep)
}

func (r *resolver) solve(name string) error {
	key := strings.ToLower(name)
	if r.active[key] {
		return errors.New(errors.ErrCodeDependencyCycle,
			"dependency cycle: %s -> %s", strings.Join(r.path, " -> "), name)
	}

	latest, ok := r.cat.LookupLatest(name)
	if !ok {
		return notFound(name)
	}
	// Seed (or re-seed) the plugin at the catalog's latest version. On the
	// top-level call this places the target first in the closure; on
	// recursive calls it lifts a dependency required at an older version up
	// to the latest the catalog can actually provide.
	r.merge(latest)

	deps, ok := r.cat.DependenciesOf(name)
	if !ok {
		return notFound(name)
	}

	r.active[key] = true
	r.path = append(r.path, name)
	defer func() {
		delete(r.active, key)
		r.path = r.path[:len(r.path)-1]
	}()

	for _, dep := range deps {
		r.merge(dep)
		// Recurse on every edge, even when the dependency was already
		// present at an equal or higher version, folding its own closure
		// into the same accumulator.
		if err := r.solve(dep.Name); err != nil {
			return err
		}
	}

	r.checkClosure()
	return nil
}

// checkClosure records a consistency warning for every accumulated ref whose
// version exceeds the catalog's latest for that name.
func (r *resolver) checkClosure() {
	for _, ref := range r.closure {
		if w, warned, _ := CheckConsistency(ref, r.cat); warned {
			r.warnings[ref.String()] = w
		}
	}
}

func (r *resolver) sortedWarnings() []Warning {
	if len(r.warnings) == 0 {
		return nil
	}
	out := make([]Warning, 0, len(r.warnings))
	for _, w := range r.warnings {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Required.Name != out[j].Required.Name {
			return out[i].Required.Name < out[j].Required.Name
		}
		return plugin.CompareVersions(out[i].Required.Version, out[j].Required.Version) < 0
	})
	return out
}
