// Package reconcile updates plugin-list files against a catalog snapshot.
//
// Lists are processed in precedence order: a plugin name refined into an
// earlier list is never re-added to a later one in the same pass. Within a
// list, freshly resolved dependency closures are folded into the existing
// entries and merged by name with "latest wins" semantics, so every entry is
// refreshed to the catalog's latest version along with its current
// dependency closure.
//
// Reconciliation is deliberately forgiving: a list entry missing from the
// catalog is recorded in the report (and optionally dropped) rather than
// failing the run. Only an explicit single-target update of an unknown
// plugin is fatal.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cinchproject/jpm/pkg/catalog"
	"github.com/cinchproject/jpm/pkg/errors"
	"github.com/cinchproject/jpm/pkg/listfile"
	"github.com/cinchproject/jpm/pkg/plugin"
	"github.com/cinchproject/jpm/pkg/resolve"
)

// Options configures a reconciliation pass.
type Options struct {
	// Lists holds the plugin-list file paths in precedence order: names
	// refined into an earlier list are suppressed in all later lists.
	Lists []string

	// Plugin selects single-target mode: only this plugin (and its closure)
	// is updated, in the first list that already contains it, or appended to
	// the lowest-precedence list when no list does. Empty means all-entries
	// mode, refreshing every entry in every list.
	Plugin string

	// RemoveMissing drops entries absent from the catalog instead of
	// retaining them unchanged. Dropped names are still reported.
	RemoveMissing bool

	// DryRun skips writing list files back; the report is still produced.
	DryRun bool

	// Logger receives progress and skip messages. Optional.
	Logger func(format string, args ...any)
}

// Report summarizes one reconciliation pass.
type Report struct {
	// RunID uniquely identifies this pass in logs and reports.
	RunID string

	// Missing maps each list path to the catalog-missing plugin names found
	// in it, sorted. Names are reported whether or not RemoveMissing dropped
	// them from the list.
	Missing map[string][]string

	// Warnings holds the consistency warnings accumulated across all lists:
	// entries or resolved refs newer than the catalog's advertised latest.
	Warnings []resolve.Warning

	// MalformedSkipped maps each list path to the number of unparseable
	// lines skipped while loading it.
	MalformedSkipped map[string]int
}

// HasMissing reports whether any list contained catalog-missing plugins.
func (r *Report) HasMissing() bool {
	for _, names := range r.Missing {
		if len(names) > 0 {
			return true
		}
	}
	return false
}

// Reconcile runs one reconciliation pass over opts.Lists against cat.
//
// In all-entries mode every surviving entry is re-resolved and refreshed;
// entries whose names are unknown to the catalog are skipped (and retained)
// per entry. In single-target mode a PLUGIN_NOT_FOUND for the target aborts
// the whole pass.
func Reconcile(cat *catalog.Catalog, opts Options) (*Report, error) {
	if len(opts.Lists) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidList, "no plugin lists given")
	}
	logf := opts.Logger
	if logf == nil {
		logf = func(string, ...any) {}
	}

	report := &Report{
		RunID:            uuid.NewString(),
		Missing:          make(map[string][]string, len(opts.Lists)),
		MalformedSkipped: make(map[string]int, len(opts.Lists)),
	}
	warnings := newWarningSet()

	// Names already refined into a higher-precedence list. Passed explicitly
	// through every helper; never shared implicitly.
	seen := make(map[string]bool)

	for i, path := range opts.Lists {
		entries, skipped, err := listfile.Load(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "load plugin list %s", path)
		}
		if skipped > 0 {
			report.MalformedSkipped[path] = skipped
			logf("skipped %d malformed lines in %s", skipped, path)
		}

		kept, missing := screenEntries(entries, cat, opts.RemoveMissing, warnings)
		report.Missing[path] = missing

		working := kept
		lowestPrecedence := i == len(opts.Lists)-1
		if opts.Plugin != "" {
			folded, err := foldTarget(working, opts.Plugin, cat, lowestPrecedence, seen, warnings)
			if err != nil {
				return nil, err
			}
			working = folded
		} else {
			working = foldAll(working, cat, warnings, logf)
		}

		refined := refine(working, seen)
		if !opts.DryRun {
			if err := listfile.Save(path, refined); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "save plugin list %s", path)
			}
		}

		for _, ref := range refined {
			seen[ref.Key()] = true
		}
		logf("reconciled %s: %d entries, %d missing", path, len(refined), len(missing))
	}

	report.Warnings = warnings.sorted()
	return report, nil
}

// screenEntries checks existing list entries against the catalog. Entries
// present in the catalog are kept (warning if newer than catalog latest);
// entries absent from the catalog are reported missing, and kept only when
// removeMissing is false.
func screenEntries(entries []plugin.Ref, cat *catalog.Catalog, removeMissing bool, warnings *warningSet) (kept []plugin.Ref, missing []string) {
	missingSet := make(map[string]bool)
	for _, ref := range entries {
		w, warned, found := resolve.CheckConsistency(ref, cat)
		if !found {
			missingSet[ref.Name] = true
			if removeMissing {
				continue
			}
			kept = append(kept, ref)
			continue
		}
		if warned {
			warnings.add(w)
		}
		kept = append(kept, ref)
	}
	for name := range missingSet {
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return kept, missing
}

// foldTarget handles single-target mode for one list. The target's closure
// is folded into this list if the list already contains the target, or if
// this is the lowest-precedence list and no earlier list claimed it.
// A missing target is fatal here, unlike the per-entry recovery in foldAll.
func foldTarget(entries []plugin.Ref, target string, cat *catalog.Catalog, lowestPrecedence bool, seen map[string]bool, warnings *warningSet) ([]plugin.Ref, error) {
	inList := containsName(entries, target)
	if !inList && !(lowestPrecedence && !seen[strings.ToLower(target)]) {
		return entries, nil
	}

	closure, ws, err := resolve.Resolve(target, cat)
	if err != nil {
		return nil, err
	}
	warnings.addAll(ws)
	return append(entries, closure...), nil
}

// foldAll refreshes every entry by folding its full closure into the list.
// Since each closure starts with the resolved plugin at its latest catalog
// version, this also upgrades every existing entry. Entries the catalog
// doesn't know are skipped and retained as-is.
func foldAll(entries []plugin.Ref, cat *catalog.Catalog, warnings *warningSet, logf func(string, ...any)) []plugin.Ref {
	folded := entries
	for _, ref := range entries {
		closure, ws, err := resolve.Resolve(ref.Name, cat)
		if err != nil {
			// Missing or unresolvable entries were already reported by
			// screenEntries; keep the original entry untouched.
			logf("skipping refresh of %s: %v", ref.Name, err)
			continue
		}
		warnings.addAll(ws)
		folded = append(folded, closure...)
	}
	return folded
}

// refine deduplicates entries by name, keeping the maximum version per name
// and excluding names already claimed by a higher-precedence list. Order of
// first appearance is preserved (Save re-sorts lines anyway).
func refine(entries []plugin.Ref, seen map[string]bool) []plugin.Ref {
	index := make(map[string]int)
	var out []plugin.Ref
	for _, ref := range entries {
		key := ref.Key()
		if seen[key] {
			continue
		}
		if i, ok := index[key]; ok {
			if plugin.CompareVersions(ref.Version, out[i].Version) > 0 {
				out[i] = ref
			}
			continue
		}
		index[key] = len(out)
		out = append(out, ref)
	}
	return out
}

func containsName(entries []plugin.Ref, name string) bool {
	for _, ref := range entries {
		if strings.EqualFold(ref.Name, name) {
			return true
		}
	}
	return false
}

// warningSet accumulates consistency warnings deduplicated by plugin name
// and version.
type warningSet struct {
	byKey map[string]resolve.Warning
}

func newWarningSet() *warningSet {
	return &warningSet{byKey: make(map[string]resolve.Warning)}
}

func (s *warningSet) add(w resolve.Warning) {
	s.byKey[fmt.Sprintf("%s==%s", strings.ToLower(w.Required.Name), w.Required.Version)] = w
}

func (s *warningSet) addAll(ws []resolve.Warning) {
	for _, w := range ws {
		s.add(w)
	}
}

func (s *warningSet) sorted() []resolve.Warning {
	if len(s.byKey) == 0 {
		return nil
	}
	out := make([]resolve.Warning, 0, len(s.byKey))
	for _, w := range s.byKey {
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
