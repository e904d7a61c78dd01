// Package listfile reads and writes plugin-list files.
//
// A plugin list is a plain UTF-8 text file with one plugin per line in
// "name==version" form. Loading is best-effort: blank lines are skipped
// silently and malformed lines are skipped and counted, never fatal.
// Saving sorts lines by their literal serialized text (not by a semantic
// name/version ordering) so that repeated runs produce byte-identical files.
package listfile

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/cinchproject/jpm/pkg/plugin"
)

// Load reads the plugin list at path.
//
// It returns the parsed entries in file order and the number of malformed
// lines that were skipped. Blank lines are skipped without counting.
func Load(path string) ([]plugin.Ref, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var entries []plugin.Ref
	skipped := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ref, err := plugin.ParseEntry(line)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return entries, skipped, nil
}

// Save writes entries to the plugin list at path, one "name==version" line
// per entry, each line terminated. Lines are sorted lexically by their full
// serialized text; this ordering is part of the file format and keeps
// output stable across runs.
func Save(path string, entries []plugin.Ref) error {
	lines := make([]string, len(entries))
	for i, ref := range entries {
		lines[i] = ref.ListEntry()
	}
	sort.Strings(lines)
	return os.WriteFile(path, []byte(strings.Join(lines, "")), 0o644)
}
