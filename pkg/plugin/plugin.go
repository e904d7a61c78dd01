// Package plugin defines the identity and version model for Jenkins plugins.
//
// A [Ref] names a plugin at a specific version. Identity and ordering are
// deliberately split into two operations: [Ref.SameAs] compares names only
// (case-insensitively, ignoring versions), while [Ref.CompareVersion]
// compares versions only and refuses to compare refs with different names.
// Collapsing both into a single equality or ordering relation is how the
// "latest wins" merge is implemented throughout jpm: containers key by name
// but store the highest version seen.
//
// Refs serialize to plugin-list lines of the form "name==version".
package plugin

import (
	"strconv"
	"strings"

	"github.com/cinchproject/jpm/pkg/errors"
)

// SentinelVersion is assigned to list entries written as a bare plugin name.
// It compares less than any real version, so a bare entry is always refreshed
// to the catalog's latest version on the next reconciliation.
const SentinelVersion = "0"

// Ref identifies a plugin at a specific version.
//
// The zero value is not a valid Ref; construct with [New] or [ParseEntry].
type Ref struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// New creates a Ref with the given name and version.
// An empty version defaults to [SentinelVersion]. Blank names are the
// caller's responsibility to reject (see errors.ValidatePluginName).
func New(name, version string) Ref {
	if version == "" {
		version = SentinelVersion
	}
	return Ref{Name: name, Version: version}
}

// Key returns the canonical lookup key for this plugin: the name folded to
// lower case. Two refs with equal keys refer to the same plugin regardless
// of version.
func (r Ref) Key() string {
	return strings.ToLower(r.Name)
}

// SameAs reports whether other names the same plugin, comparing names
// case-insensitively and ignoring versions entirely.
func (r Ref) SameAs(other Ref) bool {
	return strings.EqualFold(r.Name, other.Name)
}

// CompareVersion compares the versions of two refs naming the same plugin.
// It returns -1, 0, or +1 if r's version is less than, equal to, or greater
// than other's.
//
// Comparing versions of two different plugins is a misuse; CompareVersion
// returns a NAME_MISMATCH error in that case. Callers that have already
// established name equality can use [CompareVersions] on the raw strings.
func (r Ref) CompareVersion(other Ref) (int, error) {
	if !r.SameAs(other) {
		return 0, errors.New(errors.ErrCodeNameMismatch,
			"cannot compare versions of %s and %s", r.Name, other.Name)
	}
	return CompareVersions(r.Version, other.Version), nil
}

// String returns the list-entry form without a trailing newline,
// e.g. "git==5.2.0".
func (r Ref) String() string {
	return r.Name + "==" + r.Version
}

// ListEntry returns the serialized plugin-list line for this ref,
// including the terminating newline: "name==version\n".
func (r Ref) ListEntry() string {
	return r.String() + "\n"
}

// ParseEntry parses a single plugin-list line.
//
// Accepted forms:
//   - "name==version": name and version taken verbatim
//   - "name": bare name, version defaults to [SentinelVersion]
//
// Anything else (an empty name, an empty version, or more than one "=="
// separator) yields a MALFORMED_ENTRY error. Leading and trailing whitespace
// is trimmed before parsing.
func ParseEntry(line string) (Ref, error) {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, "==")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return Ref{}, errors.New(errors.ErrCodeMalformedEntry, "blank plugin entry")
		}
		return New(parts[0], SentinelVersion), nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Ref{}, errors.New(errors.ErrCodeMalformedEntry, "malformed plugin entry: %q", line)
		}
		return New(parts[0], parts[1]), nil
	default:
		return Ref{}, errors.New(errors.ErrCodeMalformedEntry, "malformed plugin entry: %q", line)
	}
}

// CompareVersions compares two version strings segment-wise on their
// dot-separated components. It returns -1, 0, or +1.
//
// Each pair of segments is compared numerically when both parse as integers,
// and lexically as strings otherwise. A version with fewer segments is
// treated as having absent trailing segments, which compare less than any
// present segment: "1.0" < "1.0.0" and "2.9" < "2.10".
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		switch {
		case i >= len(as):
			return -1
		case i >= len(bs):
			return 1
		}
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(a, b string) int {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
