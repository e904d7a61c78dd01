// Package updatecenter fetches and decodes Jenkins update-center metadata.
//
// The update center publishes a catalog of all distributable plugins as
// update-center.json. The payload is not plain JSON: it is wrapped in a
// JavaScript callback, so [Unwrap] strips everything outside the outermost
// braces before decoding.
//
// [Client] downloads the catalog with retry and caches the decoded payload
// through a pluggable [cache.Cache] backend, so repeated CLI invocations
// within the TTL don't hit the network.
package updatecenter

import (
	"bytes"
	"strings"

	"github.com/cinchproject/jpm/pkg/errors"
)

// JSONFile is the filename of the update-center payload on every mirror.
const JSONFile = "update-center.json"

// DefaultBaseURL is the upstream Jenkins update center.
const DefaultBaseURL = "https://updates.jenkins.io"

// Data is the decoded update-center payload, reduced to the parts jpm needs.
type Data struct {
	Plugins map[string]Plugin `json:"plugins"`
}

// Plugin describes one distributable plugin as advertised by the update center.
type Plugin struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Dependencies []Dependency `json:"dependencies"`
}

// Dependency is a direct dependency edge declared by a plugin.
type Dependency struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Optional bool   `json:"optional"`
}

// URL joins a base URL and an optional update-center version into the full
// update-center.json URL.
//
//	URL("https://updates.jenkins.io", "2.462") = "https://updates.jenkins.io/2.462/update-center.json"
//	URL("https://updates.jenkins.io", "")      = "https://updates.jenkins.io/update-center.json"
func URL(base, version string) string {
	parts := []string{strings.TrimRight(base, "/")}
	if version != "" {
		parts = append(parts, version)
	}
	parts = append(parts, JSONFile)
	return strings.Join(parts, "/")
}

// Unwrap extracts the JSON object from a JSONP-wrapped update-center body.
// The update center wraps its JSON in a JavaScript function call, so the
// actual payload is everything between the first '{' and the last '}'.
func Unwrap(body []byte) ([]byte, error) {
	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return nil, errors.New(errors.ErrCodeInvalidInput, "update center payload contains no JSON object")
	}
	return body[start : end+1], nil
}
