package errors

import (
	"strings"
	"unicode"
)

// ValidatePluginName validates a plugin name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - No whitespace or "==" (the list-entry separator)
//   - Maximum length of 256 characters
func ValidatePluginName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "plugin name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "plugin name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "plugin name contains invalid characters")
		}
	}

	// Patterns that would break list files or cache paths
	dangerousPatterns := []string{
		"==",   // List-entry separator
		"..",   // Parent directory
		"//",   // Double slash
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "plugin name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
