package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateColumnName validates a dataset header.
//
// The rules are conservative:
//   - No empty names
//   - No control characters (they would break the rendered header row)
//   - Maximum length of 256 characters
func ValidateColumnName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidColumn, "column name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidColumn, "column name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidColumn, "column name %q contains control characters", name)
		}
	}

	return nil
}

// ValidatePath validates a dataset file path given on the command line or
// through the HTTP API.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a connection URL and checks its scheme against
// the allowed list (for example "redis", "rediss" or "mongodb").
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "malformed URL")
	}

	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return New(ErrCodeInvalidURL, "URL scheme %q not allowed (want one of %s)", u.Scheme, strings.Join(schemes, ", "))
}
