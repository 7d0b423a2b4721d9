package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// ValidateIdentifier validates a caller-chosen identifier such as a node id,
// a node group name or a custom attribute name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateIdentifier(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "%s too long (max 256 characters)", kind)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", kind)
		}
	}

	return nil
}

// ValidateDescriptorPath validates the path of a descriptor file given on the
// command line. Only the shape of the path is checked; existence is left to the reader.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Must have a .json extension
func ValidateDescriptorPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return New(ErrCodeInvalidPath, "descriptor must be a .json file: %q", path)
	}

	return nil
}

// attributeNameRegex matches attribute names accepted by geometry hosts.
var attributeNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ValidateAttributeName validates a custom attribute name used by presets.
func ValidateAttributeName(name string) error {
	if err := ValidateIdentifier("attribute name", name); err != nil {
		return err
	}

	if !attributeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid attribute name: %q", name)
	}

	return nil
}

// ValidateRedisURL validates a cache backend URL.
// It ensures the URL uses the redis or rediss scheme.
func ValidateRedisURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidInput, "URL must use redis or rediss scheme")
	}

	return nil
}
