package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal when joined into a
// node_modules path.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 214 characters (npm's limit)
//   - Scoped names must have exactly one slash ("@scope/name")
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 214 {
		return New(ErrCodeInvalidPackage, "package name too long (max 214 characters): %q", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters: %q", name)
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	slashes := strings.Count(name, "/")
	switch {
	case strings.HasPrefix(name, "@") && slashes != 1:
		return New(ErrCodeInvalidPackage, "scoped package name must look like @scope/name: %q", name)
	case !strings.HasPrefix(name, "@") && slashes != 0:
		return New(ErrCodeInvalidPackage, "package name cannot contain a slash: %q", name)
	}

	return nil
}
