package errors

import (
	"strings"
	"unicode"
)

// maxPackageNameLen is the npm registry limit for package names.
const maxPackageNameLen = 214

// ValidatePackageName validates an npm package name before it is used to
// build registry URLs or cache keys.
//
// The rules follow the registry's own constraints:
//   - No empty names, no names longer than 214 characters
//   - No control characters, whitespace or path traversal sequences
//   - Unscoped names cannot start with "." or "_"
//   - Scoped names have the form "@scope/name" with both parts non-empty
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if len(name) > maxPackageNameLen {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxPackageNameLen)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters")
		}
	}

	for _, pattern := range []string{"..", "//", "\\", "?", "#"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	if strings.HasPrefix(name, "@") {
		scope, pkg, ok := strings.Cut(name[1:], "/")
		if !ok || scope == "" || pkg == "" || strings.Contains(pkg, "/") {
			return New(ErrCodeInvalidPackage, "scoped package name must look like @scope/name: %q", name)
		}
		return nil
	}

	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return New(ErrCodeInvalidPackage, "package name cannot start with %q", name[:1])
	}
	if strings.Contains(name, "/") {
		return New(ErrCodeInvalidPackage, "unscoped package name cannot contain '/': %q", name)
	}
	return nil
}

// ValidateRepoSlug validates an "owner/repo" repository identifier.
func ValidateRepoSlug(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(slug), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", New(ErrCodeInvalidInput, "repository must be in owner/repo form: %q", slug)
	}
	if strings.Contains(owner, "..") || strings.Contains(repo, "..") {
		return "", "", New(ErrCodeInvalidInput, "repository contains invalid characters: %q", slug)
	}
	return owner, strings.TrimSuffix(repo, ".git"), nil
}
