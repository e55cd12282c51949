package walker

import "path/filepath"

// Excluded reports whether path matches any of the patterns.
func Excluded(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchesPattern(path, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern matches a pattern as a path prefix, then as a glob against
// the base name, then as a glob against the full path.
func matchesPattern(path, pattern string) bool {
	if pattern == "" {
		return false
	}

	if path == pattern {
		return true
	}
	if len(path) > len(pattern) && path[:len(pattern)+1] == pattern+string(filepath.Separator) {
		return true
	}

	if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
		return true
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	return false
}
