package files

import (
	"path/filepath"
	"strings"
)

// PathGuard decides whether an absolute filesystem path may be read and
// served. A path is allowed when it equals, or is a separator-delimited
// descendant of, an allow-listed directory prefix. The allow-list always
// contains the upload directory and may be extended by operator
// configuration. Every user-supplied path must pass this gate before any
// filesystem read.
type PathGuard struct {
	allowed []string
}

// NewPathGuard builds the allow-list from the upload directory and extra
// operator-configured prefixes. Entries that cannot be resolved are skipped.
func NewPathGuard(uploadDir string, extraPaths []string) *PathGuard {
	g := &PathGuard{}
	for _, p := range append([]string{uploadDir}, extraPaths...) {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		g.allowed = append(g.allowed, filepath.Clean(abs))
	}
	return g
}

// Allowed reports whether the path resolves inside the allow-list. Malformed
// input yields false, never an error.
func (g *PathGuard) Allowed(path string) bool {
	if path == "" {
		return false
	}

	resolved, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	resolved = filepath.Clean(resolved)

	for _, prefix := range g.allowed {
		if resolved == prefix || strings.HasPrefix(resolved, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
