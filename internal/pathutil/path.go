// Package pathutil converts module entry names to relative file paths.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize converts an entry name to a slash-separated path.
// String table names use backslashes; synthesized tag paths already use slashes.
func Normalize(name string) string {
	return strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
}

// Local returns the OS path for name relative to an extraction root.
// ok is false when the name is empty or would escape the root.
func Local(name string) (path string, ok bool) {
	path = filepath.FromSlash(Normalize(name))
	if path == "" || !filepath.IsLocal(path) {
		return "", false
	}
	return path, true
}
