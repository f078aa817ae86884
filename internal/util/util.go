package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands environment variables and a leading ~ in a path or
// glob pattern.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// MergeMaps copies all entries of m2 into m1, overwriting on key collision.
func MergeMaps(m1, m2 map[string]string) map[string]string {
	for k, v := range m2 {
		m1[k] = v
	}
	return m1
}
