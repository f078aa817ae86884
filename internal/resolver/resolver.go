package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/MuchTitan/go-log-search/internal/util"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
)

// ErrNoFiles is returned when no include pattern matched an existing
// regular file. Fatal for a batch run, there is nothing to scan.
var ErrNoFiles = errors.New("no files matched the include patterns")

// Resolve expands the include globs, keeps existing regular files,
// deduplicates and sorts them, then removes anything matched by an exclude
// glob. Patterns support env vars, a leading ~ and recursive **.
func Resolve(include, exclude []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range include {
		for _, match := range expand(pattern) {
			info, err := os.Stat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			abs, err := filepath.Abs(match)
			if err != nil {
				continue
			}
			if _, ok := seen[abs]; ok {
				continue
			}
			seen[abs] = struct{}{}
			files = append(files, abs)
		}
	}

	sort.Strings(files)

	if len(exclude) > 0 {
		excluded := make(map[string]struct{})
		for _, pattern := range exclude {
			for _, match := range expand(pattern) {
				if abs, err := filepath.Abs(match); err == nil {
					excluded[abs] = struct{}{}
				}
			}
		}
		kept := files[:0]
		for _, f := range files {
			if _, ok := excluded[f]; !ok {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

func expand(pattern string) []string {
	matches, err := doublestar.FilepathGlob(util.ExpandPath(pattern))
	if err != nil {
		logrus.WithField("pattern", pattern).WithError(err).Warn("skipping bad glob pattern")
		return nil
	}
	return matches
}
