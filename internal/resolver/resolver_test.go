package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.log"))
	writeFile(t, filepath.Join(dir, "a.log"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, "sub", "deep", "c.log"))

	files, err := Resolve([]string{filepath.Join(dir, "**", "*.log"), filepath.Join(dir, "*.log")}, nil)
	assert.NoError(t, err)

	want := []string{
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "sub", "deep", "c.log"),
	}
	assert.Equal(t, want, files)
	assert.True(t, sort.StringsAreSorted(files))
}

func TestResolve_DeduplicatesOverlappingPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.log"))

	files, err := Resolve([]string{
		filepath.Join(dir, "*.log"),
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "**", "*.log"),
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.log")}, files)
}

func TestResolve_Excludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.log"))
	writeFile(t, filepath.Join(dir, "archive", "old.log"))

	files, err := Resolve(
		[]string{filepath.Join(dir, "**", "*.log")},
		[]string{filepath.Join(dir, "archive", "**")},
	)
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "keep.log")}, files)
}

func TestResolve_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "dir.log"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "real.log"))

	files, err := Resolve([]string{filepath.Join(dir, "*.log")}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "real.log")}, files)
}

func TestResolve_NoFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := Resolve([]string{filepath.Join(dir, "*.log")}, nil)
	assert.ErrorIs(t, err, ErrNoFiles)

	// a pattern matching nothing is not an error by itself
	writeFile(t, filepath.Join(dir, "a.log"))
	files, err := Resolve([]string{filepath.Join(dir, "*.log"), filepath.Join(dir, "*.missing")}, nil)
	assert.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestResolve_EnvExpansion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.log"))
	t.Setenv("LOGSEARCH_TEST_DIR", dir)

	files, err := Resolve([]string{filepath.Join("$LOGSEARCH_TEST_DIR", "*.log")}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.log")}, files)
}
