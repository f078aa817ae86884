package tail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type collected struct {
	file   string
	lineno int
	line   string
}

func collector(out *[]collected) LineFunc {
	return func(file string, lineno int, line string) error {
		*out = append(*out, collected{file, lineno, line})
		return nil
	}
}

func appendTo(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(data); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestTailer_StartsAtEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	assert.NoError(t, os.WriteFile(path, []byte("old line 1\nold line 2\n"), 0644))

	tailer := New([]string{path}, "utf-8", 0)
	defer tailer.closeAll()
	assert.Equal(t, 1, tailer.Watched())

	var got []collected
	assert.NoError(t, tailer.sweep(collector(&got)))
	assert.Empty(t, got, "pre-existing lines must not be reported")
}

func TestTailer_AppendedLinesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	assert.NoError(t, os.WriteFile(path, []byte("seed\n"), 0644))

	tailer := New([]string{path}, "utf-8", 0)
	defer tailer.closeAll()

	var got []collected
	appendTo(t, path, "one\ntwo\nthree\n")
	assert.NoError(t, tailer.sweep(collector(&got)))

	assert.Equal(t, []collected{
		{path, 1, "one"},
		{path, 2, "two"},
		{path, 3, "three"},
	}, got)

	// line numbers continue across sweeps
	got = nil
	appendTo(t, path, "four\n")
	assert.NoError(t, tailer.sweep(collector(&got)))
	assert.Equal(t, []collected{{path, 4, "four"}}, got)
}

func TestTailer_PartialLineHeldBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	assert.NoError(t, os.WriteFile(path, nil, 0644))

	tailer := New([]string{path}, "utf-8", 0)
	defer tailer.closeAll()

	var got []collected
	appendTo(t, path, "complete\npart")
	assert.NoError(t, tailer.sweep(collector(&got)))
	assert.Equal(t, []collected{{path, 1, "complete"}}, got)

	got = nil
	appendTo(t, path, "ial\n")
	assert.NoError(t, tailer.sweep(collector(&got)))
	assert.Equal(t, []collected{{path, 2, "partial"}}, got)
}

func TestTailer_TruncationResetsLineCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	assert.NoError(t, os.WriteFile(path, []byte("a lot of old content here\n"), 0644))

	tailer := New([]string{path}, "utf-8", 0)
	defer tailer.closeAll()

	var got []collected
	appendTo(t, path, "first\nsecond\n")
	assert.NoError(t, tailer.sweep(collector(&got)))
	assert.Len(t, got, 2)
	assert.Equal(t, 2, got[1].lineno)

	// truncate to a smaller size: next sweep reopens at the new end
	assert.NoError(t, os.WriteFile(path, []byte("new\n"), 0644))
	got = nil
	assert.NoError(t, tailer.sweep(collector(&got)))
	assert.Empty(t, got, "content present at reopen time is skipped")
	assert.Equal(t, 1, tailer.Watched())

	appendTo(t, path, "after rotation\n")
	assert.NoError(t, tailer.sweep(collector(&got)))
	assert.Equal(t, []collected{{path, 1, "after rotation"}}, got, "line counter restarts at 1")
}

func TestTailer_VanishedFileDropped(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.log")
	gone := filepath.Join(dir, "gone.log")
	assert.NoError(t, os.WriteFile(keep, nil, 0644))
	assert.NoError(t, os.WriteFile(gone, nil, 0644))

	tailer := New([]string{keep, gone}, "utf-8", 0)
	defer tailer.closeAll()
	assert.Equal(t, 2, tailer.Watched())

	assert.NoError(t, os.Remove(gone))

	var got []collected
	appendTo(t, keep, "still here\n")
	assert.NoError(t, tailer.sweep(collector(&got)))

	assert.Equal(t, 1, tailer.Watched(), "vanished file leaves the watched set")
	assert.Equal(t, []collected{{keep, 1, "still here"}}, got, "other files keep working")
}

func TestTailer_SkipsCompressedFiles(t *testing.T) {
	dir := t.TempDir()
	gz := filepath.Join(dir, "old.log.gz")
	plain := filepath.Join(dir, "app.log")
	assert.NoError(t, os.WriteFile(gz, []byte("not really gzip"), 0644))
	assert.NoError(t, os.WriteFile(plain, nil, 0644))

	tailer := New([]string{gz, plain}, "utf-8", 0)
	defer tailer.closeAll()
	assert.Equal(t, 1, tailer.Watched())
}

func TestTailer_RunStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	assert.NoError(t, os.WriteFile(path, nil, 0644))

	tailer := New([]string{path}, "utf-8", 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan collected, 10)
	done := make(chan error, 1)
	go func() {
		done <- tailer.Run(ctx, func(file string, lineno int, line string) error {
			lines <- collected{file, lineno, line}
			return nil
		})
	}()

	appendTo(t, path, "live line\n")

	deadline := time.After(5 * time.Second)
	select {
	case got := <-lines:
		assert.Equal(t, collected{path, 1, "live line"}, got)
	case <-deadline:
		t.Fatal("timeout waiting for tailed line")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-deadline:
		t.Fatal("timeout waiting for Run to stop")
	}
}
