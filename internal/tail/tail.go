package tail

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/MuchTitan/go-log-search/internal/source"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

const DefaultPollInterval = 500 * time.Millisecond

// LineFunc receives each newly appended line in append order.
type LineFunc func(file string, lineno int, line string) error

// cursor is the per-file tail state: open handle, byte offset of the next
// unread byte, running line number and the identity recorded at open time.
type cursor struct {
	file   *os.File
	offset int64
	lineno int
	inode  uint64
	size   int64
}

// Tailer polls a fixed set of files for appended content. The watched set
// is decided at construction and only ever shrinks: files that vanish or
// cannot be reopened after rotation are dropped. New files matching the
// original globs are not picked up.
type Tailer struct {
	interval time.Duration
	enc      encoding.Encoding
	state    map[string]*cursor
	order    []string
}

// New opens every file at its current end, so only lines appended after
// the session starts are reported. Compressed files are never watched.
func New(files []string, encodingName string, interval time.Duration) *Tailer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	t := &Tailer{
		interval: interval,
		enc:      source.Lookup(encodingName),
		state:    make(map[string]*cursor),
	}

	for _, path := range files {
		if source.IsCompressed(path) {
			logrus.WithField("path", path).Warn("follow mode skips compressed file")
			continue
		}
		cur, err := openAtEnd(path)
		if err != nil {
			logrus.WithField("path", path).WithError(err).Warn("cannot open file for follow")
			continue
		}
		t.state[path] = cur
		t.order = append(t.order, path)
	}

	return t
}

// Watched returns the number of files currently in the watched set.
func (t *Tailer) Watched() int {
	return len(t.state)
}

func openAtEnd(path string) (*cursor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	return &cursor{file: file, offset: offset, inode: fileID(info), size: info.Size()}, nil
}

func fileID(info os.FileInfo) uint64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return stat.Ino
	}
	return 0
}

// Run polls until ctx is canceled. Cancellation is observed between
// sweeps; the sweep in flight finishes before Run returns.
func (t *Tailer) Run(ctx context.Context, fn LineFunc) error {
	defer t.closeAll()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := t.sweep(fn); err != nil {
				return err
			}
		}
	}
}

// sweep visits every watched file once: drop it if it vanished, reopen at
// the new end if it shrank, otherwise read everything past the cursor.
func (t *Tailer) sweep(fn LineFunc) error {
	for _, path := range t.order {
		cur, ok := t.state[path]
		if !ok {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				logrus.WithField("path", path).Warn("watched file disappeared")
			} else {
				logrus.WithField("path", path).WithError(err).Warn("tail stat error")
			}
			t.drop(path, cur)
			continue
		}

		if info.Size() < cur.size {
			// Truncated in place or replaced under the same name. Either
			// way the old cursor is meaningless: start over at the new
			// end with a fresh line counter.
			cur.file.Close()
			reopened, err := openAtEnd(path)
			if err != nil {
				logrus.WithField("path", path).WithError(err).Warn("cannot reopen rotated file")
				delete(t.state, path)
				continue
			}
			t.state[path] = reopened
			continue
		}

		if info.Size() > cur.offset {
			if err := t.readNew(path, cur, fn); err != nil {
				return err
			}
		}
		// readNew can drop the file on a read error.
		if cur, ok = t.state[path]; ok {
			cur.size = info.Size()
		}
	}
	return nil
}

// readNew reads all complete lines past the cursor and feeds them through
// fn. A trailing line without a terminator stays unread until a later
// sweep sees it completed, so lines are never emitted split.
func (t *Tailer) readNew(path string, cur *cursor, fn LineFunc) error {
	if _, err := cur.file.Seek(cur.offset, io.SeekStart); err != nil {
		logrus.WithField("path", path).WithError(err).Warn("tail seek error")
		t.drop(path, cur)
		return nil
	}

	reader := bufio.NewReader(cur.file)
	dec := t.enc.NewDecoder()

	for {
		raw, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				logrus.WithField("path", path).WithError(err).Warn("tail read error")
				t.drop(path, cur)
			}
			return nil
		}

		cur.offset += int64(len(raw))
		cur.lineno++

		line, derr := dec.Bytes(raw)
		if derr != nil {
			line = raw
		}
		if err := fn(path, cur.lineno, strings.TrimRight(string(line), "\r\n")); err != nil {
			return err
		}
	}
}

func (t *Tailer) drop(path string, cur *cursor) {
	cur.file.Close()
	delete(t.state, path)
}

func (t *Tailer) closeAll() {
	for path, cur := range t.state {
		cur.file.Close()
		delete(t.state, path)
	}
}
