package source

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const gzipSuffix = ".gz"

// IsCompressed reports whether path carries a recognized compressed-file
// suffix. Compressed files are read transparently in a batch pass but are
// never candidates for follow mode.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, gzipSuffix)
}

// Lookup resolves an encoding name to a decoder source. Unknown or empty
// names fall back to utf-8; the utf-8 decoder substitutes U+FFFD for
// invalid bytes instead of failing.
func Lookup(name string) encoding.Encoding {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		logrus.WithField("encoding", name).Warn("unknown encoding, falling back to utf-8")
		return unicode.UTF8
	}
	return enc
}

// LineReader yields the lines of a single file with 1-based line numbers,
// terminators stripped.
type LineReader struct {
	file   *os.File
	gz     *gzip.Reader
	reader *bufio.Reader
	lineno int
}

// Open opens path for line reading, decompressing .gz files transparently
// and decoding with the named encoding.
func Open(path, encodingName string) (*LineReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var r io.Reader = file
	var gz *gzip.Reader
	if IsCompressed(path) {
		gz, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("error opening gzip stream: %w", err)
		}
		r = gz
	}

	r = transform.NewReader(r, Lookup(encodingName).NewDecoder())

	return &LineReader{file: file, gz: gz, reader: bufio.NewReader(r)}, nil
}

// Next returns the next line and its number. io.EOF signals a clean end of
// file; a final line without a terminator is still returned.
func (lr *LineReader) Next() (int, string, error) {
	line, err := lr.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			lr.lineno++
			return lr.lineno, strings.TrimRight(line, "\r\n"), nil
		}
		return 0, "", err
	}
	lr.lineno++
	return lr.lineno, strings.TrimRight(line, "\r\n"), nil
}

func (lr *LineReader) Close() error {
	if lr.gz != nil {
		lr.gz.Close()
	}
	return lr.file.Close()
}
