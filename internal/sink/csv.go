package sink

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"

	"github.com/MuchTitan/go-log-search/internal"
)

var csvFixedColumns = []string{"file", "lineno", "timestamp", "reason"}

// CSV writes a header row followed by one row per record. The header is
// fixed at first write: the fixed columns, the alphabetically sorted field
// names of the first record, then "line". Later records that introduce new
// field names simply omit them from their row; the header never widens.
type CSV struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	fields []string // dynamic column set, nil until the first record
	wrote  bool
}

func NewCSV(w io.Writer, closer io.Closer) *CSV {
	return &CSV{w: csv.NewWriter(w), closer: closer}
}

func (s *CSV) Write(rec *internal.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.wrote {
		s.fields = sortedKeys(rec.Fields)
		header := make([]string, 0, len(csvFixedColumns)+len(s.fields)+1)
		header = append(header, csvFixedColumns...)
		header = append(header, s.fields...)
		header = append(header, "line")
		if err := s.w.Write(header); err != nil {
			return err
		}
		s.wrote = true
	}

	row := make([]string, 0, len(csvFixedColumns)+len(s.fields)+1)
	row = append(row, rec.File, strconv.Itoa(rec.LineNum), rec.Timestamp, rec.Reason)
	for _, name := range s.fields {
		row = append(row, rec.Fields[name])
	}
	row = append(row, rec.Line)

	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
