package sink

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/MuchTitan/go-log-search/internal"
)

// JSONL writes one JSON object per record, one record at a time, with the
// fixed keys file, lineno, timestamp, reason, line and all extracted
// fields flattened in. The whole result set is never buffered.
type JSONL struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

func NewJSONL(w io.Writer, closer io.Closer) *JSONL {
	return &JSONL{w: w, closer: closer}
}

func (s *JSONL) Write(rec *internal.Record) error {
	obj := map[string]any{
		"file":      rec.File,
		"lineno":    rec.LineNum,
		"timestamp": rec.Timestamp,
		"reason":    rec.Reason,
		"line":      rec.Line,
	}
	for k, v := range rec.Fields {
		obj[k] = v
	}

	// json.Marshal sorts map keys, so output is deterministic.
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(data)
	return err
}

func (s *JSONL) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
