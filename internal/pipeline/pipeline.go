package pipeline

import (
	"time"

	"github.com/MuchTitan/go-log-search/internal"
	"github.com/MuchTitan/go-log-search/internal/sink"
)

// Pipeline is the shared per-line path: timestamp extraction, window
// filtering, matching, field extraction, then the sink. The batch driver
// and the tail engine both feed lines through the same pipeline.
type Pipeline struct {
	Matcher    *Matcher
	Timestamps *TimestampExtractor
	Fields     *FieldExtractor
	Window     Window
	Sink       sink.Sink
}

// Process runs one line through the pipeline. It reports whether the line
// was accepted; a non-nil error is a sink write failure.
func (p *Pipeline) Process(file string, lineno int, line string) (bool, error) {
	ts := p.Timestamps.Extract(line)
	if !p.Window.Contains(ts) {
		return false, nil
	}

	ok, reason := p.Matcher.Match(line)
	if !ok {
		return false, nil
	}

	rec := &internal.Record{
		File:    file,
		LineNum: lineno,
		Reason:  reason,
		Line:    line,
		Fields:  p.Fields.Extract(line),
	}
	if ts != nil {
		rec.Timestamp = ts.Format(time.RFC3339)
	}

	return true, p.Sink.Write(rec)
}
