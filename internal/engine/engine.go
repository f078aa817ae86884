package engine

import (
	"context"
	"io"
	"time"

	"github.com/MuchTitan/go-log-search/internal"
	"github.com/MuchTitan/go-log-search/internal/config"
	"github.com/MuchTitan/go-log-search/internal/pipeline"
	"github.com/MuchTitan/go-log-search/internal/resolver"
	"github.com/MuchTitan/go-log-search/internal/sink"
	"github.com/MuchTitan/go-log-search/internal/source"
	"github.com/MuchTitan/go-log-search/internal/tail"
	"github.com/sirupsen/logrus"
)

// Engine owns one scan run: the resolved file set, the shared per-line
// pipeline and the sink. The file set is resolved once at construction and
// reused unchanged for a follow session.
type Engine struct {
	cfg      *config.Config
	files    []string
	pipeline *pipeline.Pipeline
	out      sink.Sink
	interval time.Duration
}

// New resolves the file set and compiles the whole pipeline. Returns
// resolver.ErrNoFiles when nothing matched the include patterns; pattern
// compile failures for keywords/regexes/timestamp are fatal here, bad
// field patterns are only warned about.
func New(cfg *config.Config, window pipeline.Window) (*Engine, error) {
	files, err := resolver.Resolve(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	matcher, err := pipeline.NewMatcher(cfg.Keywords, cfg.Regexes, cfg.MatchMode, cfg.IgnoreCase)
	if err != nil {
		return nil, err
	}

	var ts *pipeline.TimestampExtractor
	if cfg.Timestamp.Enabled && cfg.Timestamp.Regex != "" && cfg.Timestamp.Layout != "" {
		ts, err = pipeline.NewTimestampExtractor(cfg.Timestamp.Regex, cfg.Timestamp.Layout, cfg.Timestamp.AssumeZone)
		if err != nil {
			return nil, err
		}
	}

	out, err := sink.New(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:   cfg,
		files: files,
		out:   out,
		pipeline: &pipeline.Pipeline{
			Matcher:    matcher,
			Timestamps: ts,
			Fields:     pipeline.NewFieldExtractor(cfg.FieldPatterns, cfg.IgnoreCase),
			Window:     window,
			Sink:       out,
		},
	}, nil
}

// SetPollInterval overrides the follow-mode poll interval. Zero keeps the
// default.
func (e *Engine) SetPollInterval(d time.Duration) {
	e.interval = d
}

// Files returns the resolved file set.
func (e *Engine) Files() []string {
	return e.files
}

// Run performs the initial batch pass: every resolved file, sequentially,
// through the shared pipeline. Unreadable files are warnings; sink write
// failures abort the pass.
func (e *Engine) Run(ctx context.Context) (internal.Stats, error) {
	stats := internal.Stats{FilesScanned: len(e.files)}

	for _, path := range e.files {
		select {
		case <-ctx.Done():
			return stats, nil
		default:
		}

		if err := e.scanFile(path, &stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (e *Engine) scanFile(path string, stats *internal.Stats) error {
	lr, err := source.Open(path, e.cfg.Encoding)
	if err != nil {
		logrus.WithField("path", path).WithError(err).Warn("could not read file")
		return nil
	}
	defer lr.Close()

	for {
		lineno, line, err := lr.Next()
		if err != nil {
			if err != io.EOF {
				logrus.WithField("path", path).WithError(err).Warn("error while reading file")
			}
			return nil
		}
		stats.LinesScanned++

		matched, err := e.pipeline.Process(path, lineno, line)
		if err != nil {
			return err
		}
		if matched {
			stats.LinesMatched++
		}
	}
}

// Follow tails the resolved file set until ctx is canceled, feeding every
// appended line through the same pipeline as the batch pass and updating
// stats in place.
func (e *Engine) Follow(ctx context.Context, stats *internal.Stats) error {
	t := tail.New(e.files, e.cfg.Encoding, e.interval)
	return t.Run(ctx, func(file string, lineno int, line string) error {
		stats.LinesScanned++
		matched, err := e.pipeline.Process(file, lineno, line)
		if matched {
			stats.LinesMatched++
		}
		return err
	})
}

// Close flushes and closes the sink.
func (e *Engine) Close() error {
	return e.out.Close()
}
