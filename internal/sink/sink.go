package sink

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MuchTitan/go-log-search/internal"
	"github.com/MuchTitan/go-log-search/internal/config"
	"github.com/sirupsen/logrus"
)

// Sink serializes accepted records. Write must be safe for one caller at a
// time per sink; every variant guards its writer with a mutex so a
// parallelized caller still gets whole lines.
type Sink interface {
	Write(rec *internal.Record) error
	Close() error
}

// New builds the sink selected by the output config. File-backed sinks
// create their output file immediately, so the artifact exists even when
// no record is ever written.
func New(cfg config.OutputConfig) (Sink, error) {
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		return NewConsole(os.Stdout), nil
	case "csv":
		w, c, err := openOutput(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewCSV(w, c), nil
	case "jsonl":
		w, c, err := openOutput(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewJSONL(w, c), nil
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "gelf":
		return NewGELF(cfg.Host, cfg.Port, cfg.Mode)
	default:
		return nil, fmt.Errorf("unknown output format: %s", cfg.Format)
	}
}

func openOutput(path string) (io.Writer, io.Closer, error) {
	if path == "" {
		logrus.Info("no output path provided, writing to stdout")
		return os.Stdout, nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create output file: %w", err)
	}
	return f, f, nil
}
