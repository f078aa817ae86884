package sink

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/MuchTitan/go-log-search/internal"

	"gopkg.in/Graylog2/go-gelf.v2/gelf"
)

// GELF ships records to a Graylog endpoint. The raw line becomes the short
// message; file, lineno, reason and the extracted fields ride along as
// additional fields.
type GELF struct {
	mu     sync.Mutex
	writer gelf.Writer
	host   string
}

func NewGELF(host string, port int, mode string) (*GELF, error) {
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = 12201
	}
	if mode == "" {
		mode = "udp"
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	var w gelf.Writer
	var err error

	switch mode {
	case "udp":
		w, err = gelf.NewUDPWriter(addr)
	case "tcp":
		w, err = gelf.NewTCPWriter(addr)
	default:
		return nil, fmt.Errorf("unsupported gelf mode: %s", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s gelf writer: %w", mode, err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "logsearch"
	}

	return &GELF{writer: w, host: hostname}, nil
}

func (g *GELF) Write(rec *internal.Record) error {
	extra := map[string]any{
		"_file":   rec.File,
		"_lineno": rec.LineNum,
		"_reason": rec.Reason,
	}
	if rec.Timestamp != "" {
		extra["_timestamp"] = rec.Timestamp
	}
	for k, v := range rec.Fields {
		extra["_"+k] = v
	}

	msg := gelf.Message{
		Version:  "1.1",
		Host:     g.host,
		Short:    rec.Line,
		TimeUnix: float64(time.Now().Unix()),
		Level:    gelf.LOG_INFO,
		Extra:    extra,
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writer.WriteMessage(&msg)
}

func (g *GELF) Close() error {
	return g.writer.Close()
}
