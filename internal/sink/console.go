package sink

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/MuchTitan/go-log-search/internal"
)

// Console writes one pipe-delimited line per record:
// file|lineno|timestamp|reason| key=value ... rawLine
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Write(rec *internal.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%s|%s|", rec.File, rec.LineNum, rec.Timestamp, rec.Reason)
	// Fields are sorted so repeated runs emit identical bytes.
	for _, name := range sortedKeys(rec.Fields) {
		fmt.Fprintf(&b, " %s=%s", name, rec.Fields[name])
	}
	b.WriteString(" ")
	b.WriteString(rec.Line)

	_, err := fmt.Fprintln(c.w, strings.TrimRight(b.String(), " \t"))
	return err
}

func (c *Console) Close() error {
	return nil
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
