package pipeline

import (
	"regexp"

	"github.com/MuchTitan/go-log-search/internal/util"
	"github.com/sirupsen/logrus"
)

// FieldExtractor applies named-capture regexes to a matching line and
// merges all captured groups into one attribute map. Later patterns win on
// key collision.
type FieldExtractor struct {
	patterns []*regexp.Regexp
}

// NewFieldExtractor compiles the field patterns. A pattern that fails to
// compile is warned about and skipped, the rest stay active.
func NewFieldExtractor(exprs []string, ignoreCase bool) *FieldExtractor {
	e := &FieldExtractor{}
	for _, expr := range exprs {
		re, err := compile(expr, ignoreCase)
		if err != nil {
			logrus.WithField("pattern", expr).WithError(err).Warn("bad field regex skipped")
			continue
		}
		e.patterns = append(e.patterns, re)
	}
	return e
}

// Extract returns the merged named captures of every pattern that matches
// line, or nil when nothing matched.
func (e *FieldExtractor) Extract(line string) map[string]string {
	var fields map[string]string
	for _, re := range e.patterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		captured := make(map[string]string)
		for i, name := range re.SubexpNames() {
			if i != 0 && name != "" {
				captured[name] = m[i]
			}
		}
		if fields == nil {
			fields = captured
			continue
		}
		fields = util.MergeMaps(fields, captured)
	}
	return fields
}
