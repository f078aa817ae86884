package pipeline

import (
	"regexp"
	"strings"
	"time"
)

// TimestampExtractor parses an embedded timestamp out of a line for window
// filtering. A nil extractor always yields absent.
type TimestampExtractor struct {
	re     *regexp.Regexp
	layout string
	loc    *time.Location
	tsIdx  int // index of the capture group named "ts", -1 when none
}

// NewTimestampExtractor compiles the timestamp regex. assumeZone governs
// how a timestamp without zone information is interpreted: "local" means
// the process zone, anything else means UTC.
func NewTimestampExtractor(expr, layout, assumeZone string) (*TimestampExtractor, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if strings.EqualFold(assumeZone, "local") {
		loc = time.Local
	}

	tsIdx := -1
	for i, name := range re.SubexpNames() {
		if name == "ts" {
			tsIdx = i
			break
		}
	}

	return &TimestampExtractor{re: re, layout: layout, loc: loc, tsIdx: tsIdx}, nil
}

// Extract searches line for the timestamp pattern and parses it. The "ts"
// group is preferred over the whole match. Any failure yields nil.
func (e *TimestampExtractor) Extract(line string) *time.Time {
	if e == nil {
		return nil
	}
	m := e.re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	s := m[0]
	if e.tsIdx > 0 {
		s = m[e.tsIdx]
	}
	t, err := time.ParseInLocation(e.layout, s, e.loc)
	if err != nil {
		return nil
	}
	return &t
}
