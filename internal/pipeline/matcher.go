package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	ModeAny = "any"
	ModeAll = "all"
)

type pattern struct {
	raw string
	re  *regexp.Regexp
}

// Matcher decides whether a line matches the configured keyword and regex
// patterns. Keywords are quoted literals tested with search semantics,
// regexes are tested as-is.
type Matcher struct {
	keywords []pattern
	regexes  []pattern
	mode     string
}

func NewMatcher(keywords, regexes []string, mode string, ignoreCase bool) (*Matcher, error) {
	if mode == "" {
		mode = ModeAny
	}
	mode = strings.ToLower(mode)
	if mode != ModeAny && mode != ModeAll {
		return nil, fmt.Errorf("unsupported match mode %q", mode)
	}

	m := &Matcher{mode: mode}
	for _, kw := range keywords {
		re, err := compile(regexp.QuoteMeta(kw), ignoreCase)
		if err != nil {
			return nil, fmt.Errorf("invalid keyword %q: %w", kw, err)
		}
		m.keywords = append(m.keywords, pattern{raw: kw, re: re})
	}
	for _, expr := range regexes {
		re, err := compile(expr, ignoreCase)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", expr, err)
		}
		m.regexes = append(m.regexes, pattern{raw: expr, re: re})
	}
	return m, nil
}

func compile(expr string, ignoreCase bool) (*regexp.Regexp, error) {
	if ignoreCase {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

// Match reports whether line matches and, if so, the reason: the first
// matching pattern in declared order, keywords before regexes, prefixed
// kw: or re:. Under "all" mode every non-empty category needs at least one
// hit and the reason is only set on an overall match.
func (m *Matcher) Match(line string) (bool, string) {
	var reason string

	kwHit := false
	for _, p := range m.keywords {
		if p.re.MatchString(line) {
			kwHit = true
			reason = "kw:" + p.raw
			break
		}
	}

	rxHit := false
	for _, p := range m.regexes {
		if p.re.MatchString(line) {
			rxHit = true
			if reason == "" {
				reason = "re:" + p.raw
			}
			break
		}
	}

	if m.mode == ModeAll {
		if !kwHit && !rxHit {
			return false, ""
		}
		if (len(m.keywords) == 0 || kwHit) && (len(m.regexes) == 0 || rxHit) {
			return true, reason
		}
		return false, ""
	}

	if kwHit || rxHit {
		return true, reason
	}
	return false, ""
}
