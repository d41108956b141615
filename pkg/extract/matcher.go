package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is one field alternative: a compiled regex plus the capture groups
// to consider, in order. A nil group list means every group, left to right.
type Pattern struct {
	re     *regexp.Regexp
	groups []int
}

// NewPattern compiles expr into a Pattern. Groups, when given, select which
// capture groups are scanned for a value and in which order.
func NewPattern(expr string, groups ...int) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compiling pattern %q: %w", expr, err)
	}
	for _, g := range groups {
		if g < 1 || g > re.NumSubexp() {
			return Pattern{}, fmt.Errorf("pattern %q has no capture group %d", expr, g)
		}
	}
	return Pattern{re: re, groups: groups}, nil
}

// MustPattern is like NewPattern but panics on error. Used for built-in schemas.
func MustPattern(expr string, groups ...int) Pattern {
	p, err := NewPattern(expr, groups...)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p Pattern) String() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}

// find applies the pattern to text. The second result is false when the
// pattern did not match.
func (p Pattern) find(text string) (string, bool) {
	if p.re == nil {
		return "", false
	}
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	groups := p.groups
	if groups == nil {
		for i := 1; i < len(m); i++ {
			if v := strings.TrimSpace(m[i]); v != "" {
				return v, true
			}
		}
	} else {
		for _, g := range groups {
			if v := strings.TrimSpace(m[g]); v != "" {
				return v, true
			}
		}
	}

	return strings.TrimSpace(m[0]), true
}

// Match returns the value captured by the first pattern that matches text.
// The first non-empty capture group wins; a match with only empty groups
// yields the whole match. If no pattern matches, def is returned unchanged.
func Match(patterns []Pattern, text, def string) string {
	for _, p := range patterns {
		if v, ok := p.find(text); ok {
			return v
		}
	}
	return def
}
