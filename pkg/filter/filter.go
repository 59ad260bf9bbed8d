// Package filter selects virtual servers by substring or regular expression.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies how a filter matches
type Kind int

const (
	KindNone Kind = iota
	KindSubstring
	KindPattern
)

func (k Kind) String() string {
	switch k {
	case KindSubstring:
		return "substring"
	case KindPattern:
		return "pattern"
	}
	return "none"
}

// Filter decides whether a virtual server is of interest
type Filter struct {
	kind Kind
	expr string
	re   *regexp.Regexp
}

// Parse builds a filter from its textual form.
// "" matches everything, "/re/" is a regular expression, anything else is a
// case-sensitive substring.
func Parse(expr string) (Filter, error) {
	if expr == "" {
		return Filter{}, nil
	}

	if len(expr) >= 2 && strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return Filter{}, fmt.Errorf("invalid filter pattern %s: %w", expr, err)
		}
		return Filter{kind: KindPattern, expr: expr, re: re}, nil
	}

	return Filter{kind: KindSubstring, expr: expr}, nil
}

// MustParse is like Parse but panics on error
func MustParse(expr string) Filter {
	f, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return f
}

// Kind returns how the filter matches
func (f Filter) Kind() Kind {
	return f.kind
}

func (f Filter) String() string {
	return f.expr
}

// Match reports whether any of the fields matches
func (f Filter) Match(fields ...string) bool {
	switch f.kind {
	case KindSubstring:
		for _, s := range fields {
			if strings.Contains(s, f.expr) {
				return true
			}
		}
		return false
	case KindPattern:
		for _, s := range fields {
			if f.re.MatchString(s) {
				return true
			}
		}
		return false
	}
	return true
}
