package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Filter selects watchlist symbols.
type Filter interface {
	Match(symbol string) bool
}

// Parse builds a filter from an expression:
// - empty: every symbol
// - "/re/": regular expression
// - "GK,NCBFG": exact symbols, case-insensitive
// - "JMMB*": glob
// - "GK": a single exact symbol
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			set[p] = struct{}{}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?[") {
		pattern := strings.ToUpper(expr)
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Glob{pattern: pattern}, nil
	}
	return Exact{value: strings.ToUpper(expr)}, nil
}

// Apply keeps the symbols f matches, in order.
func Apply(f Filter, symbols []string) []string {
	if f == nil {
		return symbols
	}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type Exact struct{ value string }

func (e Exact) Match(symbol string) bool { return strings.EqualFold(symbol, e.value) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(symbol string) bool {
	_, ok := e.set[strings.ToUpper(symbol)]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(symbol string) bool {
	ok, _ := filepath.Match(g.pattern, strings.ToUpper(symbol))
	return ok
}

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(symbol string) bool { return r.re.MatchString(symbol) }

func (g Glob) String() string   { return fmt.Sprintf("glob:%s", g.pattern) }
func (e Exact) String() string  { return fmt.Sprintf("exact:%s", e.value) }
func (r Regex) String() string  { return fmt.Sprintf("regex:%s", r.re) }
func (a Always) String() string { return fmt.Sprintf("always:%t", bool(a)) }

func (e ExactSet) String() string {
	syms := make([]string, 0, len(e.set))
	for s := range e.set {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return "set:" + strings.Join(syms, ",")
}
