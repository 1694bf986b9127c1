package checklist

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher evaluates a fixed set of items against page texts. It is safe for
// concurrent use; nothing is mutated after construction.
type Matcher struct {
	items    map[string]Item
	order    []string
	patterns map[string][]*regexp.Regexp
}

// NewMatcher compiles the regex keywords of every item and fails on the first
// invalid pattern.
func NewMatcher(items map[string]Item, order []string) (*Matcher, error) {
	return newMatcher(items, order, true)
}

func newMatcher(items map[string]Item, order []string, strict bool) (*Matcher, error) {
	m := &Matcher{
		items:    items,
		order:    append([]string(nil), order...),
		patterns: make(map[string][]*regexp.Regexp, len(items)),
	}

	for name, item := range items {
		if !item.Methods.Has(MethodRegex) {
			continue
		}
		compiled := make([]*regexp.Regexp, len(item.Keywords))
		for i, kw := range item.Keywords {
			re, err := regexp.Compile("(?i)" + kw)
			if err != nil {
				if strict {
					return nil, fmt.Errorf("item %q: invalid pattern %q: %w", name, kw, err)
				}
				continue
			}
			compiled[i] = re
		}
		m.patterns[name] = compiled
	}

	return m, nil
}

// Order returns the item names in report order
func (m *Matcher) Order() []string {
	return append([]string(nil), m.order...)
}

// Match returns one result per name in the matcher's order
func (m *Matcher) Match(texts []string) []Result {
	pages := make([]page, len(texts))
	for i, t := range texts {
		pages[i] = newPage(t)
	}

	results := make([]Result, 0, len(m.order))
	for _, name := range m.order {
		results = append(results, m.matchItem(name, pages))
	}
	return results
}

func (m *Matcher) matchItem(name string, pages []page) Result {
	result := Result{Item: name, Status: StatusNOK, Pages: []int{}}

	item, ok := m.items[name]
	if !ok || len(item.Keywords) == 0 {
		return result
	}

	keywords := make([]keyword, len(item.Keywords))
	for i, kw := range item.Keywords {
		keywords[i] = keyword{title: normalizeTitle(kw), presence: collapse(kw)}
		if compiled, ok := m.patterns[name]; ok {
			keywords[i].pattern = compiled[i]
		}
	}

	for i, p := range pages {
		if p.raw == "" {
			continue
		}
		if p.matchesAny(item.Methods, keywords) {
			result.Pages = append(result.Pages, i+1)
		}
	}

	if len(result.Pages) > 0 {
		result.Status = StatusOK
	}
	return result
}

// Match evaluates items against texts in the given order. Regex keywords that
// do not compile never match; use NewMatcher to reject them.
func Match(items map[string]Item, texts []string, order []string) []Result {
	m, _ := newMatcher(items, order, false)
	return m.Match(texts)
}

type keyword struct {
	title    string
	presence string
	pattern  *regexp.Regexp
}

type page struct {
	raw       string
	collapsed string
	lines     []string
}

func newPage(text string) page {
	if text == "" {
		return page{}
	}
	p := page{raw: text, collapsed: collapse(text)}
	for _, line := range strings.Split(text, "\n") {
		if n := normalizeTitle(line); n != "" {
			p.lines = append(p.lines, n)
		}
	}
	return p
}

// matchesAny tries every keyword with methods in priority order; the first
// success decides the page.
func (p page) matchesAny(methods Methods, keywords []keyword) bool {
	for _, kw := range keywords {
		for _, method := range methodPriority {
			if methods.Has(method) && p.matches(method, kw) {
				return true
			}
		}
	}
	return false
}

func (p page) matches(method Method, kw keyword) bool {
	switch method {
	case MethodTitle:
		if kw.title == "" {
			return false
		}
		for _, line := range p.lines {
			if similar(line, kw.title) {
				return true
			}
		}
	case MethodRegex:
		return kw.pattern != nil && kw.pattern.MatchString(p.raw)
	case MethodPresence:
		return kw.presence != "" && strings.Contains(p.collapsed, kw.presence)
	}
	return false
}
