// Package checklist decides, for every required document section, on which
// pages of a document that section appears.
package checklist

import (
	"fmt"
	"strings"
)

// Method is a strategy for locating a keyword on a page
type Method string

const (
	// MethodTitle matches a page line that is nearly identical to the keyword
	MethodTitle Method = "title"
	// MethodRegex searches the raw page text with the keyword as a pattern
	MethodRegex Method = "regex"
	// MethodPresence looks for the keyword verbatim in the normalized page text
	MethodPresence Method = "presence"
)

// methodPriority is the order in which methods are tried for each keyword
var methodPriority = []Method{MethodTitle, MethodRegex, MethodPresence}

// ParseMethod converts a template string into a Method
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodTitle, MethodRegex, MethodPresence:
		return m, nil
	default:
		return "", fmt.Errorf("unknown match method %q", s)
	}
}

// Methods is the set of strategies enabled for an item
type Methods []Method

// Has reports whether m is enabled
func (ms Methods) Has(m Method) bool {
	for _, x := range ms {
		if x == m {
			return true
		}
	}
	return false
}

// UnmarshalYAML accepts either a single method name or a list of names
func (ms *Methods) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	var names []string
	switch v := raw.(type) {
	case nil:
	case string:
		names = []string{v}
	case []interface{}:
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("method list entries must be strings, got %T", e)
			}
			names = append(names, s)
		}
	default:
		return fmt.Errorf("method must be a string or a list, got %T", raw)
	}

	parsed := make(Methods, 0, len(names))
	for _, n := range names {
		m, err := ParseMethod(n)
		if err != nil {
			return err
		}
		if !parsed.Has(m) {
			parsed = append(parsed, m)
		}
	}
	*ms = parsed
	return nil
}

// Item is one required document section
type Item struct {
	Name     string   `json:"name" yaml:"name"`
	No       string   `json:"no,omitempty" yaml:"no"`
	Sub      string   `json:"sub,omitempty" yaml:"sub"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Methods  Methods  `json:"method" yaml:"method"`
}

// Status is the verdict for one item
type Status string

const (
	StatusOK  Status = "OK"
	StatusNOK Status = "NOK"
)

// Result lists the 1-based pages on which an item was found
type Result struct {
	Item   string `json:"item"`
	Status Status `json:"status"`
	Pages  []int  `json:"pages"`
}

// Found reports whether the item appeared on at least one page
func (r Result) Found() bool {
	return r.Status == StatusOK
}
