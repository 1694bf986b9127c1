package evidence

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed labels.yaml
var defaultLabels []byte

// Labels maps a BOQ designator to the caption patterns expected on its
// evidence photos. Patterns are case-insensitive regular expressions.
type Labels struct {
	patterns map[string][]*regexp.Regexp
	sources  map[string][]string
}

type labelFile struct {
	Labels map[string]patternList `yaml:"labels"`
}

// patternList accepts a single pattern or a list of patterns
type patternList []string

func (p *patternList) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*p = patternList{v}
	case []interface{}:
		out := make(patternList, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("label patterns must be strings, got %T", e)
			}
			out = append(out, s)
		}
		*p = out
	default:
		return fmt.Errorf("label pattern must be a string or a list, got %T", raw)
	}
	return nil
}

// NewLabels compiles a designator → patterns table
func NewLabels(table map[string][]string) (*Labels, error) {
	l := &Labels{
		patterns: make(map[string][]*regexp.Regexp, len(table)),
		sources:  make(map[string][]string, len(table)),
	}
	for designator, patterns := range table {
		designator = strings.TrimSpace(designator)
		if designator == "" {
			return nil, fmt.Errorf("label table has an empty designator")
		}
		for _, p := range patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("designator %q: invalid pattern %q: %w", designator, p, err)
			}
			l.patterns[designator] = append(l.patterns[designator], re)
			l.sources[designator] = append(l.sources[designator], p)
		}
	}
	return l, nil
}

// DefaultLabels returns the built-in label table
func DefaultLabels() *Labels {
	l, err := ParseLabels(defaultLabels)
	if err != nil {
		panic(fmt.Sprintf("embedded label table is invalid: %v", err))
	}
	return l
}

// LoadLabels reads a label table from path, or returns the default when path is empty
func LoadLabels(path string) (*Labels, error) {
	if path == "" {
		return DefaultLabels(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label table: %w", err)
	}
	l, err := ParseLabels(data)
	if err != nil {
		return nil, fmt.Errorf("label table %s: %w", path, err)
	}
	return l, nil
}

// ParseLabels decodes a YAML label table
func ParseLabels(data []byte) (*Labels, error) {
	var f labelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse label table: %w", err)
	}
	table := make(map[string][]string, len(f.Labels))
	for d, p := range f.Labels {
		table[d] = p
	}
	return NewLabels(table)
}

// Has reports whether designator has at least one pattern
func (l *Labels) Has(designator string) bool {
	return len(l.patterns[designator]) > 0
}

// Patterns returns the source patterns of designator
func (l *Labels) Patterns(designator string) []string {
	return append([]string(nil), l.sources[designator]...)
}

// Designators returns every designator in the table, sorted
func (l *Labels) Designators() []string {
	out := make([]string, 0, len(l.patterns))
	for d := range l.patterns {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Matches reports whether any pattern of designator occurs in text
func (l *Labels) Matches(designator, text string) bool {
	for _, re := range l.patterns[designator] {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
