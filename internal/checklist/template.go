package checklist

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed default.yaml
var defaultTemplate []byte

// Template is a checklist definition: the items in report order and the
// titles of index pages whose text must not count as evidence.
type Template struct {
	IgnoreTitles []string `json:"ignore_titles" yaml:"ignore_titles"`
	Items        []Item   `json:"items" yaml:"items"`
}

// DefaultTemplate returns the built-in acceptance-test checklist
func DefaultTemplate() *Template {
	t, err := ParseTemplate(defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("embedded checklist template is invalid: %v", err))
	}
	return t
}

// LoadTemplate reads a template from path, or returns the default when path is empty
func LoadTemplate(path string) (*Template, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist template: %w", err)
	}
	t, err := ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("checklist template %s: %w", path, err)
	}
	return t, nil
}

// ParseTemplate decodes and validates a YAML template. Items without a method
// default to presence.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse checklist template: %w", err)
	}

	seen := make(map[string]bool, len(t.Items))
	for i := range t.Items {
		item := &t.Items[i]
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, fmt.Errorf("item %d has no name", i+1)
		}
		if seen[item.Name] {
			return nil, fmt.Errorf("duplicate item %q", item.Name)
		}
		seen[item.Name] = true
		if len(item.Methods) == 0 {
			item.Methods = Methods{MethodPresence}
		}
	}

	return &t, nil
}

// ItemMap returns the items keyed by name
func (t *Template) ItemMap() map[string]Item {
	items := make(map[string]Item, len(t.Items))
	for _, item := range t.Items {
		items[item.Name] = item
	}
	return items
}

// Order returns the item names in template order
func (t *Template) Order() []string {
	order := make([]string, len(t.Items))
	for i, item := range t.Items {
		order[i] = item.Name
	}
	return order
}

// Matcher builds a matcher for the template's items
func (t *Template) Matcher() (*Matcher, error) {
	return NewMatcher(t.ItemMap(), t.Order())
}

// Lookup returns the template item with the given name
func (t *Template) Lookup(name string) (Item, bool) {
	for _, item := range t.Items {
		if item.Name == name {
			return item, true
		}
	}
	return Item{}, false
}
