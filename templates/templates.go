// Package templates provides starter schemas for new projects
package templates

import (
	"fmt"
	"sort"
)

// Template is a complete project skeleton: a schema in canonical
// formatting and a matching tool configuration.
type Template struct {
	Name        string
	Description string
	Schema      string // schema source, canonically formatted
	Config      string // datamodel.yaml content
}

// Registry holds all available templates
var Registry = map[string]*Template{
	"minimal":   minimalTemplate,
	"blog":      blogTemplate,
	"ecommerce": ecommerceTemplate,
}

// Get returns a template by name
func Get(name string) (*Template, error) {
	t, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown template: %s", name)
	}
	return t, nil
}

// List returns all available template names, sorted
func List() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
