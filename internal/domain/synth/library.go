package synth

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Parameter types understood by the library.
const (
	ParamInt      = "int"
	ParamString   = "string"
	ParamGameList = "game_list"
)

// ParamSpec describes one template parameter.
type ParamSpec struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Required    bool   `yaml:"required" json:"required,omitempty"`
	Default     any    `yaml:"default" json:"default,omitempty"`
	Min         *int   `yaml:"min" json:"min,omitempty"`
	Max         *int   `yaml:"max" json:"max,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Template is one library entry.
type Template struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Examples    []string    `yaml:"examples" json:"examples,omitempty"`
	Keywords    [][]string  `yaml:"keywords" json:"-"`
	Params      []ParamSpec `yaml:"params" json:"params"`
}

type libraryFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadLibrary parses a template library. Every template must have a builder
// and at least one keyword group.
func LoadLibrary(data []byte) ([]Template, error) {
	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLibrary, err)
	}
	return validateLibrary(f.Templates)
}

// validateLibrary checks lib and returns a copy with normalized keywords.
func validateLibrary(lib []Template) ([]Template, error) {
	if len(lib) == 0 {
		return nil, fmt.Errorf("%w: no templates", ErrInvalidLibrary)
	}

	out := make([]Template, len(lib))
	seen := make(map[string]bool, len(lib))
	for i, t := range lib {
		if _, ok := builders[t.Name]; !ok {
			return nil, fmt.Errorf("%w: template %q has no builder", ErrInvalidLibrary, t.Name)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: template %q defined twice", ErrInvalidLibrary, t.Name)
		}
		seen[t.Name] = true
		if len(t.Keywords) == 0 {
			return nil, fmt.Errorf("%w: template %q has no keywords", ErrInvalidLibrary, t.Name)
		}
		groups := make([][]string, len(t.Keywords))
		for gi, group := range t.Keywords {
			if len(group) == 0 {
				return nil, fmt.Errorf("%w: template %q has an empty keyword group", ErrInvalidLibrary, t.Name)
			}
			groups[gi] = make([]string, len(group))
			for ti, term := range group {
				groups[gi][ti] = strings.ToLower(strings.TrimSpace(term))
			}
		}
		t.Keywords = groups
		for _, p := range t.Params {
			switch p.Type {
			case ParamInt, ParamString, ParamGameList:
			default:
				return nil, fmt.Errorf("%w: %s.%s has unknown type %q", ErrInvalidLibrary, t.Name, p.Name, p.Type)
			}
		}
		t.Params = append([]ParamSpec(nil), t.Params...)
		out[i] = t
	}
	return out, nil
}

// param returns the declaration for name.
func (t Template) param(name string) (ParamSpec, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}
