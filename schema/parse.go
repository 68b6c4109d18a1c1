package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawNode is the on-disk shape of a property node. YAML is a superset of
// JSON, so .json schema files decode through the same structs.
type rawNode struct {
	Type       string             `yaml:"type"`
	Required   bool               `yaml:"required"`
	Enum       []any              `yaml:"enum"`
	Pattern    string             `yaml:"pattern"`
	Min        *float64           `yaml:"min"`
	Max        *float64           `yaml:"max"`
	MinLength  *int               `yaml:"minLength"`
	MaxLength  *int               `yaml:"maxLength"`
	Index      map[string]any     `yaml:"index"`
	Properties map[string]rawNode `yaml:"properties"`
	Items      *rawNode           `yaml:"items"`
}

type rawDefinition struct {
	Name       string             `yaml:"name"`
	Strict     bool               `yaml:"strict"`
	Properties map[string]rawNode `yaml:"properties"`
}

// Parse decodes one schema definition from YAML or JSON bytes.
func Parse(data []byte) (*Definition, error) {
	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("parse schema: definition has no name")
	}
	root := &Object{Children: map[string]Node{}, Strict: raw.Strict}
	for key, rn := range raw.Properties {
		node, err := buildNode(raw.Name, key, rn, raw.Strict)
		if err != nil {
			return nil, err
		}
		root.Children[key] = node
	}
	def := &Definition{Name: raw.Name, Root: root}
	if err := def.compile(); err != nil {
		return nil, err
	}
	return def, nil
}

// buildNode converts a raw node into its typed variant. Strictness is a
// definition-level setting, so it propagates to every nested object.
func buildNode(schemaName, path string, rn rawNode, strict bool) (Node, error) {
	var index IndexOptions
	if rn.Index != nil {
		index = IndexOptions(rn.Index)
	}

	kind := rn.Type
	if kind == "" {
		switch {
		case rn.Properties != nil:
			kind = "object"
		case rn.Items != nil:
			kind = "array"
		default:
			return nil, fmt.Errorf("schema %q: property %q has no type", schemaName, path)
		}
	}

	switch kind {
	case "object":
		children := map[string]Node{}
		for key, child := range rn.Properties {
			node, err := buildNode(schemaName, path+"."+key, child, strict)
			if err != nil {
				return nil, err
			}
			children[key] = node
		}
		return &Object{Children: children, Strict: strict, Required: rn.Required, Index: index}, nil
	case "array":
		if rn.Items == nil {
			return nil, fmt.Errorf("schema %q: array property %q has no items", schemaName, path)
		}
		item, err := buildNode(schemaName, path, *rn.Items, strict)
		if err != nil {
			return nil, err
		}
		return &Array{Item: item, Required: rn.Required, Index: index}, nil
	default:
		return &Leaf{
			Type:      kind,
			Required:  rn.Required,
			Enum:      rn.Enum,
			Pattern:   rn.Pattern,
			Min:       rn.Min,
			Max:       rn.Max,
			MinLength: rn.MinLength,
			MaxLength: rn.MaxLength,
			Index:     index,
		}, nil
	}
}

// LoadDir parses every .yaml, .yml and .json file in dir, in lexical order,
// one definition per file.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	defs := make([]*Definition, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read schema file %s: %w", name, err)
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("schema file %s: %w", name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
