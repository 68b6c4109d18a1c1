// Package schema holds the typed schema tree for lattice collections, the
// parser that loads definitions from YAML or JSON files, the validator that
// checks documents against registered definitions, and the index planner that
// derives store index requests from index directives.
//
// A definition is a tree of property nodes. Interior nodes are [Object] or
// [Array]; leaves are [Leaf] and carry the value constraints. Any node may
// carry an index directive, an options object handed verbatim to the store's
// index-creation capability. One traversal, [Walk], is shared by definition
// registration and index planning.
package schema

import (
	"fmt"
	"regexp"
	"sort"
)

// IndexOptions is an index directive's options object. It is passed verbatim
// to the store adapter, which translates the keys it understands (unique,
// sparse, name, expireAfterSeconds for the Mongo adapter).
type IndexOptions map[string]any

// Node is one property node in a schema tree.
type Node interface {
	// IndexDirective returns the node's index options, or nil when the node
	// is not an index leaf.
	IndexDirective() IndexOptions

	// IsRequired reports whether the property must be present.
	IsRequired() bool
}

// Leaf is a scalar property: a string, number, integer or boolean.
type Leaf struct {
	Type      string
	Required  bool
	Enum      []any
	Pattern   string
	Min       *float64
	Max       *float64
	MinLength *int
	MaxLength *int
	Index     IndexOptions

	pattern *regexp.Regexp
}

func (l *Leaf) IndexDirective() IndexOptions { return l.Index }
func (l *Leaf) IsRequired() bool             { return l.Required }

// Object is a keyed property node. When Strict is set, properties not named
// in Children are schema violations.
type Object struct {
	Children map[string]Node
	Strict   bool
	Required bool
	Index    IndexOptions
}

func (o *Object) IndexDirective() IndexOptions { return o.Index }
func (o *Object) IsRequired() bool             { return o.Required }

// Array is a homogeneous list property; Item describes every element.
type Array struct {
	Item     Node
	Required bool
	Index    IndexOptions
}

func (a *Array) IndexDirective() IndexOptions { return a.Index }
func (a *Array) IsRequired() bool             { return a.Required }

// Definition is a named schema: the root object of one collection.
type Definition struct {
	Name string
	Root *Object
}

// Walk visits n and its descendants depth-first, in sorted child order.
// fn receives the dot path of each node (pathPrefix for the root itself) and
// the node; returning false stops descent into that node's children. Array
// elements share the path of the array property.
func Walk(pathPrefix string, n Node, fn func(path string, n Node) bool) {
	if !fn(pathPrefix, n) {
		return
	}
	switch t := n.(type) {
	case *Object:
		for _, key := range sortedKeys(t.Children) {
			Walk(joinPath(pathPrefix, key), t.Children[key], fn)
		}
	case *Array:
		if t.Item != nil {
			Walk(pathPrefix, t.Item, fn)
		}
	}
}

// compile precompiles leaf patterns and rejects unknown leaf types. It is
// run once per definition at registration.
func (d *Definition) compile() error {
	var err error
	Walk("", d.Root, func(path string, n Node) bool {
		leaf, ok := n.(*Leaf)
		if !ok {
			return true
		}
		switch leaf.Type {
		case "string", "number", "integer", "boolean":
		default:
			if err == nil {
				err = fmt.Errorf("schema %q: property %q has unknown type %q", d.Name, path, leaf.Type)
			}
			return false
		}
		if leaf.Pattern != "" && leaf.pattern == nil {
			re, reErr := regexp.Compile(leaf.Pattern)
			if reErr != nil {
				if err == nil {
					err = fmt.Errorf("schema %q: property %q: %w", d.Name, path, reErr)
				}
				return false
			}
			leaf.pattern = re
		}
		return true
	})
	return err
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func sortedKeys(m map[string]Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
