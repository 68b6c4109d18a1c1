package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Violation is one schema violation: a human-readable message, the dot path
// of the violating property, and the constraint parameters.
type Violation struct {
	Message string
	Path    string
	Params  map[string]any
}

// Result is the outcome of validating one document. Errors holds every
// violation found, in deterministic traversal order; validation is never
// fail-fast.
type Result struct {
	Valid  bool
	Errors []Violation
}

// Validator holds registered definitions and checks documents against them.
// Definitions are registered once at startup and read-only afterward, so
// Validate takes only a read lock.
type Validator struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

func NewValidator() *Validator {
	return &Validator{defs: make(map[string]*Definition)}
}

// Register compiles and stores a definition under its name. Registering two
// definitions with the same name is a configuration mistake and fails.
func (v *Validator) Register(def *Definition) error {
	if err := def.compile(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.defs[def.Name]; ok {
		return fmt.Errorf("schema %q already registered", def.Name)
	}
	v.defs[def.Name] = def
	return nil
}

// Definitions returns the registered definitions in name order.
func (v *Validator) Definitions() []*Definition {
	v.mu.RLock()
	defer v.mu.RUnlock()
	defs := make([]*Definition, 0, len(v.defs))
	for _, d := range v.defs {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Validate checks doc against the definition registered under schemaName and
// collects all violations. Reserved metadata fields (root-level keys starting
// with "_") are outside the schema and exempt from strictness checks.
func (v *Validator) Validate(doc map[string]any, schemaName string) Result {
	v.mu.RLock()
	def, ok := v.defs[schemaName]
	v.mu.RUnlock()
	if !ok {
		return Result{Errors: []Violation{{
			Message: fmt.Sprintf("schema %q is not registered", schemaName),
			Params:  map[string]any{"schema": schemaName},
		}}}
	}

	errs := checkObject(def.Root, doc, "", true)
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func checkNode(n Node, value any, path string) []Violation {
	switch t := n.(type) {
	case *Object:
		obj, ok := value.(map[string]any)
		if !ok {
			return []Violation{violation(path, "must be an object", map[string]any{"constraint": "type", "expected": "object"})}
		}
		return checkObject(t, obj, path, false)
	case *Array:
		list, ok := value.([]any)
		if !ok {
			return []Violation{violation(path, "must be an array", map[string]any{"constraint": "type", "expected": "array"})}
		}
		var errs []Violation
		for i, item := range list {
			errs = append(errs, checkNode(t.Item, item, fmt.Sprintf("%s.%d", path, i))...)
		}
		return errs
	case *Leaf:
		return checkLeaf(t, value, path)
	}
	return nil
}

func checkObject(o *Object, obj map[string]any, path string, root bool) []Violation {
	var errs []Violation
	for _, key := range sortedKeys(o.Children) {
		child := o.Children[key]
		childPath := joinPath(path, key)
		value, present := obj[key]
		if !present || value == nil {
			if child.IsRequired() {
				errs = append(errs, violation(childPath, "is required", map[string]any{"constraint": "required"}))
			}
			continue
		}
		errs = append(errs, checkNode(child, value, childPath)...)
	}
	if o.Strict {
		for _, key := range sortedMapKeys(obj) {
			if root && strings.HasPrefix(key, "_") {
				continue
			}
			if _, ok := o.Children[key]; !ok {
				errs = append(errs, violation(joinPath(path, key), "is not allowed by the schema", map[string]any{"constraint": "additionalProperties"}))
			}
		}
	}
	return errs
}

func checkLeaf(l *Leaf, value any, path string) []Violation {
	var errs []Violation

	switch l.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return []Violation{typeViolation(path, "string")}
		}
		if l.MinLength != nil && len(s) < *l.MinLength {
			errs = append(errs, violation(path, fmt.Sprintf("must be at least %d characters", *l.MinLength),
				map[string]any{"constraint": "minLength", "limit": *l.MinLength}))
		}
		if l.MaxLength != nil && len(s) > *l.MaxLength {
			errs = append(errs, violation(path, fmt.Sprintf("must be at most %d characters", *l.MaxLength),
				map[string]any{"constraint": "maxLength", "limit": *l.MaxLength}))
		}
		if l.pattern != nil && !l.pattern.MatchString(s) {
			errs = append(errs, violation(path, fmt.Sprintf("must match pattern %q", l.Pattern),
				map[string]any{"constraint": "pattern", "pattern": l.Pattern}))
		}
	case "number", "integer":
		f, ok := asFloat(value)
		if !ok {
			return []Violation{typeViolation(path, l.Type)}
		}
		if l.Type == "integer" && f != float64(int64(f)) {
			return []Violation{typeViolation(path, "integer")}
		}
		if l.Min != nil && f < *l.Min {
			errs = append(errs, violation(path, fmt.Sprintf("must be >= %v", *l.Min),
				map[string]any{"constraint": "min", "limit": *l.Min}))
		}
		if l.Max != nil && f > *l.Max {
			errs = append(errs, violation(path, fmt.Sprintf("must be <= %v", *l.Max),
				map[string]any{"constraint": "max", "limit": *l.Max}))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return []Violation{typeViolation(path, "boolean")}
		}
	}

	if len(l.Enum) > 0 && !enumContains(l.Enum, value) {
		errs = append(errs, violation(path, fmt.Sprintf("must be one of %v", l.Enum),
			map[string]any{"constraint": "enum", "allowed": l.Enum}))
	}
	return errs
}

func violation(path, msg string, params map[string]any) Violation {
	params["property"] = path
	return Violation{Message: fmt.Sprintf("%s %s", path, msg), Path: path, Params: params}
}

func typeViolation(path, expected string) Violation {
	return violation(path, fmt.Sprintf("must be of type %s", expected),
		map[string]any{"constraint": "type", "expected": expected})
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func enumContains(enum []any, value any) bool {
	for _, allowed := range enum {
		if allowed == value {
			return true
		}
		// YAML decodes integers as int while BSON round-trips can yield
		// int32/int64/float64 for the same value.
		af, aok := asFloat(allowed)
		vf, vok := asFloat(value)
		if aok && vok && af == vf {
			return true
		}
	}
	return false
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
