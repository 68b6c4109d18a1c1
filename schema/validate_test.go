package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func userDef() *Definition {
	return &Definition{
		Name: "user",
		Root: &Object{
			Strict: true,
			Children: map[string]Node{
				"name":  &Leaf{Type: "string", Required: true, MinLength: iptr(1)},
				"email": &Leaf{Type: "string", Pattern: `^[^@]+@[^@]+$`},
				"age":   &Leaf{Type: "integer", Min: fptr(0), Max: fptr(150)},
				"role":  &Leaf{Type: "string", Enum: []any{"admin", "member"}},
				"address": &Object{
					Strict: true,
					Children: map[string]Node{
						"city": &Leaf{Type: "string", Required: true},
					},
				},
				"tags": &Array{Item: &Leaf{Type: "string"}},
			},
		},
	}
}

func newValidator(t *testing.T, defs ...*Definition) *Validator {
	t.Helper()
	v := NewValidator()
	for _, def := range defs {
		require.NoError(t, v.Register(def))
	}
	return v
}

func TestValidateOK(t *testing.T) {
	v := newValidator(t, userDef())
	res := v.Validate(map[string]any{
		"name":    "ada",
		"email":   "ada@example.com",
		"age":     36,
		"role":    "admin",
		"address": map[string]any{"city": "London"},
		"tags":    []any{"math", "engines"},
	}, "user")
	require.True(t, res.Valid)
	require.Empty(t, res.Errors)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	v := newValidator(t, userDef())
	res := v.Validate(map[string]any{
		"age":   -3,
		"email": "not-an-email",
		"bogus": true,
	}, "user")
	require.False(t, res.Valid)

	paths := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		paths = append(paths, e.Path)
	}
	// deterministic traversal order: sorted children first, unknowns last
	require.Equal(t, []string{"age", "email", "name", "bogus"}, paths)
}

func TestValidateViolationDetail(t *testing.T) {
	v := newValidator(t, userDef())
	res := v.Validate(map[string]any{"name": "ada", "role": "owner"}, "user")
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "role", res.Errors[0].Path)
	require.Equal(t, "enum", res.Errors[0].Params["constraint"])
	require.Contains(t, res.Errors[0].Message, "must be one of")
}

func TestValidateNested(t *testing.T) {
	v := newValidator(t, userDef())
	res := v.Validate(map[string]any{
		"name":    "ada",
		"address": map[string]any{"zip": "12345"},
		"tags":    []any{"ok", 7},
	}, "user")
	require.False(t, res.Valid)

	byPath := map[string]Violation{}
	for _, e := range res.Errors {
		byPath[e.Path] = e
	}
	require.Contains(t, byPath, "address.city")
	require.Contains(t, byPath, "address.zip")
	require.Contains(t, byPath, "tags.1")
}

func TestValidateReservedFieldsExempt(t *testing.T) {
	v := newValidator(t, userDef())
	res := v.Validate(map[string]any{
		"name":       "ada",
		"_id":        "whatever",
		"_created":   int64(1700000000000),
		"_updated":   nil,
		"_isDeleted": false,
	}, "user")
	require.True(t, res.Valid)
}

func TestValidateNonStrictAllowsUnknowns(t *testing.T) {
	loose := &Definition{
		Name: "loose",
		Root: &Object{Children: map[string]Node{"name": &Leaf{Type: "string"}}},
	}
	v := newValidator(t, loose)
	res := v.Validate(map[string]any{"name": "x", "extra": 1}, "loose")
	require.True(t, res.Valid)
}

func TestValidateIntegerRejectsFraction(t *testing.T) {
	v := newValidator(t, userDef())
	res := v.Validate(map[string]any{"name": "ada", "age": 3.5}, "user")
	require.False(t, res.Valid)
	require.Equal(t, "age", res.Errors[0].Path)
}

func TestValidateUnknownSchema(t *testing.T) {
	v := newValidator(t)
	res := v.Validate(map[string]any{}, "ghost")
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
}

func TestRegisterDuplicate(t *testing.T) {
	v := newValidator(t, userDef())
	require.Error(t, v.Register(userDef()))
}
