package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/canon"
	"github.com/schemaforge/schemaforge-go/normalize"
)

type recordingDiag struct {
	warns []string
	caps  []string
}

func (r *recordingDiag) Warn(code, canonPath string, details map[string]any) {
	r.warns = append(r.warns, code)
}
func (r *recordingDiag) Cap(code string) { r.caps = append(r.caps, code) }

func mustNormalize(t *testing.T, schema map[string]any) *canon.Tree {
	t.Helper()
	tree, err := normalize.Normalize(schema, normalize.Options{}, nil)
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

func TestNormalize_BooleanSchema(t *testing.T) {
	tree := mustNormalize(t, map[string]any{
		"type":                 "object",
		"additionalProperties": false,
	})
	require.Equal(t, canon.Object, tree.Root.Kind)
	require.Equal(t, false, tree.Root.Schema["additionalProperties"])
}

func TestNormalize_PropertiesSortedByKey(t *testing.T) {
	tree := mustNormalize(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"zeta":  map[string]any{"type": "string"},
			"alpha": map[string]any{"type": "number"},
		},
	})
	require.Equal(t, []string{"alpha", "zeta"}, tree.Root.Keys)
	origin, ok := tree.Origin("/properties/alpha")
	require.True(t, ok)
	require.Equal(t, "/properties/alpha", origin)
}

func TestNormalize_ItemsAndPrefixItems(t *testing.T) {
	tree := mustNormalize(t, map[string]any{
		"type":       "array",
		"prefixItems": []any{map[string]any{"type": "string"}},
		"items":      map[string]any{"type": "number"},
	})
	require.Equal(t, canon.Array, tree.Root.Kind)
	require.Len(t, tree.Root.Children, 1)
	require.NotNil(t, tree.Root.ItemsSchema)
}

func TestNormalize_AllOfFlattensTypeAndRequired(t *testing.T) {
	tree := mustNormalize(t, map[string]any{
		"allOf": []any{
			map[string]any{"type": "object", "required": []any{"a"}},
			map[string]any{"type": "object", "required": []any{"b"}},
		},
	})
	require.Equal(t, []any{"object"}, tree.Root.Schema["type"])
	require.Equal(t, []any{"a", "b"}, tree.Root.Schema["required"])
}

func TestNormalize_AllOfResidualConjunctPreserved(t *testing.T) {
	d := &recordingDiag{}
	tree, err := normalize.Normalize(map[string]any{
		"allOf": []any{
			map[string]any{"format": "email"},
			map[string]any{"format": "uri"},
		},
	}, normalize.Options{}, d)
	require.NoError(t, err)
	residual, ok := tree.Root.Schema["allOf"].([]any)
	require.True(t, ok)
	require.Len(t, residual, 2)
	require.Contains(t, d.warns, "ALLOF_RESIDUAL_CONJUNCT")
}

func TestNormalize_DependentRequiredRewritesToIfThen(t *testing.T) {
	d := &recordingDiag{}
	tree, err := normalize.Normalize(map[string]any{
		"type": "object",
		"dependentRequired": map[string]any{
			"creditCard": []any{"billingAddress"},
		},
	}, normalize.Options{}, d)
	require.NoError(t, err)
	_, hasDR := tree.Root.Schema["dependentRequired"]
	require.False(t, hasDR)
	require.Contains(t, d.warns, "DEPENDENT_REQUIRED_REWRITTEN")
	// the synthesized if/then conjunct must have flowed through allOf
	// flattening into a residual conjunct carrying "if"/"then" directly,
	// since those keys aren't in mergeableKeys.
	residual, ok := tree.Root.Schema["allOf"].([]any)
	require.True(t, ok)
	require.Len(t, residual, 1)
	branch, ok := residual[0].(map[string]any)
	require.True(t, ok)
	require.Contains(t, branch, "if")
	require.Contains(t, branch, "then")
}

func TestNormalize_PropertyNamesEnumRewrite(t *testing.T) {
	d := &recordingDiag{}
	tree, err := normalize.Normalize(map[string]any{
		"type":     "object",
		"required": []any{"id"},
		"propertyNames": map[string]any{
			"enum": []any{"id", "name"},
		},
	}, normalize.Options{}, d)
	require.NoError(t, err)
	require.Equal(t, false, tree.Root.Schema["additionalProperties"])
	pp, ok := tree.Root.Schema["patternProperties"].(map[string]any)
	require.True(t, ok)
	require.Len(t, pp, 1)
	require.Contains(t, d.warns, "PNAMES_REWRITE_APPLIED")
}

func TestNormalize_PropertyNamesRewriteSkippedWhenRequiredKeyMissing(t *testing.T) {
	d := &recordingDiag{}
	tree, err := normalize.Normalize(map[string]any{
		"type":     "object",
		"required": []any{"missing"},
		"propertyNames": map[string]any{
			"enum": []any{"id", "name"},
		},
	}, normalize.Options{}, d)
	require.NoError(t, err)
	_, hasAP := tree.Root.Schema["additionalProperties"]
	require.False(t, hasAP)
	require.Contains(t, d.warns, "PNAMES_COMPLEX")
}

func TestNormalize_LocalRefInlined(t *testing.T) {
	tree := mustNormalize(t, map[string]any{
		"$defs": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
		},
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"$ref": "#/$defs/name"},
		},
	})
	child, ok := tree.Root.Property("name")
	require.True(t, ok)
	require.Equal(t, []any{"string"}, child.Schema["type"])
	require.EqualValues(t, 1, child.Schema["minLength"])
}

func TestNormalize_RefCycleDetected(t *testing.T) {
	_, err := normalize.Normalize(map[string]any{
		"$defs": map[string]any{
			"a": map[string]any{"$ref": "#/$defs/b"},
			"b": map[string]any{"$ref": "#/$defs/a"},
		},
		"$ref": "#/$defs/a",
	}, normalize.Options{}, nil)
	require.Error(t, err)
}

func TestNormalize_IfThenElsePreservedAndNoted(t *testing.T) {
	d := &recordingDiag{}
	tree, err := normalize.Normalize(map[string]any{
		"type": "object",
		"if":   map[string]any{"properties": map[string]any{"kind": map[string]any{"const": "a"}}},
		"then": map[string]any{"required": []any{"a"}},
		"else": map[string]any{"required": []any{"b"}},
	}, normalize.Options{}, d)
	require.NoError(t, err)
	require.Contains(t, tree.Root.Schema, "if")
	require.Contains(t, tree.Root.Schema, "then")
	require.Contains(t, tree.Root.Schema, "else")
	require.Contains(t, d.warns, "IF_THEN_ELSE_PRESENT")
}

func TestNormalize_DynamicRefTagged(t *testing.T) {
	d := &recordingDiag{}
	_, err := normalize.Normalize(map[string]any{
		"$dynamicAnchor": "node",
		"type":           "object",
	}, normalize.Options{}, d)
	require.NoError(t, err)
	require.Contains(t, d.warns, "DYNAMIC_REF_PRESENT")
}

func TestNormalize_RegexComplexityCapWarned(t *testing.T) {
	d := &recordingDiag{}
	_, err := normalize.Normalize(map[string]any{
		"type":    "string",
		"pattern": "^(a+)+$",
	}, normalize.Options{}, d)
	require.NoError(t, err)
	require.Contains(t, d.caps, "REGEX_COMPLEXITY_CAPPED")
}

func TestNormalize_OneOfBranchesSortedDeterministically(t *testing.T) {
	tree1 := mustNormalize(t, map[string]any{
		"oneOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "number"},
		},
	})
	tree2 := mustNormalize(t, map[string]any{
		"oneOf": []any{
			map[string]any{"type": "number"},
			map[string]any{"type": "string"},
		},
	})
	require.Equal(t, tree1.Root.Schema["oneOf"], tree2.Root.Schema["oneOf"])
}
