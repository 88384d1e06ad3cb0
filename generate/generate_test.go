package generate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/compose"
	"github.com/schemaforge/schemaforge-go/diagnostics"
	"github.com/schemaforge/schemaforge-go/generate"
	"github.com/schemaforge/schemaforge-go/normalize"
	"github.com/schemaforge/schemaforge-go/planopts"
)

func generateOne(t *testing.T, schema map[string]any, opts *planopts.Options) (any, *diagnostics.Envelope) {
	t.Helper()
	diag := diagnostics.NewCollector()
	tree, err := normalize.Normalize(schema, normalize.Options{}, diag)
	require.NoError(t, err)
	if opts == nil {
		opts = planopts.New()
	}
	plan, err := compose.Compose(tree, opts, diag, 42)
	require.NoError(t, err)
	items := generate.Generate(tree, plan, opts, diag, 42, 1)
	require.Len(t, items, 1)
	require.Nil(t, items[0].Err)
	return items[0].Value, diag.Finish()
}

func TestGenerate_RequiredObjectPropertiesPresent(t *testing.T) {
	value, _ := generateOne(t, map[string]any{
		"type":     "object",
		"required": []any{"id", "name"},
		"properties": map[string]any{
			"id":   map[string]any{"type": "string", "minLength": 3},
			"name": map[string]any{"type": "string"},
		},
	}, nil)
	obj, ok := value.(map[string]any)
	require.True(t, ok)
	require.Contains(t, obj, "id")
	require.Contains(t, obj, "name")
	require.GreaterOrEqual(t, len(obj["id"].(string)), 3)
}

func TestGenerate_ConstTakesPrecedenceOverEnum(t *testing.T) {
	value, _ := generateOne(t, map[string]any{
		"const": "fixed",
		"enum":  []any{"a", "b"},
	}, nil)
	require.Equal(t, "fixed", value)
}

func TestGenerate_EnumPicksFirstCanonicalEntry(t *testing.T) {
	value, _ := generateOne(t, map[string]any{
		"enum": []any{"first", "second"},
	}, nil)
	require.Equal(t, "first", value)
}

func TestGenerate_BooleanStableMinimumFalse(t *testing.T) {
	value, _ := generateOne(t, map[string]any{"type": "boolean"}, nil)
	require.Equal(t, false, value)
}

func TestGenerate_NumberRespectsMultipleOfAndMinimum(t *testing.T) {
	value, _ := generateOne(t, map[string]any{
		"type":       "integer",
		"minimum":    10,
		"multipleOf": 5,
	}, nil)
	n, ok := value.(int64)
	require.True(t, ok)
	require.GreaterOrEqual(t, n, int64(10))
	require.Zero(t, n%5)
}

func TestGenerate_ArrayFillsFromItemsUpToMinItems(t *testing.T) {
	value, _ := generateOne(t, map[string]any{
		"type":     "array",
		"minItems": 3,
		"items":    map[string]any{"type": "integer"},
	}, nil)
	arr, ok := value.([]any)
	require.True(t, ok)
	require.Len(t, arr, 3)
}

func TestGenerate_ArrayUniqueItemsDeduplicates(t *testing.T) {
	value, _ := generateOne(t, map[string]any{
		"type":        "array",
		"minItems":    2,
		"uniqueItems": true,
		"items":       map[string]any{"const": "x"},
	}, nil)
	arr, ok := value.([]any)
	require.True(t, ok)
	// The items schema carries no type, so its stable filler is the
	// empty string for every slot; uniqueItems rejects the repeat after
	// the first element.
	require.Len(t, arr, 1)
}

func TestGenerate_AdditionalPropertiesFalseDrawsFromCoverage(t *testing.T) {
	value, _ := generateOne(t, map[string]any{
		"type":                 "object",
		"minProperties":        2,
		"additionalProperties": false,
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"b": map[string]any{"type": "string"},
		},
	}, nil)
	obj, ok := value.(map[string]any)
	require.True(t, ok)
	require.Len(t, obj, 2)
}

func TestGenerate_OneOfUsesComposeChosenBranch(t *testing.T) {
	value, _ := generateOne(t, map[string]any{
		"oneOf": []any{
			map[string]any{"type": "object", "properties": map[string]any{"kind": map[string]any{"const": "a"}}, "required": []any{"kind"}},
			map[string]any{"type": "object", "properties": map[string]any{"kind": map[string]any{"const": "b"}}, "required": []any{"kind"}},
		},
	}, nil)
	obj, ok := value.(map[string]any)
	require.True(t, ok)
	kind, ok := obj["kind"]
	require.True(t, ok)
	require.Contains(t, []any{"a", "b"}, kind)
}

func TestGenerate_PreferExamplesEmitsVerbatim(t *testing.T) {
	opts := planopts.New(planopts.WithPreferExamples())
	value, _ := generateOne(t, map[string]any{
		"type":    "string",
		"example": "from-example",
	}, opts)
	require.Equal(t, "from-example", value)
}

func TestGenerate_UnsatisfiableLiteralFalseSchemaFails(t *testing.T) {
	diag := diagnostics.NewCollector()
	tree, err := normalize.Normalize(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": false,
		},
		"required": []any{"x"},
	}, normalize.Options{}, diag)
	require.NoError(t, err)
	opts := planopts.New()
	plan, err := compose.Compose(tree, opts, diag, 42)
	require.NoError(t, err)
	items := generate.Generate(tree, plan, opts, diag, 42, 1)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Err)
	require.Equal(t, "unsatisfiable", items[0].Err.Kind)
}

func TestGenerate_DeterministicAcrossRepeatedRuns(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{"type": "string", "format": "uuid"},
		},
		"required": []any{"id"},
	}
	opts := planopts.New(planopts.WithValidateFormats(true))

	diag1 := diagnostics.NewCollector()
	tree1, err := normalize.Normalize(schema, normalize.Options{}, diag1)
	require.NoError(t, err)
	plan1, err := compose.Compose(tree1, opts, diag1, 7)
	require.NoError(t, err)
	items1 := generate.Generate(tree1, plan1, opts, diag1, 7, 2)

	diag2 := diagnostics.NewCollector()
	tree2, err := normalize.Normalize(schema, normalize.Options{}, diag2)
	require.NoError(t, err)
	plan2, err := compose.Compose(tree2, opts, diag2, 7)
	require.NoError(t, err)
	items2 := generate.Generate(tree2, plan2, opts, diag2, 7, 2)

	require.Equal(t, items1[0].Value, items2[0].Value)
	require.Equal(t, items1[1].Value, items2[1].Value)
}
