package schemaforge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	schemaforge "github.com/schemaforge/schemaforge-go"
	"github.com/schemaforge/schemaforge-go/planopts"
)

func TestEngine_RunProducesRequestedCount(t *testing.T) {
	eng := schemaforge.NewEngine()
	opts := planopts.New(planopts.WithCount(3), planopts.WithSeed(1))

	results, envelope, err := eng.Run(map[string]any{
		"type":     "object",
		"required": []any{"id"},
		"properties": map[string]any{
			"id": map[string]any{"type": "string", "minLength": 2},
		},
	}, opts)
	require.NoError(t, err)
	require.NotNil(t, envelope)
	require.Len(t, results, 3)
	for _, r := range results {
		value, ok := r.Value()
		require.True(t, ok)
		require.Contains(t, value, "id")
	}
}

func TestEngine_RunDefaultsToOneItemWithNilOptions(t *testing.T) {
	eng := schemaforge.NewEngine()
	results, _, err := eng.Run(map[string]any{"type": "string"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestEngine_RunReportsUnsatisfiableLiteralFalse(t *testing.T) {
	eng := schemaforge.NewEngine()
	results, _, err := eng.Run(map[string]any{
		"type":     "object",
		"required": []any{"x"},
		"properties": map[string]any{
			"x": false,
		},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].IsErr())
	require.Equal(t, schemaforge.KindUnsatisfiable, results[0].Error().Kind)
}

func TestEngine_RunAllOfNumericLCM(t *testing.T) {
	eng := schemaforge.NewEngine()
	results, _, err := eng.Run(map[string]any{
		"allOf": []any{
			map[string]any{"type": "integer", "minimum": -5, "multipleOf": 6},
			map[string]any{"type": "integer", "maximum": 10, "multipleOf": 4},
		},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	value, ok := results[0].Value()
	require.True(t, ok)
	n, ok := value.(int64)
	require.True(t, ok)
	require.GreaterOrEqual(t, n, int64(-5))
	require.LessOrEqual(t, n, int64(10))
	require.Zero(t, n%12)
}

func TestEngine_RunAnyOfConstBranchIsDeterministic(t *testing.T) {
	schema := map[string]any{
		"anyOf": []any{
			map[string]any{"const": float64(11)},
			map[string]any{"const": float64(22)},
		},
	}
	opts := planopts.New(planopts.WithSeed(42))

	r1, _, err := schemaforge.NewEngine().Run(schema, opts)
	require.NoError(t, err)
	r2, _, err := schemaforge.NewEngine().Run(schema, opts)
	require.NoError(t, err)

	v1, ok1 := r1[0].Value()
	v2, ok2 := r2[0].Value()
	require.True(t, ok1)
	require.True(t, ok2)
	require.Contains(t, []float64{11, 22}, v1)
	require.Equal(t, v1, v2)
}

func TestEngine_RunArrayContainsAndUniqueItems(t *testing.T) {
	eng := schemaforge.NewEngine()
	results, _, err := eng.Run(map[string]any{
		"type":        "array",
		"minItems":    float64(2),
		"uniqueItems": true,
		"items":       map[string]any{"const": float64(1)},
		"contains":    map[string]any{"const": float64(1)},
		"minContains": float64(1),
	}, nil)
	require.NoError(t, err)
	value, ok := results[0].Value()
	require.True(t, ok)
	arr, ok := value.([]any)
	require.True(t, ok)
	ones := 0
	for _, v := range arr {
		if v == float64(1) {
			ones++
		}
	}
	require.Equal(t, 1, ones)
}

func TestEngine_RunStringFormatDisabledIsEmpty(t *testing.T) {
	eng := schemaforge.NewEngine()
	results, _, err := eng.Run(map[string]any{
		"type":   "string",
		"format": "uuid",
	}, planopts.New(planopts.WithValidateFormats(false)))
	require.NoError(t, err)
	value, ok := results[0].Value()
	require.True(t, ok)
	require.Equal(t, "", value)
}

func TestEngine_RunDeterministicAcrossInstances(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{"type": "integer", "minimum": 0, "multipleOf": 3},
		},
		"required": []any{"value"},
	}
	opts := planopts.New(planopts.WithCount(2), planopts.WithSeed(99))

	r1, _, err := schemaforge.NewEngine().Run(schema, opts)
	require.NoError(t, err)
	r2, _, err := schemaforge.NewEngine().Run(schema, opts)
	require.NoError(t, err)

	v1, ok1 := r1[0].Value()
	v2, ok2 := r2[0].Value()
	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, v1, v2)
}
