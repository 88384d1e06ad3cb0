package compose_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/compose"
	"github.com/schemaforge/schemaforge-go/diagnostics"
	"github.com/schemaforge/schemaforge-go/normalize"
	"github.com/schemaforge/schemaforge-go/planopts"
)

func mustCompose(t *testing.T, schema map[string]any) (*compose.Plan, *diagnostics.Envelope) {
	t.Helper()
	diag := diagnostics.NewCollector()
	tree, err := normalize.Normalize(schema, normalize.Options{}, diag)
	require.NoError(t, err)
	plan, err := compose.Compose(tree, planopts.New(), diag, 42)
	require.NoError(t, err)
	return plan, diag.Finish()
}

func TestCompose_CoverageIndexNamedProperties(t *testing.T) {
	plan, _ := mustCompose(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":   map[string]any{"type": "string"},
			"name": map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	})
	idx, ok := plan.Coverage[""]
	require.True(t, ok)
	require.ElementsMatch(t, []string{"id", "name"}, idx.Has)
	enumerated, enumOK := idx.Enumerate()
	require.True(t, enumOK)
	require.ElementsMatch(t, []string{"id", "name"}, enumerated)
}

func TestCompose_PresencePressureEmptyCoverageIsFatal(t *testing.T) {
	_, env := mustCompose(t, map[string]any{
		"type":                 "object",
		"minProperties":        float64(1),
		"additionalProperties": false,
	})
	require.True(t, env.IsFatal())
	found := false
	for _, f := range env.Fatal {
		if f.Code == "UNSAT_AP_FALSE_EMPTY_COVERAGE" {
			found = true
		}
	}
	require.True(t, found)
}

func TestCompose_ContainsBagAggregatesMin(t *testing.T) {
	plan, env := mustCompose(t, map[string]any{
		"type":        "array",
		"contains":    map[string]any{"type": "string"},
		"minContains": float64(2),
		"maxItems":    float64(1),
	})
	bag, ok := plan.Contains[""]
	require.True(t, ok)
	require.Len(t, bag.Needs, 1)
	require.True(t, env.IsFatal())
}

func TestCompose_BranchDecisionIsDeterministic(t *testing.T) {
	schema := map[string]any{
		"oneOf": []any{
			map[string]any{"type": "string", "required": []any{}},
			map[string]any{"type": "object", "required": []any{"a", "b"}},
		},
	}
	plan1, _ := mustCompose(t, schema)
	plan2, _ := mustCompose(t, schema)
	require.Equal(t, plan1.Branches[""].Chosen, plan2.Branches[""].Chosen)
	// required-heavy branch should win on score. Normalize sorts branches by
	// canonical JSON, which puts {"required":["a","b"],...} at index 0.
	require.Equal(t, 0, plan1.Branches[""].Chosen)
}

func TestCompose_TagKeyDisjointBonusTiesSymmetricBranches(t *testing.T) {
	schema := map[string]any{
		"oneOf": []any{
			map[string]any{
				"type":       "object",
				"properties": map[string]any{"kind": map[string]any{"const": "cat"}},
			},
			map[string]any{
				"type":       "object",
				"properties": map[string]any{"kind": map[string]any{"const": "dog"}},
			},
		},
	}
	plan, _ := mustCompose(t, schema)
	require.NotNil(t, plan.Branches[""])
	require.Len(t, plan.Branches[""].Candidate, 2) // both tagged equally without a discriminant value to match against
}
