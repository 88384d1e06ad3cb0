package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/diagnostics"
)

func TestCollector_AccumulatesAndFreezes(t *testing.T) {
	c := diagnostics.NewCollector()
	c.Fatal("UNSAT_AP_FALSE_EMPTY_COVERAGE", "/properties/x", nil)
	c.Warn("AP_FALSE_INTERSECTION_APPROX", "/properties/x", map[string]any{"reason": "presencePressure"})
	c.Run("TRIAL_ATTEMPTED", "/oneOf/0", nil)
	c.UnsatHint("UNSAT_HINT", "/properties/y", false, "coverageUnknown", nil)
	c.Cap("COMPLEXITY_CAP_ENUM")
	c.Cap("COMPLEXITY_CAP_ENUM")
	c.Cap("NAME_AUTOMATON_COMPLEXITY_CAPPED")

	env := c.Finish()
	require.True(t, env.IsFatal())
	require.Len(t, env.Fatal, 1)
	require.Len(t, env.Warn, 1)
	require.Len(t, env.Run, 1)
	require.Len(t, env.UnsatHints, 1)
	require.Equal(t, []string{"COMPLEXITY_CAP_ENUM", "NAME_AUTOMATON_COMPLEXITY_CAPPED"}, env.Caps)
}

func TestCollector_EmptyEnvelopeNotFatal(t *testing.T) {
	env := diagnostics.NewCollector().Finish()
	require.False(t, env.IsFatal())
	require.Empty(t, env.Caps)
	require.NotNil(t, env.Nodes)
}

func TestCollector_NodeIsShared(t *testing.T) {
	c := diagnostics.NewCollector()
	n1 := c.Node("/a")
	chosen := 2
	n1.ChosenBranch = &chosen
	n2 := c.Node("/a")
	require.Same(t, n1, n2)
	require.Equal(t, 2, *n2.ChosenBranch)
}

func TestCollector_OverlapsOnlyPresentWhenRecorded(t *testing.T) {
	env := diagnostics.NewCollector().Finish()
	require.Nil(t, env.Overlaps)

	c := diagnostics.NewCollector()
	c.Overlap("k", []string{"^a$", "^b$"})
	env = c.Finish()
	require.NotNil(t, env.Overlaps)
	require.Len(t, env.Overlaps.Patterns, 1)
}
