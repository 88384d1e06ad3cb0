package planopts_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/planopts"
)

func TestNew_Defaults(t *testing.T) {
	o := planopts.New()
	require.Equal(t, 2, o.Trials.PerBranch)
	require.Equal(t, 2, o.Guards.MaxGeneratedNotNesting)
	require.Equal(t, 6, o.Rational.DecimalPrecision)
	require.Equal(t, planopts.FallbackDecimal, o.Rational.Fallback)
	require.Equal(t, planopts.PolicyWarn, o.PatternPolicy.UnsafeUnderApFalse)
}

func TestNew_OptionsOverrideDefaults(t *testing.T) {
	o := planopts.New(
		planopts.WithSeed(42),
		planopts.WithCount(10),
		planopts.WithPatternPolicy(planopts.PatternPolicy{UnsafeUnderApFalse: planopts.PolicyError}),
	)
	require.Equal(t, int64(42), o.Seed)
	require.Equal(t, 10, o.Count)
	require.Equal(t, planopts.PolicyError, o.PatternPolicy.UnsafeUnderApFalse)
	// untouched groups keep their defaults
	require.Equal(t, 2, o.Trials.PerBranch)
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	o := planopts.New(planopts.WithSeed(7))
	data, err := json.Marshal(o)
	require.NoError(t, err)

	var decoded planopts.Options
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, int64(7), decoded.Seed)
	require.Equal(t, o.Trials, decoded.Trials)
}

func TestUnmarshal_PreservesUnknownTopLevelGroup(t *testing.T) {
	raw := []byte(`{"seed": 1, "trials": {"perBranch": 3}, "futureGroup": {"x": 1}}`)
	var o planopts.Options
	require.NoError(t, json.Unmarshal(raw, &o))
	require.Equal(t, int64(1), o.Seed)
	require.Equal(t, 3, o.Trials.PerBranch)

	out, err := json.Marshal(o)
	require.NoError(t, err)

	var roundTripped map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &roundTripped))
	require.Contains(t, roundTripped, "futureGroup")
}
