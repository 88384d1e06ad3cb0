package regexanalyze_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/regexanalyze"
)

func TestClassify_AnchoredSafeLiteralAlternation(t *testing.T) {
	c := regexanalyze.Classify(`^(?:foo|bar|baz)$`)
	require.Equal(t, regexanalyze.AnchoredSafe, c.Kind)
	require.Equal(t, []string{"bar", "baz", "foo"}, c.Literals)
}

func TestClassify_AnchoredSafeSingleLiteral(t *testing.T) {
	c := regexanalyze.Classify(`^hello$`)
	require.Equal(t, regexanalyze.AnchoredSafe, c.Kind)
	require.Equal(t, []string{"hello"}, c.Literals)
}

func TestClassify_AnchoredButNotLiteralHasNoLiterals(t *testing.T) {
	c := regexanalyze.Classify(`^[a-z]+$`)
	require.Equal(t, regexanalyze.AnchoredSafe, c.Kind)
	require.Nil(t, c.Literals)
}

func TestClassify_Unanchored(t *testing.T) {
	c := regexanalyze.Classify(`foo|bar`)
	require.Equal(t, regexanalyze.Unanchored, c.Kind)
}

func TestClassify_ComplexityCappedByLength(t *testing.T) {
	c := regexanalyze.Classify("^" + strings.Repeat("a", regexanalyze.MaxPatternLength+1) + "$")
	require.Equal(t, regexanalyze.ComplexityCapped, c.Kind)
	require.Equal(t, "length", c.Reason)
}

func TestClassify_ComplexityCappedByGroupedQuantifier(t *testing.T) {
	c := regexanalyze.Classify(`^(?:ab|cd)+$`)
	require.Equal(t, regexanalyze.ComplexityCapped, c.Kind)
	require.Equal(t, "groupedQuantifier", c.Reason)
}

func TestClassify_SimpleQuantifierOnLiteralNotCapped(t *testing.T) {
	c := regexanalyze.Classify(`^a+$`)
	require.Equal(t, regexanalyze.AnchoredSafe, c.Kind)
}

func TestClassify_CompileError(t *testing.T) {
	c := regexanalyze.Classify(`^(unclosed$`)
	require.Equal(t, regexanalyze.CompileError, c.Kind)
	require.Error(t, c.Err)
}

func TestLift_StrictForLiteralAlternation(t *testing.T) {
	lifted, kind, ok := regexanalyze.Lift(`foo|bar`)
	require.True(t, ok)
	require.Equal(t, regexanalyze.LiftStrict, kind)
	c := regexanalyze.Classify(lifted)
	require.Equal(t, regexanalyze.AnchoredSafe, c.Kind)
	require.Equal(t, []string{"bar", "foo"}, c.Literals)
}

func TestLift_SubstringFallback(t *testing.T) {
	lifted, kind, ok := regexanalyze.Lift(`[a-z]+\d`)
	require.True(t, ok)
	require.Equal(t, regexanalyze.LiftSubstring, kind)
	require.Equal(t, `^(?:[a-z]+\d)$`, lifted)
}

func TestLift_AlreadyAnchoredNotLifted(t *testing.T) {
	_, _, ok := regexanalyze.Lift(`^foo$`)
	require.False(t, ok)
}

func TestLift_CompileErrorNotLifted(t *testing.T) {
	_, _, ok := regexanalyze.Lift(`(unclosed`)
	require.False(t, ok)
}
