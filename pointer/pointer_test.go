package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/pointer"
)

func TestJoinEscapes(t *testing.T) {
	require.Equal(t, "/a~1b", pointer.Join("", "a/b"))
	require.Equal(t, "/a~0b", pointer.Join("", "a~b"))
	require.Equal(t, "/x/a~1b", pointer.Join("/x", "a/b"))
}

func TestJoinIndex(t *testing.T) {
	require.Equal(t, "/items/3", pointer.JoinIndex("/items", 3))
}

func TestSplitRoot(t *testing.T) {
	toks, err := pointer.Split("")
	require.NoError(t, err)
	require.Nil(t, toks)
}

func TestSplitAndResolve(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{
			"a/b": map[string]any{"type": "string"},
		},
		"items": []any{
			map[string]any{"type": "integer"},
		},
	}

	v, err := pointer.Resolve(doc, pointer.Join("/properties", "a/b"))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"type": "string"}, v)

	v, err = pointer.Resolve(doc, pointer.JoinIndex("/items", 0))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"type": "integer"}, v)
}

func TestResolveErrors(t *testing.T) {
	doc := map[string]any{"a": 1}
	_, err := pointer.Resolve(doc, "/missing")
	require.Error(t, err)

	_, err = pointer.Resolve(doc, "no-leading-slash")
	require.Error(t, err)

	_, err = pointer.Resolve([]any{1, 2}, "/5")
	require.Error(t, err)
}

func TestParent(t *testing.T) {
	parent, last, ok := pointer.Parent("/properties/a~1b")
	require.True(t, ok)
	require.Equal(t, "/properties", parent)
	require.Equal(t, "a/b", last)

	_, _, ok = pointer.Parent("")
	require.False(t, ok)
}
