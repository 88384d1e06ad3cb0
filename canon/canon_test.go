package canon_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/canon"
)

func TestBuilderBindAndFinish(t *testing.T) {
	b := canon.NewBuilder()
	b.Bind("", "")
	b.Bind("/properties/a", "/properties/a")
	b.Bind("/properties/b", "/properties/a") // synthetic node sharing origin with "a"

	root := &canon.Node{Kind: canon.Object, Keys: []string{"a", "b"}, Children: []*canon.Node{
		{Kind: canon.Value},
		{Kind: canon.Value},
	}}
	tree := b.Finish(root)

	require.Equal(t, 3, tree.PtrMapLen())
	origin, ok := tree.Origin("/properties/a")
	require.True(t, ok)
	require.Equal(t, "/properties/a", origin)

	paths := tree.CanonPathsFor("/properties/a")
	require.Equal(t, []string{"/properties/a", "/properties/b"}, paths)
}

func TestBuilderRebindPanics(t *testing.T) {
	b := canon.NewBuilder()
	b.Bind("/x", "/x")
	require.Panics(t, func() {
		b.Bind("/x", "/y")
	})
}

func TestNotesAreAdditive(t *testing.T) {
	b := canon.NewBuilder()
	b.Note("/a", "CODE_ONE", nil)
	b.Note("/a", "CODE_TWO", map[string]any{"reason": "x"})
	tree := b.Finish(&canon.Node{Kind: canon.Value})
	require.Len(t, tree.Notes, 2)
	require.Equal(t, "CODE_ONE", tree.Notes[0].Code)
	require.Equal(t, "CODE_TWO", tree.Notes[1].Code)
}

func TestNodeProperty(t *testing.T) {
	n := &canon.Node{
		Kind: canon.Object,
		Keys: []string{"a", "b"},
		Children: []*canon.Node{
			{Kind: canon.Value, Schema: map[string]any{"type": "string"}},
			{Kind: canon.Value, Schema: map[string]any{"type": "integer"}},
		},
	}
	child, ok := n.Property("b")
	require.True(t, ok)
	require.Equal(t, "integer", child.Schema["type"])

	_, ok = n.Property("missing")
	require.False(t, ok)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "value", canon.Value.String())
	require.Equal(t, "array", canon.Array.String())
	require.Equal(t, "object", canon.Object.String())
}
