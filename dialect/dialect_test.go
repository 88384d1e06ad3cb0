package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/dialect"
)

func TestParseKnownDrafts(t *testing.T) {
	cases := map[string]dialect.Dialect{
		"http://json-schema.org/draft-04/schema#":       dialect.Draft4,
		"http://json-schema.org/draft-06/schema#":       dialect.Draft6,
		"http://json-schema.org/draft-07/schema#":       dialect.Draft7,
		"https://json-schema.org/draft/2019-09/schema":  dialect.Draft2019,
		"https://json-schema.org/draft/2020-12/schema":  dialect.Draft2020,
	}
	for uri, want := range cases {
		got, err := dialect.Parse(uri)
		require.NoError(t, err, uri)
		require.Equal(t, want, got, uri)
	}
}

func TestParseEmptyIsUnknownNoError(t *testing.T) {
	d, err := dialect.Parse("")
	require.NoError(t, err)
	require.Equal(t, dialect.Unknown, d)
}

func TestParseUnrecognized(t *testing.T) {
	_, err := dialect.Parse("http://example.com/my-schema")
	require.Error(t, err)
}

func TestCompareOrdering(t *testing.T) {
	require.Equal(t, -1, dialect.Compare(dialect.Draft4, dialect.Draft7))
	require.Equal(t, 1, dialect.Compare(dialect.Draft2020, dialect.Draft6))
	require.Equal(t, 0, dialect.Compare(dialect.Draft7, dialect.Draft7))
	require.True(t, dialect.AtLeast(dialect.Draft2020, dialect.Draft2019))
	require.False(t, dialect.AtLeast(dialect.Draft6, dialect.Draft7))
}

func TestUsesDollarDefs(t *testing.T) {
	require.False(t, dialect.UsesDollarDefs(dialect.Draft7))
	require.True(t, dialect.UsesDollarDefs(dialect.Draft2019))
	require.True(t, dialect.UsesDollarDefs(dialect.Unknown))
}

func TestString(t *testing.T) {
	require.Equal(t, "draft-07", dialect.Draft7.String())
	require.Equal(t, "unknown", dialect.Unknown.String())
}
