package rng_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schemaforge/schemaforge-go/rng"
)

func TestNewIsDeterministic(t *testing.T) {
	a := rng.New(42, "/properties/name")
	b := rng.New(42, "/properties/name")

	for i := 0; i < 8; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestNewVariesByCanonPath(t *testing.T) {
	a := rng.New(42, "/properties/name")
	b := rng.New(42, "/properties/age")

	var equalAll = true
	for i := 0; i < 8; i++ {
		if a.Float64() != b.Float64() {
			equalAll = false
		}
	}
	require.False(t, equalAll, "distinct canonPaths should (almost certainly) diverge")
}

func TestNewVariesByGlobalSeed(t *testing.T) {
	a := rng.New(1, "/x")
	b := rng.New(2, "/x")
	require.NotEqual(t, a.Float64(), b.Float64())
}

func TestFloat64Bounds(t *testing.T) {
	g := rng.New(7, "/a")
	for i := 0; i < 1000; i++ {
		f := g.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
}

func TestIntnBounds(t *testing.T) {
	g := rng.New(7, "/a")
	for i := 0; i < 1000; i++ {
		n := g.Intn(5)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 5)
	}
}

func TestIntnPanicsOnNonPositive(t *testing.T) {
	g := rng.New(1, "/a")
	require.Panics(t, func() { g.Intn(0) })
	require.Panics(t, func() { g.Intn(-1) })
}

func TestBytesDeterministicAndFilled(t *testing.T) {
	a := rng.New(99, "/uuid")
	b := rng.New(99, "/uuid")

	bufA := make([]byte, 16)
	bufB := make([]byte, 16)
	a.Bytes(bufA)
	b.Bytes(bufB)
	require.Equal(t, bufA, bufB)

	allZero := true
	for _, b := range bufA {
		if b != 0 {
			allZero = false
			break
		}
	}
	require.False(t, allZero)
}

func TestBytesOddLength(t *testing.T) {
	g := rng.New(1, "/a")
	buf := make([]byte, 7)
	require.NotPanics(t, func() { g.Bytes(buf) })
}

func TestSeedZeroRemapped(t *testing.T) {
	g := rng.Seed(0)
	require.NotPanics(t, func() { g.Float64() })
}

func TestStableStringHashDeterministic(t *testing.T) {
	require.Equal(t, rng.StableStringHash("/a/b"), rng.StableStringHash("/a/b"))
	require.NotEqual(t, rng.StableStringHash("/a/b"), rng.StableStringHash("/a/c"))
}
