package hashtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndLookup(t *testing.T) {
	tbl := New[int](0)

	require.NoError(t, tbl.Insert("FIRST", 100))
	require.NoError(t, tbl.Insert("BUFFER", 200))

	v, ok := tbl.Lookup("FIRST")
	assert.True(t, ok)
	assert.Equal(t, 100, v)

	v, ok = tbl.Lookup("BUFFER")
	assert.True(t, ok)
	assert.Equal(t, 200, v)

	_, ok = tbl.Lookup("MISSING")
	assert.False(t, ok)
}

func TestInsertDuplicateKeyIsError(t *testing.T) {
	tbl := New[int](0)
	require.NoError(t, tbl.Insert("LDA", 1))

	err := tbl.Insert("LDA", 2)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// original value must survive the rejected insert
	v, ok := tbl.Lookup("LDA")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestZeroCapacityDefaultsTo32(t *testing.T) {
	tbl := New[int](0)
	assert.Len(t, tbl.buckets, defaultCapacity)
}

func TestGrowthPreservesAllEntries(t *testing.T) {
	tbl := New[int](4)

	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, tbl.Insert(fmt.Sprintf("SYM%03d", i), i))
	}

	assert.Equal(t, n, tbl.Len())
	for i := 0; i < n; i++ {
		v, ok := tbl.Lookup(fmt.Sprintf("SYM%03d", i))
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestKeysReturnsAllLiveEntries(t *testing.T) {
	tbl := New[int](0)
	require.NoError(t, tbl.Insert("A", 1))
	require.NoError(t, tbl.Insert("B", 2))

	keys := tbl.Keys()
	assert.ElementsMatch(t, []string{"A", "B"}, keys)
}
