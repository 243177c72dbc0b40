package intern_test

import (
	"fmt"
	"testing"

	"github.com/mna/lumen/lang/intern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	tbl := intern.New[int](0)

	wasNew := tbl.Set("alpha", intern.FNV1a32([]byte("alpha")), 1)
	assert.True(t, wasNew)
	wasNew = tbl.Set("alpha", intern.FNV1a32([]byte("alpha")), 2)
	assert.False(t, wasNew, "re-setting an existing key is not a new insertion")

	v, ok := tbl.Get("alpha", intern.FNV1a32([]byte("alpha")))
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = tbl.Get("beta", intern.FNV1a32([]byte("beta")))
	assert.False(t, ok)

	assert.True(t, tbl.Delete("alpha", intern.FNV1a32([]byte("alpha"))))
	_, ok = tbl.Get("alpha", intern.FNV1a32([]byte("alpha")))
	assert.False(t, ok)
	assert.False(t, tbl.Delete("alpha", intern.FNV1a32([]byte("alpha"))), "already deleted")
}

func TestTombstoneReuseKeepsProbeChainIntact(t *testing.T) {
	tbl := intern.New[int](0)
	// insert two keys, delete the first, then make sure the second is still
	// reachable (i.e. the tombstone did not break its probe chain). Both keys
	// are given the same hash so that k2 is stored past k1's slot.
	h1 := intern.FNV1a32([]byte("k1"))
	h2 := h1
	tbl.Set("k1", h1, 1)
	tbl.Set("k2", h2, 2)
	tbl.Delete("k1", h1)

	v, ok := tbl.Get("k2", h2)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestGrowthPreservesAllEntries(t *testing.T) {
	tbl := intern.New[int](0)
	const n = 500
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", i)
		tbl.Set(key, intern.FNV1a32([]byte(key)), i)
	}
	require.Equal(t, n, tbl.Len())
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", i)
		v, ok := tbl.Get(key, intern.FNV1a32([]byte(key)))
		require.True(t, ok, "key %s should survive growth", key)
		assert.Equal(t, i, v)
	}
}

func TestFindKeyReturnsCanonicalKey(t *testing.T) {
	tbl := intern.New[int](0)
	h := intern.FNV1a32([]byte("shared"))
	tbl.Set("shared", h, 42)

	canonical, ok := tbl.FindKey("shared", h)
	require.True(t, ok)
	assert.Equal(t, "shared", canonical)

	_, ok = tbl.FindKey("missing", intern.FNV1a32([]byte("missing")))
	assert.False(t, ok)
}

func TestStringsInterningIdentity(t *testing.T) {
	s := intern.NewStrings()
	a := s.Intern([]byte("hi"))
	b := s.Intern([]byte("hi"))
	assert.Same(t, a, b, "two interned calls with equal bytes share one canonical instance")

	c := s.Intern([]byte("bye"))
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, s.Len())
}
