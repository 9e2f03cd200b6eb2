package outlier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Upsert(t *testing.T) {
	t.Run("installs a new identity", func(t *testing.T) {
		r := NewRegistry()
		c := newFakeConn("c1")

		p, displaced := r.Upsert("42", "Alice", c)

		assert.Nil(t, displaced)
		assert.Equal(t, "42", p.Identity)
		assert.Equal(t, "Alice", p.DisplayName)
		assert.Equal(t, c, p.Conn())
		assert.Equal(t, 1, r.Len())
	})

	t.Run("supersedes an existing identity", func(t *testing.T) {
		r := NewRegistry()
		first := newFakeConn("c1")
		second := newFakeConn("c2")

		old, _ := r.Upsert("42", "Alice", first)
		p, displaced := r.Upsert("42", "Alicia", second)

		require.NotNil(t, displaced)
		assert.Same(t, old, displaced)
		assert.Equal(t, "Alicia", p.DisplayName)
		assert.Equal(t, 1, r.Len())

		_, ok := r.Lookup("c1")
		assert.False(t, ok, "stale connection should no longer resolve")

		got, ok := r.Lookup("c2")
		require.True(t, ok)
		assert.Same(t, p, got)
	})
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	r.Upsert("42", "Alice", newFakeConn("c1"))

	p, ok := r.Remove("c1")
	require.True(t, ok)
	assert.Equal(t, "42", p.Identity)
	assert.Equal(t, 0, r.Len())

	_, ok = r.Remove("c1")
	assert.False(t, ok, "second removal should be a no-op")

	_, ok = r.Remove("unknown")
	assert.False(t, ok)
}

func TestRegistry_RemoveStaleConnectionAfterRejoin(t *testing.T) {
	r := NewRegistry()
	r.Upsert("42", "Alice", newFakeConn("c1"))
	r.Upsert("42", "Alice", newFakeConn("c2"))

	_, ok := r.Remove("c1")
	assert.False(t, ok, "the superseded connection must not evict the new record")

	_, ok = r.Get("42")
	assert.True(t, ok)
}
