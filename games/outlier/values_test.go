package outlier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValueTable(t *testing.T) {
	t.Run("orders entries by id", func(t *testing.T) {
		table, err := NewValueTable(map[int]string{3: "c", 1: "a", 2: "b"})
		require.NoError(t, err)

		domain := table.Domain()
		require.Len(t, domain, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{domain[0].ID, domain[1].ID, domain[2].ID})
	})

	t.Run("rejects fewer than two entries", func(t *testing.T) {
		_, err := NewValueTable(map[int]string{1: "only"})
		assert.ErrorIs(t, err, ErrValueTableTooSmall)
	})

	t.Run("rejects duplicate texts", func(t *testing.T) {
		_, err := NewValueTable(map[int]string{1: "same", 2: " same "})
		assert.Error(t, err)
	})

	t.Run("rejects blank texts", func(t *testing.T) {
		_, err := NewValueTable(map[int]string{1: "a", 2: "  "})
		assert.Error(t, err)
	})

	t.Run("domain is a copy", func(t *testing.T) {
		table := DefaultValues()
		domain := table.Domain()
		domain[0].Text = "changed"

		assert.NotEqual(t, "changed", table.Domain()[0].Text)
	})
}

func TestParseValues(t *testing.T) {
	t.Run("reads numeric keys", func(t *testing.T) {
		table, err := ParseValues(strings.NewReader(`{"1": "Pickle jar", "7": "Paper boat"}`))
		require.NoError(t, err)

		assert.Equal(t, 2, table.Len())
		assert.Equal(t, Value{ID: 7, Text: "Paper boat"}, table.Domain()[1])
	})

	t.Run("rejects non-numeric keys", func(t *testing.T) {
		_, err := ParseValues(strings.NewReader(`{"one": "a", "2": "b"}`))
		assert.Error(t, err)
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := ParseValues(strings.NewReader(`[1, 2]`))
		assert.Error(t, err)
	})
}

func TestDefaultValues(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultValues().Len(), 2)
}
