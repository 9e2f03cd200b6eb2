/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrValueTableTooSmall is returned when a table cannot yield two distinct
// values for a round.
var ErrValueTableTooSmall = errors.New("value table needs at least two distinct entries")

// Value is one entry of the secret value table.
type Value struct {
	ID   int
	Text string
}

func (v Value) same(o Value) bool {
	return v.ID == o.ID || v.Text == o.Text
}

// ValueTable is the immutable domain secret values are drawn from, ordered by ID.
type ValueTable struct {
	values []Value
}

// NewValueTable builds a table from an ID -> text mapping. Blank texts are
// rejected, as are two IDs sharing the same text.
func NewValueTable(entries map[int]string) (*ValueTable, error) {
	values := make([]Value, 0, len(entries))
	seen := make(map[string]int, len(entries))

	for id, text := range entries {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("value %d is blank", id)
		}
		if other, ok := seen[text]; ok {
			return nil, fmt.Errorf("values %d and %d are both %q", other, id, text)
		}
		seen[text] = id
		values = append(values, Value{ID: id, Text: text})
	}

	if len(values) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrValueTableTooSmall, len(values))
	}

	sort.Slice(values, func(i, j int) bool { return values[i].ID < values[j].ID })

	return &ValueTable{values: values}, nil
}

// ParseValues reads a JSON object of the form {"1": "text", "2": "text"}.
func ParseValues(r io.Reader) (*ValueTable, error) {
	raw := make(map[string]string)
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding value table: %w", err)
	}

	entries := make(map[int]string, len(raw))
	for key, text := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("value table key %q is not numeric", key)
		}
		entries[id] = text
	}

	return NewValueTable(entries)
}

// DefaultValues is the hardcoded fallback table.
func DefaultValues() *ValueTable {
	t, err := NewValueTable(map[int]string{
		1: "Winter tires",
		2: "Flying ant",
		3: "Wooden sword",
		4: "Lazy robot",
		5: "Pickle jar",
		6: "Upside-down shoe",
		7: "Paper boat",
		8: "Broken umbrella",
	})
	if err != nil {
		panic(err)
	}

	return t
}

// Len returns the number of entries.
func (t *ValueTable) Len() int {
	return len(t.values)
}

// Domain returns a copy of the entries in ID order.
func (t *ValueTable) Domain() []Value {
	out := make([]Value, len(t.values))
	copy(out, t.values)

	return out
}
