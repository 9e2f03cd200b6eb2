package outlier

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func players(n int) []*Participant {
	out := make([]*Participant, 0, n)
	for i := range n {
		id := string(rune('a' + i))
		out = append(out, participant(id, "Player "+id))
	}

	return out
}

func TestEngine_DrawBelowMinimum(t *testing.T) {
	e := NewEngine(3, 64, nil)

	_, err := e.Draw(players(2), DefaultValues().Domain())

	var cannot *CannotStartError
	require.True(t, errors.As(err, &cannot))
	assert.Contains(t, cannot.Reason, "at least 3")
}

func TestEngine_DrawPicksByIndex(t *testing.T) {
	// outlier index, regular index, outlier draws
	e := NewEngine(3, 64, &seqRand{draws: []int{1, 0, 0, 0, 4}})
	ps := players(3)
	domain := DefaultValues().Domain()

	a, err := e.Draw(ps, domain)
	require.NoError(t, err)

	assert.Equal(t, ps[1].Identity, a.OutlierIdentity)
	assert.Equal(t, ps[1].DisplayName, a.OutlierName)
	assert.Equal(t, domain[0], a.RegularValue)
	assert.Equal(t, domain[4], a.OutlierValue, "draws equal to the regular value are rejected")
}

func TestEngine_DrawCeilingFallsBackToScan(t *testing.T) {
	domain := DefaultValues().Domain()[:3]

	e := NewEngine(3, 1, &seqRand{draws: []int{0}})

	for range 10 {
		a, err := e.Draw(players(3), domain)
		require.NoError(t, err)
		assert.Equal(t, domain[0], a.RegularValue)
		assert.Equal(t, domain[1], a.OutlierValue, "the scan picks the next distinct value")
	}
}

func TestEngine_NoDistinctValue(t *testing.T) {
	e := NewEngine(3, 4, &seqRand{draws: []int{0}})

	_, err := e.Draw(players(3), []Value{{ID: 1, Text: "same"}, {ID: 2, Text: "same"}, {ID: 3, Text: "same"}})

	assert.ErrorIs(t, err, ErrValuePoolExhausted)
}

func TestEngine_SmallDomainScans(t *testing.T) {
	table, err := NewValueTable(map[int]string{1: "left", 2: "right"})
	require.NoError(t, err)

	e := NewEngine(3, 1, &seqRand{draws: []int{0, 1}})

	a, err := e.Draw(players(3), table.Domain())
	require.NoError(t, err)

	assert.Equal(t, "right", a.RegularValue.Text)
	assert.Equal(t, "left", a.OutlierValue.Text)
}

func TestEngine_DomainTooSmall(t *testing.T) {
	e := NewEngine(3, 64, nil)

	_, err := e.Draw(players(3), []Value{{ID: 1, Text: "only"}})

	assert.ErrorIs(t, err, ErrValuePoolExhausted)
}

func TestEngine_DistinctValuesAlways(t *testing.T) {
	e := NewEngine(3, 64, rand.New(rand.NewPCG(1, 2)))
	domain := DefaultValues().Domain()

	for range 500 {
		ps := players(5)

		a, err := e.Draw(ps, domain)
		require.NoError(t, err)
		require.NotEqual(t, a.RegularValue, a.OutlierValue)

		a.Apply(ps)

		outliers := 0
		for _, p := range ps {
			require.NotNil(t, p.Secret)
			if p.Role == RoleOutlier {
				outliers++
				assert.Equal(t, a.OutlierValue, *p.Secret)
				continue
			}
			assert.Equal(t, RoleRegular, p.Role)
			assert.Equal(t, a.RegularValue, *p.Secret)
		}
		require.Equal(t, 1, outliers)
	}
}

func TestEngine_OutlierIsUniform(t *testing.T) {
	e := NewEngine(3, 64, rand.New(rand.NewPCG(7, 11)))
	ps := players(4)
	domain := DefaultValues().Domain()

	counts := make(map[string]int)
	for range 4000 {
		a, err := e.Draw(ps, domain)
		require.NoError(t, err)
		counts[a.OutlierIdentity]++
	}

	for _, p := range ps {
		assert.InDelta(t, 1000, counts[p.Identity], 150, "outlier frequency for %s", p.Identity)
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "outlier", RoleOutlier.String())
	assert.Equal(t, "regular", RoleRegular.String())
	assert.Equal(t, "unassigned", RoleUnassigned.String())
	assert.Equal(t, "running", RoundRunning.String())
	assert.Equal(t, "idle", RoundIdle.String())
}
