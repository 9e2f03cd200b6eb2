/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrValuePoolExhausted means the value domain holds no second distinct value.
// It is a configuration problem, not a per-round one.
var ErrValuePoolExhausted = errors.New("value pool exhausted")

// scanThreshold is the domain size at or below which the outlier value is
// found by scanning rather than by rejection sampling.
const scanThreshold = 2

// CannotStartError reports an unmet round precondition.
type CannotStartError struct {
	Reason string
}

func (e *CannotStartError) Error() string {
	return "cannot start round: " + e.Reason
}

// Rand is the source of uniform draws used for assignments.
type Rand interface {
	IntN(n int) int
}

type runtimeRand struct{}

func (runtimeRand) IntN(n int) int {
	return rand.IntN(n)
}

type RoundStatus int

const (
	RoundIdle RoundStatus = iota
	RoundRunning
)

func (s RoundStatus) String() string {
	if s == RoundRunning {
		return "running"
	}

	return "idle"
}

// Assignment is the outcome of one round draw.
type Assignment struct {
	OutlierIdentity string
	OutlierName     string
	RegularValue    Value
	OutlierValue    Value
}

// Engine picks the outlier and the two secret values for a round.
type Engine struct {
	minPlayers int
	maxDraws   int
	rand       Rand
}

func NewEngine(minPlayers, maxDraws int, r Rand) *Engine {
	if r == nil {
		r = runtimeRand{}
	}

	return &Engine{
		minPlayers: minPlayers,
		maxDraws:   maxDraws,
		rand:       r,
	}
}

func (e *Engine) MinPlayers() int {
	return e.minPlayers
}

// Draw computes a new assignment without touching the participants.
func (e *Engine) Draw(players []*Participant, domain []Value) (*Assignment, error) {
	if len(players) < e.minPlayers {
		return nil, &CannotStartError{
			Reason: fmt.Sprintf("need at least %d players, have %d", e.minPlayers, len(players)),
		}
	}
	if len(domain) < 2 {
		return nil, fmt.Errorf("%w: domain has %d values", ErrValuePoolExhausted, len(domain))
	}

	outlier := players[e.rand.IntN(len(players))]

	regular := e.rand.IntN(len(domain))

	other, err := e.distinct(domain, regular)
	if err != nil {
		return nil, err
	}

	return &Assignment{
		OutlierIdentity: outlier.Identity,
		OutlierName:     outlier.DisplayName,
		RegularValue:    domain[regular],
		OutlierValue:    domain[other],
	}, nil
}

// distinct samples up to maxDraws times for a value other than regular, then
// falls back to a scan so a valid domain never fails.
func (e *Engine) distinct(domain []Value, regular int) (int, error) {
	if len(domain) > scanThreshold {
		for range e.maxDraws {
			i := e.rand.IntN(len(domain))
			if !domain[i].same(domain[regular]) {
				return i, nil
			}
		}
	}

	for k := 1; k < len(domain); k++ {
		i := (regular + k) % len(domain)
		if !domain[i].same(domain[regular]) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: no value differs from %q", ErrValuePoolExhausted, domain[regular].Text)
}

// Apply writes an assignment onto the participants.
func (a *Assignment) Apply(players []*Participant) {
	for _, p := range players {
		if p.Identity == a.OutlierIdentity {
			v := a.OutlierValue
			p.Role = RoleOutlier
			p.Secret = &v
			continue
		}

		v := a.RegularValue
		p.Role = RoleRegular
		p.Secret = &v
	}
}
