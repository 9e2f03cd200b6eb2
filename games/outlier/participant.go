/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

import (
	"time"
)

// Conn is a live client connection as seen by the room. Implementations must
// not block in Enqueue: a full or closed connection reports an error instead.
type Conn interface {
	ID() string
	Enqueue(data []byte) error
	Close() error
	LastSeen() time.Time
}

type Role int

const (
	RoleUnassigned Role = iota
	RoleOutlier
	RoleRegular
)

func (r Role) String() string {
	switch r {
	case RoleOutlier:
		return "outlier"
	case RoleRegular:
		return "regular"
	default:
		return "unassigned"
	}
}

// Participant is one joined player. It owns its connection for its lifetime.
type Participant struct {
	Identity    string
	DisplayName string
	Role        Role
	Secret      *Value
	JoinedAt    time.Time

	conn Conn
}

// Conn returns the connection owned by this participant.
func (p *Participant) Conn() Conn {
	return p.conn
}

func (p *Participant) clearRound() {
	p.Role = RoleUnassigned
	p.Secret = nil
}

func (p *Participant) String() string {
	return p.DisplayName + " (" + p.Identity + ")"
}
