/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

// PlayerView is the externally safe view of a participant. It carries no
// connection handle.
type PlayerView struct {
	Identity    string
	DisplayName string
	Role        Role
	Secret      *Value
	IsHost      bool
}

// Roster is the insertion-ordered set of joined participants.
type Roster struct {
	players []*Participant
}

func NewRoster() *Roster {
	return &Roster{}
}

func (r *Roster) Add(p *Participant) {
	r.players = append(r.players, p)
}

// Replace swaps in p for the participant with the same identity, keeping its
// position. It reports false if no such participant exists.
func (r *Roster) Replace(p *Participant) bool {
	for i, existing := range r.players {
		if existing.Identity == p.Identity {
			r.players[i] = p
			return true
		}
	}

	return false
}

// Remove deletes the participant with identity, preserving the order of the rest.
func (r *Roster) Remove(identity string) bool {
	for i, p := range r.players {
		if p.Identity == identity {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}

	return false
}

func (r *Roster) Len() int {
	return len(r.players)
}

// First returns the earliest-joined participant still present, or nil.
func (r *Roster) First() *Participant {
	if len(r.players) == 0 {
		return nil
	}

	return r.players[0]
}

// All returns the participants in join order. The slice is a copy.
func (r *Roster) All() []*Participant {
	out := make([]*Participant, len(r.players))
	copy(out, r.players)

	return out
}

// Conns returns the live connections of every participant, in join order.
func (r *Roster) Conns() []Conn {
	out := make([]Conn, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p.conn)
	}

	return out
}

func (r *Roster) Snapshot(hostIdentity string) []PlayerView {
	views := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		views = append(views, PlayerView{
			Identity:    p.Identity,
			DisplayName: p.DisplayName,
			Role:        p.Role,
			Secret:      p.Secret,
			IsHost:      hostIdentity != "" && p.Identity == hostIdentity,
		})
	}

	return views
}
