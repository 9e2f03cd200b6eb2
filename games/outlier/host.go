/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

// HostAuthority tracks the single participant allowed to restart rounds.
type HostAuthority struct {
	identity string
	connID   string
}

// ElectIfNeeded makes the earliest-joined present participant the host. It
// returns the host and whether the host, or the host's connection, changed.
// An empty roster clears the host.
func (h *HostAuthority) ElectIfNeeded(roster *Roster) (*Participant, bool) {
	first := roster.First()
	if first == nil {
		changed := h.identity != ""
		h.identity, h.connID = "", ""
		return nil, changed
	}

	if first.Identity == h.identity && first.conn.ID() == h.connID {
		return first, false
	}

	h.identity = first.Identity
	h.connID = first.conn.ID()

	return first, true
}

// AuthorizeRestart reports whether identity is the current host.
func (h *HostAuthority) AuthorizeRestart(identity string) bool {
	return identity != "" && identity == h.identity
}

func (h *HostAuthority) Identity() string {
	return h.identity
}
