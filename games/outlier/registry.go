/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

import (
	"time"
)

// Registry maps stable identities to their single live participant, and
// connection IDs back to identities. It is not safe for concurrent use; the
// owning Room serializes access.
type Registry struct {
	byIdentity map[string]*Participant
	byConn     map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[string]*Participant),
		byConn:     make(map[string]string),
	}
}

// Upsert installs a participant for identity on conn. If the identity was
// already live, the previous record is discarded and returned so the caller can
// close its connection.
func (r *Registry) Upsert(identity, displayName string, conn Conn) (*Participant, *Participant) {
	displaced, ok := r.byIdentity[identity]
	if ok {
		delete(r.byConn, displaced.conn.ID())
	}

	p := &Participant{
		Identity:    identity,
		DisplayName: displayName,
		JoinedAt:    time.Now(),
		conn:        conn,
	}

	r.byIdentity[identity] = p
	r.byConn[conn.ID()] = identity

	if !ok {
		return p, nil
	}

	return p, displaced
}

// Remove evicts the participant owning connID. Unknown connections are a no-op.
func (r *Registry) Remove(connID string) (*Participant, bool) {
	identity, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}

	p := r.byIdentity[identity]

	delete(r.byConn, connID)
	delete(r.byIdentity, identity)

	return p, true
}

// Lookup returns the participant owning connID.
func (r *Registry) Lookup(connID string) (*Participant, bool) {
	identity, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}

	return r.byIdentity[identity], true
}

func (r *Registry) Get(identity string) (*Participant, bool) {
	p, ok := r.byIdentity[identity]

	return p, ok
}

func (r *Registry) Len() int {
	return len(r.byIdentity)
}
