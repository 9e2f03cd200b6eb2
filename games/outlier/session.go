/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

import (
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

const (
	StateConnecting = "connecting"
	StateJoined     = "joined"
	StateClosed     = "closed"

	eventJoin  = "join"
	eventClose = "close"
)

// Session supervises one connection through connecting -> joined -> closed.
// Handle and Close are safe to call from different goroutines.
type Session struct {
	mu   sync.Mutex
	room *Room
	conn Conn
	sm   *fsm.FSM
	log  logrus.FieldLogger
}

// Open starts supervising a freshly accepted connection.
func (r *Room) Open(c Conn) *Session {
	s := &Session{
		room: r,
		conn: c,
		log:  r.log.WithField("conn", c.ID()),
	}

	s.sm = fsm.NewFSM(
		StateConnecting,
		fsm.Events{
			{Name: eventJoin, Src: []string{StateConnecting}, Dst: StateJoined},
			{Name: eventClose, Src: []string{StateConnecting, StateJoined}, Dst: StateClosed},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) {
				s.log.WithField("state", e.Dst).Debugf("GAMES: Connection %s -> %s", e.Src, e.Dst)
			},
		},
	)

	return s
}

// State returns the current lifecycle state.
func (s *Session) State() string {
	return s.sm.Current()
}

// Handle routes one raw inbound message according to the current state.
// Nothing a client sends terminates the connection.
func (s *Session) Handle(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sm.Is(StateClosed) {
		return
	}

	msg, err := Decode(data)
	if err != nil {
		if errors.Is(err, ErrUnknownMessage) {
			s.log.WithError(err).Debug("GAMES: Ignoring message")
			return
		}

		s.log.WithError(err).Warn("GAMES: Dropping malformed message")

		if s.sm.Is(StateConnecting) {
			s.room.Reply(s.conn, errorMessage(`send {"type":"join","identity":...,"displayName":...} first`))
		}

		return
	}

	switch m := msg.(type) {
	case JoinRequest:
		if !s.sm.Is(StateConnecting) {
			s.log.WithField("state", s.sm.Current()).Debug("GAMES: Ignoring join, already joined")
			return
		}

		if err := s.room.Join(s.conn, m.Identity, m.DisplayName); err != nil {
			s.log.WithError(err).Error("GAMES: Join completed without starting a round")
		}

		if err := s.sm.Event(eventJoin); err != nil {
			s.log.WithError(err).Error("GAMES: Join transition failed")
		}
	case RestartRequest:
		if !s.sm.Is(StateJoined) {
			s.log.WithField("state", s.sm.Current()).Debug("GAMES: Ignoring restart before join")
			return
		}

		if err := s.room.Restart(s.conn, m.Identity); err != nil {
			s.log.WithError(err).Error("GAMES: Restart failed")
		}
	case PingRequest:
		s.room.Reply(s.conn, PongMessage{Type: "pong"})
	}
}

// Close moves the session to closed and removes its participant. Only the
// first call has any effect.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sm.Event(eventClose); err != nil {
		return
	}

	s.room.Disconnect(s.conn.ID())
}
