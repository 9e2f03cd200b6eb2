/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures a Room.
type Options struct {
	MinPlayers int
	MaxDraws   int
	Values     *ValueTable
	Rand       Rand
	Log        logrus.FieldLogger
}

// PreviousOutlier is the outlier of the round before the current one.
type PreviousOutlier struct {
	Identity    string
	DisplayName string
}

// State is a point-in-time copy of the room, safe to hand out.
type State struct {
	Players         []PlayerView
	Host            string
	Round           RoundStatus
	PreviousOutlier *PreviousOutlier
}

// Room is the single shared game session. Every mutation happens under mu and
// produces an outbox; the outbox is published after mu is released, under pub,
// which is acquired before mu is dropped so publishes keep critical-section order.
type Room struct {
	mu  sync.Mutex
	pub sync.Mutex

	log         logrus.FieldLogger
	values      *ValueTable
	engine      *Engine
	registry    *Registry
	roster      *Roster
	host        HostAuthority
	broadcaster *Broadcaster

	status      RoundStatus
	round       *Assignment
	previous    *PreviousOutlier
	autoStarted bool
}

func NewRoom(opts Options) (*Room, error) {
	if opts.MinPlayers < 2 {
		return nil, fmt.Errorf("minimum players must be at least 2, got %d", opts.MinPlayers)
	}
	if opts.MaxDraws < 1 {
		return nil, fmt.Errorf("draw ceiling must be at least 1, got %d", opts.MaxDraws)
	}
	if opts.Values == nil || opts.Values.Len() < 2 {
		return nil, ErrValueTableTooSmall
	}

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := &Room{
		log:      log,
		values:   opts.Values,
		engine:   NewEngine(opts.MinPlayers, opts.MaxDraws, opts.Rand),
		registry: NewRegistry(),
		roster:   NewRoster(),
	}
	r.broadcaster = NewBroadcaster(log, r.Evict)

	return r, nil
}

// unlockAndPublish must be called with mu held.
func (r *Room) unlockAndPublish(o outbox) {
	r.pub.Lock()
	r.mu.Unlock()
	defer r.pub.Unlock()

	r.broadcaster.publish(o)
}

// Reply sends msg to a single connection, in order with room publishes.
func (r *Room) Reply(c Conn, msg any) {
	var o outbox
	o.send(c, msg)

	r.pub.Lock()
	defer r.pub.Unlock()

	r.broadcaster.publish(o)
}

// reconcileLocked re-runs host election and queues the host notice. An empty
// room resets the round.
func (r *Room) reconcileLocked(o *outbox) {
	elected, changed := r.host.ElectIfNeeded(r.roster)
	if elected == nil {
		r.status = RoundIdle
		r.round = nil
		r.autoStarted = false
		return
	}

	if changed {
		r.log.WithField("identity", elected.Identity).Info("GAMES: Host elected")
		o.send(elected.conn, HostMessage{Type: "host"})
	}
}

func (r *Room) playersMessageLocked() PlayersMessage {
	return newPlayersMessage(r.roster.Snapshot(r.host.Identity()), r.status)
}

// startRoundLocked draws and applies a new round. On error nothing is changed.
func (r *Room) startRoundLocked() error {
	a, err := r.engine.Draw(r.roster.All(), r.values.Domain())
	if err != nil {
		return err
	}

	if r.round != nil {
		r.previous = &PreviousOutlier{
			Identity:    r.round.OutlierIdentity,
			DisplayName: r.round.OutlierName,
		}
	}

	players := r.roster.All()
	for _, p := range players {
		p.clearRound()
	}
	a.Apply(players)

	r.round = a
	r.status = RoundRunning

	r.log.WithFields(logrus.Fields{
		"players": len(players),
		"regular": a.RegularValue.ID,
		"outlier": a.OutlierValue.ID,
	}).Info("GAMES: Round started")

	return nil
}

func (r *Room) queueWordsLocked(o *outbox) {
	for _, p := range r.roster.All() {
		if msg, ok := newWordMessage(p); ok {
			o.send(p.conn, msg)
		}
	}
}

// Join installs identity on c, supersedes any earlier connection for the same
// identity, and auto-starts the first round once the minimum is reached.
func (r *Room) Join(c Conn, identity, displayName string) error {
	r.mu.Lock()

	var o outbox

	p, displaced := r.registry.Upsert(identity, displayName, c)
	if displaced != nil {
		p.Role = displaced.Role
		p.Secret = displaced.Secret
		r.roster.Replace(p)
		o.close(displaced.conn)

		r.log.WithFields(logrus.Fields{
			"identity": identity,
			"conn":     c.ID(),
			"previous": displaced.conn.ID(),
		}).Info("GAMES: Player rejoined")
	} else {
		r.roster.Add(p)

		r.log.WithFields(logrus.Fields{
			"identity": identity,
			"conn":     c.ID(),
		}).Infof("GAMES: Player %q joined", displayName)
	}

	r.reconcileLocked(&o)

	var err error
	started := false
	if !r.autoStarted && r.status == RoundIdle && r.roster.Len() >= r.engine.MinPlayers() {
		err = r.startRoundLocked()
		if err == nil {
			r.autoStarted = true
			started = true
		} else {
			r.log.WithError(err).Error("GAMES: Unable to start round")
		}
	}

	o.broadcast(r.roster.Conns(), r.playersMessageLocked())

	switch {
	case started:
		r.queueWordsLocked(&o)
	case r.status == RoundRunning:
		if msg, ok := newWordMessage(p); ok {
			o.send(c, msg)
		}
	}

	r.unlockAndPublish(o)

	return err
}

// Restart starts a new round on behalf of the participant bound to c. Only the
// host may restart; anyone else gets an error reply and nothing changes.
func (r *Room) Restart(c Conn, identity string) error {
	r.mu.Lock()

	var o outbox

	p, ok := r.registry.Lookup(c.ID())
	if !ok {
		r.log.WithField("conn", c.ID()).Info("GAMES: Restart refused, connection not in the room")

		o.send(c, errorMessage("only the host can restart the round"))
		r.unlockAndPublish(o)

		return nil
	}

	if p.Identity != identity || !r.host.AuthorizeRestart(identity) {
		r.log.WithField("identity", identity).Info("GAMES: Restart refused, not the host")

		o.send(c, errorMessage("only the host can restart the round"))
		r.unlockAndPublish(o)

		return nil
	}

	previousRound := r.round

	err := r.startRoundLocked()

	var cannot *CannotStartError
	switch {
	case errors.As(err, &cannot):
		o.send(c, CannotStartMessage{Type: "cannotStart", Reason: cannot.Reason})
		r.unlockAndPublish(o)

		return nil
	case err != nil:
		r.log.WithError(err).Error("GAMES: Unable to start round")

		o.send(c, errorMessage("the round could not be started"))
		r.unlockAndPublish(o)

		return err
	}

	if previousRound != nil {
		o.broadcast(r.roster.Conns(), PreviousSpecialMessage{
			Type:        "previousSpecial",
			DisplayName: r.previous.DisplayName,
		})
	}

	o.broadcast(r.roster.Conns(), r.playersMessageLocked())
	r.queueWordsLocked(&o)

	r.unlockAndPublish(o)

	return nil
}

func (r *Room) removeLocked(connID string) (*Participant, bool) {
	p, ok := r.registry.Remove(connID)
	if !ok {
		return nil, false
	}

	r.roster.Remove(p.Identity)
	p.conn = nil

	r.log.WithFields(logrus.Fields{
		"identity": p.Identity,
		"conn":     connID,
	}).Infof("GAMES: Player %q left", p.DisplayName)

	return p, true
}

// Disconnect removes the participant owning connID, re-elects the host and
// broadcasts the new roster. Unknown or already removed connections are a no-op.
func (r *Room) Disconnect(connID string) bool {
	r.mu.Lock()

	var o outbox

	if _, ok := r.removeLocked(connID); !ok {
		r.mu.Unlock()
		return false
	}

	r.reconcileLocked(&o)
	o.broadcast(r.roster.Conns(), r.playersMessageLocked())

	r.unlockAndPublish(o)

	return true
}

// Evict is Disconnect for connections the server gave up on: the connection
// is closed as well, even when it never joined or was already superseded.
func (r *Room) Evict(c Conn) {
	r.mu.Lock()

	var o outbox

	if _, ok := r.registry.Lookup(c.ID()); !ok {
		r.mu.Unlock()

		if err := c.Close(); err != nil {
			r.log.WithError(err).WithField("conn", c.ID()).Debug("GAMES: Close of unjoined connection failed")
		}

		return
	}

	r.removeLocked(c.ID())
	r.reconcileLocked(&o)
	o.broadcast(r.roster.Conns(), r.playersMessageLocked())
	o.close(c)

	r.unlockAndPublish(o)
}

// Sweep evicts every participant whose connection has not been heard from
// since cutoff. It returns the number evicted.
func (r *Room) Sweep(cutoff time.Time) int {
	r.mu.Lock()

	var o outbox

	evicted := 0
	for _, p := range r.roster.All() {
		c := p.conn
		if !c.LastSeen().Before(cutoff) {
			continue
		}

		r.log.WithField("conn", c.ID()).Warn("GAMES: Connection unresponsive, evicting")

		r.removeLocked(c.ID())
		o.close(c)
		evicted++
	}

	if evicted == 0 {
		r.mu.Unlock()
		return 0
	}

	r.reconcileLocked(&o)
	o.broadcast(r.roster.Conns(), r.playersMessageLocked())

	r.unlockAndPublish(o)

	return evicted
}

// RunSweeper sweeps every interval until ctx is done.
func (r *Room) RunSweeper(ctx context.Context, interval, timeout time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			r.Sweep(now.Add(-timeout))
		}
	}
}

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := State{
		Players: r.roster.Snapshot(r.host.Identity()),
		Host:    r.host.Identity(),
		Round:   r.status,
	}
	if r.previous != nil {
		prev := *r.previous
		s.PreviousOutlier = &prev
	}

	return s
}

func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.roster.Len()
}
