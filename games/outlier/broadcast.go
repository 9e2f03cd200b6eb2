/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

type delivery struct {
	to  []Conn
	msg any
}

// outbox collects everything a critical section wants sent, so the sends can
// happen after the room lock is released.
type outbox struct {
	deliveries []delivery
	closing    []Conn
}

func (o *outbox) broadcast(to []Conn, msg any) {
	o.deliveries = append(o.deliveries, delivery{to: to, msg: msg})
}

func (o *outbox) send(to Conn, msg any) {
	o.deliveries = append(o.deliveries, delivery{to: []Conn{to}, msg: msg})
}

func (o *outbox) close(c Conn) {
	o.closing = append(o.closing, c)
}

// Broadcaster serializes outbound messages once and enqueues them on every
// recipient independently. A failing recipient is handed to evict and never
// affects the others.
type Broadcaster struct {
	log   logrus.FieldLogger
	evict func(c Conn)
}

func NewBroadcaster(log logrus.FieldLogger, evict func(c Conn)) *Broadcaster {
	return &Broadcaster{
		log:   log,
		evict: evict,
	}
}

func (b *Broadcaster) publish(o outbox) {
	failed := make(map[string]bool)

	for _, d := range o.deliveries {
		data, err := json.Marshal(d.msg)
		if err != nil {
			b.log.WithError(err).Error("GAMES: Unable to encode outbound message")
			continue
		}

		for _, c := range d.to {
			if failed[c.ID()] {
				continue
			}

			if err := c.Enqueue(data); err != nil {
				failed[c.ID()] = true

				b.log.WithError(err).WithField("conn", c.ID()).Warn("GAMES: Delivery failed, evicting connection")

				if b.evict != nil {
					go b.evict(c)
				}
			}
		}
	}

	for _, c := range o.closing {
		if err := c.Close(); err != nil {
			b.log.WithError(err).WithField("conn", c.ID()).Debug("GAMES: Close of superseded connection failed")
		}
	}
}
