/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Seednode/outlier/games/outlier"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const (
	maxMessageSize int64         = 4096
	writeWait      time.Duration = 10 * time.Second
	qrSize         int           = 320
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: writeWait,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConn adapts a gorilla websocket to outlier.Conn. Writes happen only on
// the writePump goroutine; everyone else goes through the send queue.
type wsConn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	log  logrus.FieldLogger

	mu     sync.Mutex
	closed bool

	lastSeen atomic.Int64
}

func newWSConn(ws *websocket.Conn, buffer int, log logrus.FieldLogger) *wsConn {
	c := &wsConn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, buffer),
	}
	c.log = log.WithField("conn", c.id)
	c.touch()

	return c
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errConnClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSendQueueFull
	}
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)

	return nil
}

func (c *wsConn) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

func (c *wsConn) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

func (c *wsConn) readPump(session *outlier.Session, liveness time.Duration) {
	defer func() {
		session.Close()
		_ = c.Close()
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(liveness))
	c.ws.SetPongHandler(func(string) error {
		c.touch()

		return c.ws.SetReadDeadline(time.Now().Add(liveness))
	})

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("GAMES: Connection read failed")
			}

			return
		}

		c.touch()
		_ = c.ws.SetReadDeadline(time.Now().Add(liveness))

		if kind != websocket.TextMessage {
			continue
		}

		session.Handle(data)
	}
}

func (c *wsConn) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

				return
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.WithError(err).Debug("GAMES: Connection write failed")

				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func serveSocket(cfg *Config, room *outlier.Room, log logrus.FieldLogger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Debug("SERVE: WebSocket upgrade failed")

			return
		}

		c := newWSConn(ws, cfg.sendBuffer, log)
		c.log.WithField("remote", realIP(r)).Debug("GAMES: Connection opened")

		session := room.Open(c)

		go c.writePump(cfg.pingInterval)
		c.readPump(session, cfg.livenessTimeout)

		c.log.Debug("GAMES: Connection closed")
	}
}

// serveQR renders a PNG QR code pointing at the room page.
func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr") + "/"

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		_, err = w.Write(png)
		if err != nil {
			errs <- err
		}
	}
}

func registerGame(cfg *Config, room *outlier.Room, log logrus.FieldLogger, errs chan<- error, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/ws", serveSocket(cfg, room, log))
	mux.GET(cfg.prefix+"/qr", serveQR(cfg, errs))
}
