package outlier

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var errFakeClosed = errors.New("fake connection closed")

// fakeConn records every payload enqueued on it.
type fakeConn struct {
	id string

	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failing  bool
	lastSeen time.Time
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, lastSeen: time.Now()}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Enqueue(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.failing {
		return errFakeClosed
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	f.messages = append(f.messages, cp)

	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func (f *fakeConn) LastSeen() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastSeen
}

func (f *fakeConn) setLastSeen(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastSeen = t
}

func (f *fakeConn) setFailing() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failing = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

// received decodes every message of type typ, in order.
func (f *fakeConn) received(t *testing.T, typ string) []map[string]any {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []map[string]any
	for _, raw := range f.messages {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		if m["type"] == typ {
			out = append(out, m)
		}
	}

	return out
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.messages)
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = nil
}

// seqRand replays fixed draws, reduced modulo n.
type seqRand struct {
	draws []int
	next  int
}

func (s *seqRand) IntN(n int) int {
	v := s.draws[s.next%len(s.draws)]
	s.next++

	return v % n
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

func newTestRoom(t *testing.T, r Rand) *Room {
	t.Helper()

	room, err := NewRoom(Options{
		MinPlayers: 3,
		MaxDraws:   64,
		Values:     DefaultValues(),
		Rand:       r,
		Log:        quietLogger(),
	})
	require.NoError(t, err)

	return room
}

func lastPlayers(t *testing.T, c *fakeConn) []any {
	t.Helper()

	msgs := c.received(t, "players")
	require.NotEmpty(t, msgs, "no players message for %s", c.id)

	return msgs[len(msgs)-1]["players"].([]any)
}

func hostFlags(t *testing.T, players []any) map[string]bool {
	t.Helper()

	out := make(map[string]bool, len(players))
	for _, p := range players {
		entry := p.(map[string]any)
		out[entry["identity"].(string)] = entry["isHost"].(bool)
	}

	return out
}
