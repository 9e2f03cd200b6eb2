/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package outlier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxDisplayNameLength = 50

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownMessage   = errors.New("unknown message type")
)

// Inbound is the closed set of messages a client may send.
type Inbound interface {
	inbound()
}

type JoinRequest struct {
	Identity    string
	DisplayName string
}

type RestartRequest struct {
	Identity string
}

type PingRequest struct{}

func (JoinRequest) inbound()    {}
func (RestartRequest) inbound() {}
func (PingRequest) inbound()    {}

// wireMessage accepts both the documented field names and the ones older
// clients send (playerId, username).
type wireMessage struct {
	Type        string          `json:"type"`
	Identity    json.RawMessage `json:"identity,omitempty"`
	PlayerID    json.RawMessage `json:"playerId,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Username    string          `json:"username,omitempty"`
}

// Decode parses and validates one client message.
func Decode(data []byte) (Inbound, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	raw := w.Identity
	if len(raw) == 0 {
		raw = w.PlayerID
	}

	switch w.Type {
	case "join":
		identity, err := parseIdentity(raw)
		if err != nil {
			return nil, err
		}

		name := w.DisplayName
		if name == "" {
			name = w.Username
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: join requires a display name", ErrMalformedMessage)
		}
		if utf8.RuneCountInString(name) > MaxDisplayNameLength {
			return nil, fmt.Errorf("%w: display name longer than %d characters", ErrMalformedMessage, MaxDisplayNameLength)
		}

		return JoinRequest{Identity: identity, DisplayName: name}, nil
	case "restart":
		identity, err := parseIdentity(raw)
		if err != nil {
			return nil, err
		}

		return RestartRequest{Identity: identity}, nil
	case "ping":
		return PingRequest{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, w.Type)
	}
}

// parseIdentity accepts a non-blank JSON string or a JSON number.
func parseIdentity(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: missing identity", ErrMalformedMessage)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", fmt.Errorf("%w: blank identity", ErrMalformedMessage)
		}

		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: identity must be a string or number", ErrMalformedMessage)
	}

	return n.String(), nil
}

// Messages sent to clients

type HostMessage struct {
	Type string `json:"type"` // "host"
}

type PlayerEntry struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
	Status      string `json:"status"` // "waiting" or "playing"
}

type PlayersMessage struct {
	Type    string        `json:"type"`  // "players"
	Round   string        `json:"round"` // "idle" or "running"
	Players []PlayerEntry `json:"players"`
}

// WordMessage carries one participant's own secret; it is never broadcast.
type WordMessage struct {
	Type   string `json:"type"` // "word"
	Number int    `json:"number"`
	Value  string `json:"value"`
	Role   string `json:"role"` // "outlier" or "regular"
}

type PreviousSpecialMessage struct {
	Type        string `json:"type"` // "previousSpecial"
	DisplayName string `json:"displayName"`
}

type CannotStartMessage struct {
	Type   string `json:"type"` // "cannotStart"
	Reason string `json:"reason"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type PongMessage struct {
	Type string `json:"type"` // "pong"
}

func newPlayersMessage(views []PlayerView, status RoundStatus) PlayersMessage {
	entries := make([]PlayerEntry, 0, len(views))
	for _, v := range views {
		state := "waiting"
		if v.Role != RoleUnassigned {
			state = "playing"
		}

		entries = append(entries, PlayerEntry{
			Identity:    v.Identity,
			DisplayName: v.DisplayName,
			IsHost:      v.IsHost,
			Status:      state,
		})
	}

	return PlayersMessage{
		Type:    "players",
		Round:   status.String(),
		Players: entries,
	}
}

func newWordMessage(p *Participant) (WordMessage, bool) {
	if p.Secret == nil {
		return WordMessage{}, false
	}

	return WordMessage{
		Type:   "word",
		Number: p.Secret.ID,
		Value:  p.Secret.Text,
		Role:   p.Role.String(),
	}, true
}

func errorMessage(text string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: text}
}
