package proto

import (
	"encoding/json"
	"fmt"
)

// Opcode is the top-level wire message category.
type Opcode int

const (
	// OpcodeEvent carries a typed event in both directions.
	OpcodeEvent Opcode = 1
	// OpcodeClose is a server-initiated disconnect with a human-readable reason.
	OpcodeClose Opcode = 2
)

// EventType sub-classifies an EVENT payload.
type EventType string

const (
	EventStateChange      EventType = "STATECHANGE"
	EventCoordinateChange EventType = "COORDINATECHANGE"
	EventPlayerKick       EventType = "PLAYER_KICK"
	EventFFAPlayerUpdate  EventType = "FFA_PLAYER_UPDATE"
	EventPresence         EventType = "PRESENCE"

	// Client-to-server events.
	EventHeartbeat       EventType = "HEARTBEAT"
	EventRoomJoin        EventType = "ROOM_JOIN"
	EventRoomLeave       EventType = "ROOM_LEAVE"
	EventDirectionChange EventType = "DIRECTIONCHANGE"
	EventLobbyCreate     EventType = "LOBBY_CREATE"
)

// Envelope is the symmetric wire envelope: { op, t?, d }.
type Envelope struct {
	Op Opcode          `json:"op" validate:"required"`
	T  EventType       `json:"t,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

// Decode parses a raw wire message into an envelope.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return &env, nil
}

// EncodeEvent wraps a typed event payload into the wire envelope.
func EncodeEvent(t EventType, d any) ([]byte, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return json.Marshal(&Envelope{Op: OpcodeEvent, T: t, D: payload})
}

// EncodeClose builds a CLOSE message carrying the disconnect reason.
func EncodeClose(message string) ([]byte, error) {
	payload, err := json.Marshal(&ClosePayload{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal close payload: %w", err)
	}
	return json.Marshal(&Envelope{Op: OpcodeClose, D: payload})
}

// PlayerState is the broadcast representation of a player.
type PlayerState struct {
	ID        string  `json:"id"`
	Owner     string  `json:"owner"`
	Guest     bool    `json:"guest"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Health    float64 `json:"health"`
	BR        int     `json:"br"`
	Direction int     `json:"direction"`
	Room      string  `json:"room"`
}

// StateChangePayload announces a room lifecycle transition. CountdownStarted
// is set when entering COUNTDOWN and null when reverting to WAITING.
type StateChangePayload struct {
	State            int    `json:"state"`
	CountdownStarted *int64 `json:"countdownStarted"`
}

// CoordinateChangePayload carries the current player list with positions.
type CoordinateChangePayload struct {
	Players []PlayerState `json:"players"`
}

// KickPayload carries the reason a player is being kicked.
type KickPayload struct {
	Message string `json:"message"`
}

// ClosePayload carries the reason for a forced disconnect.
type ClosePayload struct {
	Message string `json:"message"`
}

// RoomJoinPayload is sent by a client to enter a room. Session is empty for
// guest players.
type RoomJoinPayload struct {
	Room    string `json:"room" validate:"required"`
	Session string `json:"session,omitempty"`
}

// MovePayload is the client-to-server coordinate update.
type MovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DirectionChangePayload is the client-to-server movement intent.
type DirectionChangePayload struct {
	Direction int `json:"direction" validate:"min=0,max=4"`
}

// LobbyCreatePayload attaches an authenticated identity to a lobby connection.
type LobbyCreatePayload struct {
	Session string `json:"session" validate:"required"`
}

// PresenceEntry is one online user in the presence snapshot.
type PresenceEntry struct {
	Location  string `json:"location"`
	Username  string `json:"username"`
	BR        int    `json:"br"`
	Role      int    `json:"role"`
	LastDaily string `json:"lastDaily,omitempty"`
}

// PromotionEntry is one recent tier promotion in the presence snapshot.
type PromotionEntry struct {
	User       string `json:"user"`
	NewTier    string `json:"newTier"`
	Drop       bool   `json:"drop"`
	PromotedAt string `json:"promotedAt"`
}

// PresencePayload is the 1s presence snapshot pushed to lobby connections.
type PresencePayload struct {
	Online     []PresenceEntry  `json:"online"`
	Promotions []PromotionEntry `json:"promotions"`
}

// FFAPlayerUpdatePayload is the high-frequency global FFA position update.
type FFAPlayerUpdatePayload struct {
	Players []PlayerState `json:"players"`
}
