package events

import (
	"encoding/json"

	"github.com/blobs-io/blobs.live/pkg/proto"
)

// Pub/Sub channel constants
const (
	PresenceChannel = "channel:presence"
	EventsChannel   = "channel:events"
)

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// PresenceSnapshotPayload is the payload for the "presence_snapshot" event,
// published every second so sibling instances and dashboards can observe who
// is online on this server.
type PresenceSnapshotPayload struct {
	Instance string                `json:"instance"`
	Online   []proto.PresenceEntry `json:"online"`
}

// RoomEndedPayload is the payload for the "room_ended" event, published when
// an elimination room pays out and tears down.
type RoomEndedPayload struct {
	RoomID string `json:"room_id"`
	Winner string `json:"winner"`
	Guest  bool   `json:"guest"`
}

// InstanceUpPayload is the payload for the "instance_up" event, published on
// boot so the loadbalancer can route new sessions here.
type InstanceUpPayload struct {
	Instance string `json:"instance"`
	Addr     string `json:"addr"`
}
