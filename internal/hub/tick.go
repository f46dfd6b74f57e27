package hub

import (
	"log/slog"
	"time"

	"github.com/blobs-io/blobs.live/internal/player"
	"github.com/blobs-io/blobs.live/internal/room"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

// runCombatLoop drives one room's periodic work at the combat cadence until
// the room or the hub is torn down.
func (h *Hub) runCombatLoop(r *room.Room) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-r.Done():
			return
		case now := <-ticker.C:
			h.tickRoom(r, now)
		}
	}
}

// tickRoom runs one tick of a room: heartbeat eviction first, then health
// regeneration, then the coordinate broadcast. The ordering guarantees a
// broadcast never includes a player evicted in the same tick.
func (h *Hub) tickRoom(r *room.Room, now time.Time) {
	for _, p := range r.Players() {
		if now.Sub(p.LastHeartbeat()) > heartbeatLimit {
			h.evictPlayer(r, p, "Missing heartbeats")
		}
	}

	r.Broadcast(func(p *player.Player) {
		p.Regenerate()
	})

	// Rooms with a single player skip the coordinate broadcast; a lone player
	// does not need its own echoed position.
	states := r.PlayerStates()
	if len(states) < 2 {
		return
	}
	data, err := proto.EncodeEvent(proto.EventCoordinateChange, proto.CoordinateChangePayload{Players: states})
	if err != nil {
		slog.Error("failed to encode coordinate change", "room.id", r.ID, "error", err)
		return
	}
	r.Send(data)
}

// evictPlayer treats the connection as dead: it sends the close notification,
// removes the player from the room and runs the membership-change checks.
func (h *Hub) evictPlayer(r *room.Room, p *player.Player, reason string) {
	if p.Conn != nil {
		if data, err := proto.EncodeClose(reason); err == nil {
			if err := p.Conn.Send(data); err != nil {
				slog.Debug("failed to send close notification", "player.id", p.ID, "error", err)
			}
		}
		if err := p.Conn.Close(); err != nil {
			slog.Debug("failed to close evicted connection", "player.id", p.ID, "error", err)
		}
		h.deps.Registry.Unregister(p.Conn.ID)
	}

	if r.Leave(p.ID) {
		slog.Info("player evicted", "room.id", r.ID, "player.id", p.ID, "reason", reason)
		h.handlePlayerRemoved(r)
	}
}
