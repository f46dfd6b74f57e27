package hub

import (
	"context"
	"log/slog"
	"time"

	"github.com/blobs-io/blobs.live/internal/registry"
	"github.com/blobs-io/blobs.live/internal/room"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

// runPresenceLoop is the coarse global scheduler: it prunes expired captcha
// challenges and stale lobby connections, then pushes the presence snapshot
// to every lobby connection and onto the presence channel.
func (h *Hub) runPresenceLoop() {
	ticker := time.NewTicker(presenceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case now := <-ticker.C:
			h.sweepPresence(now)
		}
	}
}

func (h *Hub) sweepPresence(now time.Time) {
	h.deps.Captchas.Prune(now)

	for _, conn := range h.deps.Registry.PruneInactive(now, lobbyGracePeriod) {
		if err := conn.Close(); err != nil {
			slog.Debug("failed to close pruned connection", "conn.id", conn.ID, "error", err)
		}
	}

	online := h.presenceSnapshot()

	payload := proto.PresencePayload{Online: online}
	if h.deps.Feed != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceInterval)
		promotions, err := h.deps.Feed.RecentPromotions(ctx, 10)
		cancel()
		if err != nil {
			slog.Warn("failed to load recent promotions", "error", err)
		}
		for _, p := range promotions {
			payload.Promotions = append(payload.Promotions, proto.PromotionEntry{
				User:       p.User,
				NewTier:    p.NewTier,
				Drop:       p.Drop,
				PromotedAt: p.PromotedAt,
			})
		}
	}

	data, err := proto.EncodeEvent(proto.EventPresence, payload)
	if err != nil {
		slog.Error("failed to encode presence payload", "error", err)
		return
	}
	for _, conn := range h.deps.Registry.Snapshot() {
		if conn.Profile() == nil || conn.Inactive() {
			continue
		}
		if err := conn.Send(data); err != nil {
			slog.Debug("failed to push presence", "conn.id", conn.ID, "error", err)
		}
	}

	if h.deps.Presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceInterval)
		if err := h.deps.Presence.PublishSnapshot(ctx, h.deps.InstanceID, online); err != nil {
			slog.Warn("failed to publish presence snapshot", "error", err)
		}
		cancel()
	}
}

// presenceSnapshot lists everyone online on this instance: identified lobby
// connections plus all FFA players.
func (h *Hub) presenceSnapshot() []proto.PresenceEntry {
	var online []proto.PresenceEntry

	for _, conn := range h.deps.Registry.Snapshot() {
		profile := conn.Profile()
		if profile == nil || conn.Inactive() {
			continue
		}
		online = append(online, proto.PresenceEntry{
			Location:  "Lobby",
			Username:  profile.Username,
			BR:        profile.BR,
			Role:      profile.Role,
			LastDaily: profile.LastDaily,
		})
	}

	for _, r := range h.Rooms() {
		if r.Mode != room.ModeFFA {
			continue
		}
		for _, p := range r.Players() {
			online = append(online, proto.PresenceEntry{
				Location: "FFA",
				Username: p.Owner,
				BR:       p.BR(),
			})
		}
	}
	return online
}

// runFFALoop is the very-fast global scheduler dedicated to FFA movement
// smoothness. Whenever any FFA room has players, the full FFA player set is
// re-broadcast to every connection, independent of the per-room cadence.
func (h *Hub) runFFALoop() {
	ticker := time.NewTicker(ffaBroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.broadcastFFAPlayers()
		}
	}
}

func (h *Hub) broadcastFFAPlayers() {
	var states []proto.PlayerState
	for _, r := range h.Rooms() {
		if r.Mode != room.ModeFFA {
			continue
		}
		states = append(states, r.PlayerStates()...)
	}
	if len(states) == 0 {
		return
	}

	data, err := proto.EncodeEvent(proto.EventFFAPlayerUpdate, proto.FFAPlayerUpdatePayload{Players: states})
	if err != nil {
		slog.Error("failed to encode ffa player update", "error", err)
		return
	}
	for _, conn := range h.deps.Registry.Snapshot() {
		if conn.Inactive() {
			continue
		}
		sendQuiet(conn, data)
	}
}

func sendQuiet(conn *registry.Connection, data []byte) {
	if err := conn.Send(data); err != nil {
		slog.Debug("dropped broadcast frame", "conn.id", conn.ID, "error", err)
	}
}
