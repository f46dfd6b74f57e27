package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/blobs-io/blobs.live/internal/player"
	"github.com/blobs-io/blobs.live/internal/registry"
	"github.com/blobs-io/blobs.live/internal/room"
	"github.com/blobs-io/blobs.live/internal/validator"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

func (h *Hub) handleHeartbeat(ctx context.Context, conn *registry.Connection, _ json.RawMessage) {
	if _, p := h.findPlayer(conn.ID); p != nil {
		p.Heartbeat(time.Now())
	}
}

func (h *Hub) handleRoomJoin(ctx context.Context, conn *registry.Connection, d json.RawMessage) {
	var payload proto.RoomJoinPayload
	if err := json.Unmarshal(d, &payload); err != nil {
		slog.DebugContext(ctx, "dropping malformed join payload", "conn.id", conn.ID, "error", err)
		return
	}
	if err := validator.GetValidator().Struct(&payload); err != nil {
		slog.DebugContext(ctx, "dropping invalid join payload", "conn.id", conn.ID, "error", err)
		return
	}

	if _, existing := h.findPlayer(conn.ID); existing != nil {
		// A player belongs to exactly one room at a time.
		slog.DebugContext(ctx, "join ignored, connection already in a room", "conn.id", conn.ID)
		return
	}

	target, ok := h.Room(payload.Room)
	if !ok {
		slog.DebugContext(ctx, "join ignored, unknown room", "conn.id", conn.ID, "room.id", payload.Room)
		return
	}

	owner, guest, br := h.resolveIdentity(ctx, payload.Session, conn)

	p := player.New(conn, owner, guest, br, target.Map)
	if err := target.Join(p); err != nil {
		if errors.Is(err, room.ErrRoomFull) {
			// Capacity failures are reported to the joining connection only;
			// the transport stays open so the client can pick another room.
			if data, encErr := proto.EncodeClose("Room is full"); encErr == nil {
				sendQuiet(conn, data)
			}
			return
		}
		slog.WarnContext(ctx, "join failed", "conn.id", conn.ID, "room.id", target.ID, "error", err)
		return
	}
	slog.InfoContext(ctx, "player joined", "room.id", target.ID, "player.id", p.ID, "player.owner", owner, "player.guest", guest)
}

func (h *Hub) handleRoomLeave(ctx context.Context, conn *registry.Connection, _ json.RawMessage) {
	r, p := h.findPlayer(conn.ID)
	if p == nil {
		return
	}
	if r.Leave(p.ID) {
		slog.InfoContext(ctx, "player left", "room.id", r.ID, "player.id", p.ID)
		h.handlePlayerRemoved(r)
	}
}

func (h *Hub) handleCoordinateChange(ctx context.Context, conn *registry.Connection, d json.RawMessage) {
	var payload proto.MovePayload
	if err := json.Unmarshal(d, &payload); err != nil {
		slog.DebugContext(ctx, "dropping malformed move payload", "conn.id", conn.ID, "error", err)
		return
	}
	r, p := h.findPlayer(conn.ID)
	if p == nil {
		return
	}
	p.MoveTo(payload.X, payload.Y, r.Map)
}

func (h *Hub) handleDirectionChange(ctx context.Context, conn *registry.Connection, d json.RawMessage) {
	var payload proto.DirectionChangePayload
	if err := json.Unmarshal(d, &payload); err != nil {
		slog.DebugContext(ctx, "dropping malformed direction payload", "conn.id", conn.ID, "error", err)
		return
	}
	if err := validator.GetValidator().Struct(&payload); err != nil {
		slog.DebugContext(ctx, "dropping invalid direction payload", "conn.id", conn.ID, "error", err)
		return
	}
	if _, p := h.findPlayer(conn.ID); p != nil {
		p.SetDirection(player.Direction(payload.Direction))
	}
}

// handleLobbyCreate attaches an authenticated identity to the connection. The
// session is a one-shot handoff from the HTTP login and is consumed here.
func (h *Hub) handleLobbyCreate(ctx context.Context, conn *registry.Connection, d json.RawMessage) {
	var payload proto.LobbyCreatePayload
	if err := json.Unmarshal(d, &payload); err != nil {
		slog.DebugContext(ctx, "dropping malformed lobby payload", "conn.id", conn.ID, "error", err)
		return
	}
	if err := validator.GetValidator().Struct(&payload); err != nil {
		slog.DebugContext(ctx, "dropping invalid lobby payload", "conn.id", conn.ID, "error", err)
		return
	}

	session, err := h.deps.Sessions.Lookup(ctx, payload.Session)
	if err != nil {
		slog.WarnContext(ctx, "session lookup failed", "conn.id", conn.ID, "error", err)
		return
	}
	if session == nil {
		slog.DebugContext(ctx, "lobby create with unknown session", "conn.id", conn.ID)
		return
	}

	profile := &registry.Profile{Username: session.Username}
	if account, err := h.deps.Accounts.GetByUsername(ctx, session.Username); err == nil && account != nil {
		profile.BR = account.BR
		profile.Role = account.Role
		if account.LastDailyUsage.Valid {
			profile.LastDaily = account.LastDailyUsage.String
		}
	}
	conn.SetProfile(profile)

	if err := h.deps.Sessions.Delete(ctx, payload.Session); err != nil {
		slog.WarnContext(ctx, "failed to delete consumed session", "conn.id", conn.ID, "error", err)
	}
	slog.InfoContext(ctx, "lobby connection identified", "conn.id", conn.ID, "account.username", session.Username)
}

// resolveIdentity maps an optional session to a persisted account, falling
// back to a guest identity derived from the connection ID.
func (h *Hub) resolveIdentity(ctx context.Context, sessionID string, conn *registry.Connection) (owner string, guest bool, br int) {
	if sessionID != "" && h.deps.Sessions != nil {
		if session, err := h.deps.Sessions.Lookup(ctx, sessionID); err == nil && session != nil {
			owner = session.Username
			if account, err := h.deps.Accounts.GetByUsername(ctx, session.Username); err == nil && account != nil {
				br = account.BR
			}
			return owner, false, br
		}
	}
	if profile := conn.Profile(); profile != nil {
		return profile.Username, false, profile.BR
	}
	return "Guest-" + conn.ID[:6], true, 0
}
