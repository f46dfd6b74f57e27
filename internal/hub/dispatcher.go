package hub

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/blobs-io/blobs.live/internal/registry"
	"github.com/blobs-io/blobs.live/internal/validator"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

// handlerFunc mutates room/player state for one inbound event. The dispatcher
// itself stays stateless.
type handlerFunc func(ctx context.Context, conn *registry.Connection, d json.RawMessage)

func (h *Hub) registerHandlers() {
	h.handlers = map[proto.EventType]handlerFunc{
		proto.EventHeartbeat:        h.handleHeartbeat,
		proto.EventRoomJoin:         h.handleRoomJoin,
		proto.EventRoomLeave:        h.handleRoomLeave,
		proto.EventCoordinateChange: h.handleCoordinateChange,
		proto.EventDirectionChange:  h.handleDirectionChange,
		proto.EventLobbyCreate:      h.handleLobbyCreate,
	}
}

// Dispatch decodes an inbound wire message and routes it to the matching
// handler. Malformed or unknown messages are dropped silently; nothing a
// client sends may crash the connection loop.
func (h *Hub) Dispatch(connID string, raw []byte) {
	ctx, span := tracer.Start(context.Background(), "hub.Dispatch", trace.WithAttributes(
		attribute.String("conn.id", connID),
	))
	defer span.End()

	conn, err := h.deps.Registry.Lookup(connID)
	if err != nil {
		slog.DebugContext(ctx, "message from unknown connection", "conn.id", connID)
		return
	}

	env, err := proto.Decode(raw)
	if err != nil {
		slog.DebugContext(ctx, "dropping malformed message", "conn.id", connID, "error", err)
		return
	}
	if err := validator.GetValidator().Struct(env); err != nil {
		slog.DebugContext(ctx, "dropping invalid envelope", "conn.id", connID, "error", err)
		return
	}
	if env.Op != proto.OpcodeEvent {
		slog.DebugContext(ctx, "dropping non-event opcode", "conn.id", connID, "op", int(env.Op))
		return
	}

	handler, ok := h.handlers[env.T]
	if !ok {
		slog.DebugContext(ctx, "dropping unknown event type", "conn.id", connID, "event.type", string(env.T))
		return
	}
	span.SetAttributes(attribute.String("event.type", string(env.T)))
	handler(ctx, conn, env.D)
}
