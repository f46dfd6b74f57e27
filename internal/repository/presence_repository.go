package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"

	"github.com/blobs-io/blobs.live/internal/events"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

var tracer = otel.Tracer("repository.presence")

// PresenceRepository publishes the per-second presence snapshot so sibling
// instances and dashboards can observe who is online on this server.
type PresenceRepository interface {
	PublishSnapshot(ctx context.Context, instance string, online []proto.PresenceEntry) error
	PublishRoomEnded(ctx context.Context, roomID, winner string, guest bool) error
}

type redisPresenceRepository struct {
	rdb *redis.Client
}

// NewPresenceRepository creates a new Redis-based PresenceRepository.
func NewPresenceRepository(rdb *redis.Client) PresenceRepository {
	return &redisPresenceRepository{rdb: rdb}
}

// PublishSnapshot publishes the presence snapshot on the presence channel.
func (r *redisPresenceRepository) PublishSnapshot(ctx context.Context, instance string, online []proto.PresenceEntry) error {
	ctx, span := tracer.Start(ctx, "PresenceRepository.PublishSnapshot")
	defer span.End()

	payload, err := json.Marshal(events.PresenceSnapshotPayload{Instance: instance, Online: online})
	if err != nil {
		return fmt.Errorf("failed to marshal presence snapshot: %w", err)
	}
	event, err := json.Marshal(events.Event{Type: "presence_snapshot", Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.rdb.Publish(ctx, events.PresenceChannel, event).Err()
}

// PublishRoomEnded announces an elimination payout on the global events channel.
func (r *redisPresenceRepository) PublishRoomEnded(ctx context.Context, roomID, winner string, guest bool) error {
	ctx, span := tracer.Start(ctx, "PresenceRepository.PublishRoomEnded")
	defer span.End()

	payload, err := json.Marshal(events.RoomEndedPayload{RoomID: roomID, Winner: winner, Guest: guest})
	if err != nil {
		return fmt.Errorf("failed to marshal room_ended payload: %w", err)
	}
	event, err := json.Marshal(events.Event{Type: "room_ended", Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.rdb.Publish(ctx, events.EventsChannel, event).Err()
}
