package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/blobs-io/blobs.live/internal/events"
)

const instanceTTL = 10 * time.Second

// InstanceRepository registers this server instance with the loadbalancer
// coordination store. Registration is fire-and-forget and never sits in the
// hot path.
type InstanceRepository interface {
	Register(ctx context.Context, instanceID, addr string) error
	Heartbeat(ctx context.Context, instanceID string) error
}

type redisInstanceRepository struct {
	rdb *redis.Client
}

// NewInstanceRepository creates a new Redis-based InstanceRepository.
func NewInstanceRepository(rdb *redis.Client) InstanceRepository {
	return &redisInstanceRepository{rdb: rdb}
}

// Register announces the instance and stores its coordinates under a TTL key.
// The loadbalancer treats a missing key as a dead instance.
func (r *redisInstanceRepository) Register(ctx context.Context, instanceID, addr string) error {
	ctx, span := tracer.Start(ctx, "InstanceRepository.Register")
	defer span.End()

	instanceKey := fmt.Sprintf("instance:%s", instanceID)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, instanceKey, "addr", addr)
	pipe.HSet(ctx, instanceKey, "started_at", time.Now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, instanceKey, instanceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	payload, err := json.Marshal(events.InstanceUpPayload{Instance: instanceID, Addr: addr})
	if err != nil {
		return fmt.Errorf("failed to marshal instance_up payload: %w", err)
	}
	event, err := json.Marshal(events.Event{Type: "instance_up", Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.rdb.Publish(ctx, events.EventsChannel, event).Err()
}

// Heartbeat refreshes the registration TTL.
func (r *redisInstanceRepository) Heartbeat(ctx context.Context, instanceID string) error {
	ctx, span := tracer.Start(ctx, "InstanceRepository.Heartbeat")
	defer span.End()

	instanceKey := fmt.Sprintf("instance:%s", instanceID)
	return r.rdb.Expire(ctx, instanceKey, instanceTTL).Err()
}
