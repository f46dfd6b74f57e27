package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apirepository "github.com/blobs-io/blobs.live/internal/api/repository"
	"github.com/blobs-io/blobs.live/internal/captcha"
	"github.com/blobs-io/blobs.live/internal/gamemap"
	"github.com/blobs-io/blobs.live/internal/player"
	"github.com/blobs-io/blobs.live/internal/rank"
	"github.com/blobs-io/blobs.live/internal/registry"
	"github.com/blobs-io/blobs.live/internal/repository"
	"github.com/blobs-io/blobs.live/internal/room"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

var tracer = otel.Tracer("hub")

const (
	// tickInterval is the per-room combat cadence.
	tickInterval = 20 * time.Millisecond
	// ffaBroadcastInterval is the global high-frequency FFA position channel.
	ffaBroadcastInterval = 10 * time.Millisecond
	// presenceInterval drives the presence snapshot and ephemeral pruning.
	presenceInterval = time.Second
	// heartbeatLimit is how long a player may go silent before eviction.
	heartbeatLimit = 30 * time.Second
	// lobbyGracePeriod lets an identified lobby connection survive a refresh.
	lobbyGracePeriod = 3 * time.Second

	winRatingBonus = 250

	ffaRoomCount  = 3
	elimRoomCount = 3
	ffaItemCount  = 5
)

// Deps is the explicit context structure handed to the hub; every collaborator
// is referenced, never owned, so tests can construct isolated instances.
type Deps struct {
	InstanceID string
	Registry   *registry.Registry
	Captchas   *captcha.Store
	Maps       *gamemap.Store
	Accounts   apirepository.AccountRepository
	Sessions   apirepository.SessionRepository
	Feed       apirepository.FeedRepository
	Presence   repository.PresenceRepository
}

// Hub owns the active room set and drives every scheduler: the 20ms per-room
// combat tick, the 1s presence sweep and the 10ms global FFA broadcast.
type Hub struct {
	deps Deps

	mu    sync.RWMutex
	rooms map[string]*room.Room

	handlers map[proto.EventType]handlerFunc

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a hub. Call SeedRooms and Run to bring it live.
func New(deps Deps) *Hub {
	h := &Hub{
		deps:  deps,
		rooms: make(map[string]*room.Room),
		done:  make(chan struct{}),
	}
	h.registerHandlers()
	return h
}

// SeedRooms creates the boot room set: three FFA rooms with item pickups and
// three elimination rooms, all on the default map.
func (h *Hub) SeedRooms() error {
	defaultMap, ok := h.deps.Maps.Lookup("default")
	if !ok {
		return fmt.Errorf("default map is not registered")
	}

	for i := 1; i <= ffaRoomCount; i++ {
		r := room.NewFFA(fmt.Sprintf("ffa%d", i), defaultMap)
		r.AddItems(ffaItemCount)
		h.AddRoom(r)
	}
	for i := 1; i <= elimRoomCount; i++ {
		h.AddRoom(room.NewElimination(fmt.Sprintf("elim%d", i), defaultMap, room.EliminationConfig{}))
	}
	return nil
}

// AddRoom registers the room and starts its timers: the combat tick for every
// mode, plus the countdown poll for elimination rooms.
func (h *Hub) AddRoom(r *room.Room) {
	h.mu.Lock()
	h.rooms[r.ID] = r
	h.mu.Unlock()

	go h.runCombatLoop(r)
	if r.Mode == room.ModeElimination {
		go r.RunCountdownPoll()
	}
	slog.Info("room added", "room.id", r.ID, "room.mode", string(r.Mode))
}

// Room returns the room registered under id.
func (h *Hub) Room(id string) (*room.Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[id]
	return r, ok
}

// Rooms returns a snapshot of the active room set. Cross-room schedulers
// iterate this snapshot so they never hold one room's lock while touching
// another room.
func (h *Hub) Rooms() []*room.Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]*room.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (h *Hub) removeRoom(id string) {
	h.mu.Lock()
	r, ok := h.rooms[id]
	if ok {
		delete(h.rooms, id)
	}
	h.mu.Unlock()
	if ok {
		r.Stop()
		slog.Info("room removed", "room.id", id)
	}
}

// Run blocks, driving the global schedulers until Stop is called.
func (h *Hub) Run() {
	go h.runFFALoop()
	h.runPresenceLoop()
}

// Stop tears the hub down, cancelling every room timer exactly once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		for _, r := range h.Rooms() {
			r.Stop()
		}
	})
}

// HandleDisconnect reacts to a transport read failure. Players leave their
// room immediately; identified lobby connections are only marked stale so a
// quick refresh survives, anonymous ones are dropped on the spot.
func (h *Hub) HandleDisconnect(connID string) {
	conn, err := h.deps.Registry.Lookup(connID)
	if err != nil {
		return
	}

	if r, p := h.findPlayer(connID); p != nil {
		if r.Leave(p.ID) {
			slog.Info("player disconnected", "room.id", r.ID, "player.id", p.ID)
			h.handlePlayerRemoved(r)
		}
	}

	if conn.Profile() != nil {
		conn.MarkInactive(time.Now())
	} else {
		h.deps.Registry.Unregister(connID)
	}
}

// handlePlayerRemoved runs the membership-change checks of an elimination
// room: the countdown regression and the single-survivor payout. It is only
// invoked on membership-change events, never polled, so handleEnd cannot fire
// twice for the same survivor.
func (h *Hub) handlePlayerRemoved(r *room.Room) {
	if r.Mode != room.ModeElimination {
		return
	}
	r.RevertCountdown()
	h.finishElimination(r)
}

// finishElimination pays out and tears down a one-survivor INGAME room.
func (h *Hub) finishElimination(r *room.Room) {
	winner, ok := r.SoleSurvivor()
	if !ok {
		return
	}

	r.EndOnce(func() {
		ctx, span := tracer.Start(context.Background(), "hub.finishElimination", trace.WithAttributes(
			attribute.String("room.id", r.ID),
			attribute.String("winner.id", winner.ID),
			attribute.Bool("winner.guest", winner.Guest),
		))
		defer span.End()

		slog.InfoContext(ctx, "elimination room ended", "room.id", r.ID, "winner", winner.Owner)

		if !winner.Guest {
			// Guests have no durable identity, so nothing is persisted for them.
			go h.creditWinner(winner.Owner, winner.BR())
		}

		if data, err := proto.EncodeEvent(proto.EventPlayerKick, proto.KickPayload{
			Message: fmt.Sprintf("Room has ended.\nWinner: %s", winner.Owner),
		}); err == nil && winner.Conn != nil {
			if err := winner.Conn.Send(data); err != nil {
				slog.WarnContext(ctx, "failed to notify winner", "player.id", winner.ID, "error", err)
			}
		}
		if winner.Conn != nil {
			if err := winner.Conn.Close(); err != nil {
				slog.DebugContext(ctx, "failed to close winner connection", "player.id", winner.ID, "error", err)
			}
			h.deps.Registry.Unregister(winner.Conn.ID)
		}

		h.removeRoom(r.ID)

		if h.deps.Presence != nil {
			if err := h.deps.Presence.PublishRoomEnded(ctx, r.ID, winner.Owner, winner.Guest); err != nil {
				slog.WarnContext(ctx, "failed to publish room_ended", "room.id", r.ID, "error", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "Failed to publish room_ended")
			}
		}
	})
}

// creditWinner persists the win bonus and records a promotion when the bonus
// pushes the account over a tier boundary. Failures are logged, never
// retried, and never reach a tick loop.
func (h *Hub) creditWinner(username string, currentBR int) {
	ctx, span := tracer.Start(context.Background(), "hub.creditWinner", trace.WithAttributes(
		attribute.String("account.username", username),
		attribute.Int("rating.bonus", winRatingBonus),
	))
	defer span.End()

	// TODO: don't hardcode the payout; a placement-based table is planned.
	if err := h.deps.Accounts.IncrementRating(ctx, username, winRatingBonus); err != nil {
		slog.ErrorContext(ctx, "failed to credit win bonus", "account.username", username, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to credit win bonus")
		return
	}

	oldTier := rank.ForBR(currentBR)
	newTier := rank.ForBR(currentBR + winRatingBonus)
	if oldTier != newTier && h.deps.Feed != nil {
		if err := h.deps.Feed.RecordPromotion(ctx, username, string(newTier), false); err != nil {
			slog.ErrorContext(ctx, "failed to record promotion", "account.username", username, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to record promotion")
		}
	}
}

// findPlayer locates a player by connection ID across a snapshot of rooms.
func (h *Hub) findPlayer(connID string) (*room.Room, *player.Player) {
	for _, r := range h.Rooms() {
		for _, p := range r.Players() {
			if p.ID == connID {
				return r, p
			}
		}
	}
	return nil, nil
}
