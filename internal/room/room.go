package room

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blobs-io/blobs.live/internal/gamemap"
	"github.com/blobs-io/blobs.live/internal/player"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

// Mode is the game mode of a room.
type Mode string

const (
	ModeFFA         Mode = "FFA"
	ModeElimination Mode = "ELIMINATION"
)

// ErrRoomFull is returned when a join would exceed the room capacity.
var ErrRoomFull = errors.New("room is full")

// Item is a pickup object placed on the map (FFA only).
type Item struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Room owns a map reference, an insertion-ordered collection of players and a
// broadcast primitive. Elimination rooms additionally carry the lifecycle
// fields declared in elimination.go; for FFA rooms those stay at their zero
// values and the room is always open.
type Room struct {
	ID        string
	Mode      Mode
	Map       *gamemap.Map
	CreatedAt time.Time

	mu      sync.Mutex
	players []*player.Player
	items   []Item

	state             State
	countdownStarted  time.Time
	capacity          int
	minPlayersStartup int
	waitingTime       time.Duration
	pollInterval      time.Duration

	done     chan struct{}
	stopOnce sync.Once
	endOnce  sync.Once
}

// NewFFA creates an always-open free-for-all room.
func NewFFA(id string, m *gamemap.Map) *Room {
	return &Room{
		ID:        id,
		Mode:      ModeFFA,
		Map:       m,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Join appends the player to the room in join order. It fails with ErrRoomFull
// when an elimination room is at capacity. Reaching the startup threshold of a
// waiting elimination room starts the countdown as a side effect.
func (r *Room) Join(p *player.Player) error {
	r.mu.Lock()
	if r.Mode == ModeElimination && len(r.players) >= r.capacity {
		r.mu.Unlock()
		return ErrRoomFull
	}
	for _, q := range r.players {
		if q.ID == p.ID {
			r.mu.Unlock()
			return nil
		}
	}
	r.players = append(r.players, p)
	p.Room = r.ID

	var countdownBegun bool
	var startedAt time.Time
	if r.Mode == ModeElimination && r.state == StateWaiting && len(r.players) >= r.minPlayersStartup {
		r.state = StateCountdown
		r.countdownStarted = time.Now()
		startedAt = r.countdownStarted
		countdownBegun = true
	}
	r.mu.Unlock()

	if countdownBegun {
		slog.Info("countdown started", "room.id", r.ID, "starts_at", startedAt.Add(r.waitingTime))
		r.broadcastStateChange(StateCountdown, &startedAt)
	}
	return nil
}

// Leave removes the player. A missing player is a no-op, not an error,
// because disconnect races are expected. It reports whether a player was
// actually removed.
func (r *Room) Leave(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

// Players returns a snapshot of the player collection in join order.
func (r *Room) Players() []*player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]*player.Player, len(r.players))
	copy(snapshot, r.players)
	return snapshot
}

// Len returns the current player count.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Broadcast invokes fn for every currently joined player whose connection is
// still live. It iterates a snapshot taken in join order, so fn may remove
// players without corrupting the iteration.
func (r *Room) Broadcast(fn func(p *player.Player)) {
	for _, p := range r.Players() {
		if p.Conn == nil || p.Conn.Inactive() {
			continue
		}
		fn(p)
	}
}

// Send fans raw bytes out to every live connection in the room.
func (r *Room) Send(data []byte) {
	r.Broadcast(func(p *player.Player) {
		if err := p.Conn.Send(data); err != nil {
			slog.Warn("failed to send to player", "room.id", r.ID, "player.id", p.ID, "error", err)
		}
	})
}

// AddItems seeds n randomly positioned pickup objects within the map bounds.
func (r *Room) AddItems(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < n; i++ {
		x, y := r.Map.RandomPosition()
		r.items = append(r.items, Item{ID: uuid.New().String(), X: x, Y: y})
	}
}

// Items returns a snapshot of the pickup objects.
func (r *Room) Items() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]Item, len(r.items))
	copy(snapshot, r.items)
	return snapshot
}

// PlayerStates builds the broadcast representation of all players in join order.
func (r *Room) PlayerStates() []proto.PlayerState {
	players := r.Players()
	states := make([]proto.PlayerState, 0, len(players))
	for _, p := range players {
		states = append(states, p.State())
	}
	return states
}

// Done is closed when the room is torn down.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Stop tears the room down. Every timer owned by the room observes Done and
// exits; calling Stop more than once is safe.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

func (r *Room) broadcastStateChange(state State, countdownStarted *time.Time) {
	payload := proto.StateChangePayload{State: int(state)}
	if countdownStarted != nil {
		ms := countdownStarted.UnixMilli()
		payload.CountdownStarted = &ms
	}
	data, err := proto.EncodeEvent(proto.EventStateChange, payload)
	if err != nil {
		slog.Error("failed to encode state change", "room.id", r.ID, "error", err)
		return
	}
	r.Send(data)
}
