package player

import (
	"sync"
	"time"

	"github.com/blobs-io/blobs.live/internal/gamemap"
	"github.com/blobs-io/blobs.live/internal/registry"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

const (
	// MaxHealth is the health cap; regeneration never exceeds it.
	MaxHealth = 100.0
	// RegenPerTick is the health regained on every combat tick.
	RegenPerTick = 0.1
)

// Direction is a client movement intent.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// Player is the in-room representation of a participant. Its ID equals the ID
// of the connection it entered through. A player belongs to exactly one room
// and does not outlive it.
type Player struct {
	ID    string
	Owner string
	Guest bool
	Room  string
	Conn  *registry.Connection

	mu            sync.Mutex
	x, y          float64
	health        float64
	br            int
	direction     Direction
	lastHeartbeat time.Time
}

// New creates a player bound to conn, spawned at a random position on m.
func New(conn *registry.Connection, owner string, guest bool, br int, m *gamemap.Map) *Player {
	x, y := m.RandomPosition()
	return &Player{
		ID:            conn.ID,
		Owner:         owner,
		Guest:         guest,
		Conn:          conn,
		x:             x,
		y:             y,
		health:        MaxHealth,
		br:            br,
		lastHeartbeat: time.Now(),
	}
}

// Heartbeat records a liveness signal.
func (p *Player) Heartbeat(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastHeartbeat = now
}

// LastHeartbeat returns the time of the most recent liveness signal.
func (p *Player) LastHeartbeat() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastHeartbeat
}

// MoveTo updates the position, clamped to the map bounds.
func (p *Player) MoveTo(x, y float64, m *gamemap.Map) {
	x, y = m.Clamp(x, y)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.x = x
	p.y = y
}

// Position returns the current coordinates.
func (p *Player) Position() (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y
}

// SetDirection updates the movement intent.
func (p *Player) SetDirection(d Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.direction = d
}

// Regenerate restores a fixed amount of health, capped at MaxHealth.
func (p *Player) Regenerate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health += RegenPerTick
	if p.health > MaxHealth {
		p.health = MaxHealth
	}
}

// Health returns the current health.
func (p *Player) Health() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.health
}

// SetHealth overrides the current health, bounded to [0, MaxHealth].
func (p *Player) SetHealth(h float64) {
	if h < 0 {
		h = 0
	} else if h > MaxHealth {
		h = MaxHealth
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health = h
}

// BR returns the persisted rating the player entered the room with.
func (p *Player) BR() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.br
}

// State builds the broadcast representation of the player.
func (p *Player) State() proto.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return proto.PlayerState{
		ID:        p.ID,
		Owner:     p.Owner,
		Guest:     p.Guest,
		X:         p.x,
		Y:         p.y,
		Health:    p.health,
		BR:        p.br,
		Direction: int(p.direction),
		Room:      p.Room,
	}
}
