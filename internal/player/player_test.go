package player

import (
	"testing"
	"time"

	"github.com/blobs-io/blobs.live/internal/gamemap"
	"github.com/blobs-io/blobs.live/internal/registry"
)

type fakeTransport struct{}

func (fakeTransport) WriteMessage(messageType int, data []byte) error { return nil }
func (fakeTransport) Close() error                                    { return nil }

func newTestPlayer(id string, m *gamemap.Map) *Player {
	conn := &registry.Connection{ID: id, Transport: fakeTransport{}}
	return New(conn, "user-"+id, false, 1200, m)
}

func TestNew_SpawnsInsideMap(t *testing.T) {
	m := &gamemap.Map{Width: 100, Height: 100}
	p := newTestPlayer("p1", m)

	if p.ID != "p1" {
		t.Errorf("ID = %s, want the connection ID p1", p.ID)
	}
	x, y := p.Position()
	if x < 0 || x > m.Width || y < 0 || y > m.Height {
		t.Errorf("spawned at (%v, %v), outside %vx%v", x, y, m.Width, m.Height)
	}
	if got := p.Health(); got != MaxHealth {
		t.Errorf("Health() = %v, want %v", got, MaxHealth)
	}
}

func TestPlayer_MoveToClamps(t *testing.T) {
	m := &gamemap.Map{Width: 100, Height: 100}
	p := newTestPlayer("p1", m)

	p.MoveTo(250, -10, m)
	x, y := p.Position()
	if x != 100 || y != 0 {
		t.Errorf("Position() after out-of-bounds move = (%v, %v), want (100, 0)", x, y)
	}
}

func TestPlayer_RegenerateCapsAtMaxHealth(t *testing.T) {
	m := &gamemap.Map{Width: 100, Height: 100}
	p := newTestPlayer("p1", m)

	p.SetHealth(MaxHealth - RegenPerTick/2)
	p.Regenerate()
	if got := p.Health(); got != MaxHealth {
		t.Errorf("Health() after regen near cap = %v, want %v", got, MaxHealth)
	}

	p.SetHealth(50)
	p.Regenerate()
	if got := p.Health(); got != 50+RegenPerTick {
		t.Errorf("Health() after regen = %v, want %v", got, 50+RegenPerTick)
	}
}

func TestPlayer_SetHealthBounds(t *testing.T) {
	m := &gamemap.Map{Width: 100, Height: 100}
	p := newTestPlayer("p1", m)

	p.SetHealth(-10)
	if got := p.Health(); got != 0 {
		t.Errorf("Health() after SetHealth(-10) = %v, want 0", got)
	}
	p.SetHealth(MaxHealth * 2)
	if got := p.Health(); got != MaxHealth {
		t.Errorf("Health() after overflow = %v, want %v", got, MaxHealth)
	}
}

func TestPlayer_Heartbeat(t *testing.T) {
	m := &gamemap.Map{Width: 100, Height: 100}
	p := newTestPlayer("p1", m)

	now := time.Now().Add(time.Minute)
	p.Heartbeat(now)
	if got := p.LastHeartbeat(); !got.Equal(now) {
		t.Errorf("LastHeartbeat() = %v, want %v", got, now)
	}
}

func TestPlayer_State(t *testing.T) {
	m := &gamemap.Map{Width: 100, Height: 100}
	p := newTestPlayer("p1", m)
	p.MoveTo(30, 40, m)
	p.SetDirection(DirLeft)

	state := p.State()
	if state.ID != "p1" || state.Owner != "user-p1" || state.Guest {
		t.Errorf("State() identity = %+v, want ID p1 owner user-p1 guest false", state)
	}
	if state.X != 30 || state.Y != 40 {
		t.Errorf("State() position = (%v, %v), want (30, 40)", state.X, state.Y)
	}
	if state.Direction != int(DirLeft) {
		t.Errorf("State() direction = %d, want %d", state.Direction, int(DirLeft))
	}
	if state.BR != 1200 {
		t.Errorf("State() BR = %d, want 1200", state.BR)
	}
}
