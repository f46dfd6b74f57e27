package gamemap

import (
	"testing"
)

func TestStore_SeedsDefaultMap(t *testing.T) {
	s := NewStore()

	m, ok := s.Lookup("default")
	if !ok {
		t.Fatalf("Lookup(default) = false")
	}
	if m.Width != defaultMapSize || m.Height != defaultMapSize {
		t.Errorf("default map is %vx%v, want %dx%d", m.Width, m.Height, defaultMapSize, defaultMapSize)
	}
	if len(m.Walls) != defaultWallCount {
		t.Errorf("default map has %d walls, want %d", len(m.Walls), defaultWallCount)
	}
	for _, w := range m.Walls {
		if w.X < wallMargin || w.X > m.Width-wallMargin || w.Y < wallMargin || w.Y > m.Height-wallMargin {
			t.Errorf("wall at (%v, %v) violates the %d margin", w.X, w.Y, wallMargin)
		}
	}

	if _, ok := s.Lookup("missing"); ok {
		t.Errorf("Lookup(missing) = true")
	}
}

func TestMap_Clamp(t *testing.T) {
	m := &Map{Width: 100, Height: 50}

	tests := []struct {
		name         string
		x, y         float64
		wantX, wantY float64
	}{
		{name: "inside stays put", x: 10, y: 20, wantX: 10, wantY: 20},
		{name: "negative clamps to zero", x: -5, y: -1, wantX: 0, wantY: 0},
		{name: "overflow clamps to bounds", x: 150, y: 80, wantX: 100, wantY: 50},
		{name: "mixed", x: -3, y: 80, wantX: 0, wantY: 50},
		{name: "edges are valid", x: 100, y: 0, wantX: 100, wantY: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotX, gotY := m.Clamp(tt.x, tt.y)
			if gotX != tt.wantX || gotY != tt.wantY {
				t.Errorf("Clamp(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, gotX, gotY, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMap_RandomPositionInBounds(t *testing.T) {
	m := &Map{Width: 200, Height: 300}
	for i := 0; i < 100; i++ {
		x, y := m.RandomPosition()
		if x < 0 || x > m.Width || y < 0 || y > m.Height {
			t.Fatalf("RandomPosition() = (%v, %v), outside %vx%v", x, y, m.Width, m.Height)
		}
	}
}
