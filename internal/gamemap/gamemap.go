package gamemap

import (
	"math/rand/v2"
)

// Wall is a static obstacle on a map.
type Wall struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Map describes the playable area shared read-only between rooms.
type Map struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Walls  []Wall  `json:"walls"`
}

const (
	defaultMapSize   = 1650
	defaultWallCount = 500
	wallMargin       = 20
)

// Store holds all known maps by name.
type Store struct {
	maps map[string]*Map
}

// NewStore seeds the store with the default map, including its random wall layout.
func NewStore() *Store {
	def := &Map{
		Name:   "default",
		Width:  defaultMapSize,
		Height: defaultMapSize,
		Walls:  make([]Wall, 0, defaultWallCount),
	}
	for i := 0; i < defaultWallCount; i++ {
		def.Walls = append(def.Walls, Wall{
			X: rand.Float64()*(def.Width-2*wallMargin) + wallMargin,
			Y: rand.Float64()*(def.Height-2*wallMargin) + wallMargin,
		})
	}
	return &Store{maps: map[string]*Map{def.Name: def}}
}

// Lookup returns the map registered under name.
func (s *Store) Lookup(name string) (*Map, bool) {
	m, ok := s.maps[name]
	return m, ok
}

// Clamp constrains a coordinate pair to the map bounds.
func (m *Map) Clamp(x, y float64) (float64, float64) {
	if x < 0 {
		x = 0
	} else if x > m.Width {
		x = m.Width
	}
	if y < 0 {
		y = 0
	} else if y > m.Height {
		y = m.Height
	}
	return x, y
}

// RandomPosition returns a uniformly random point within the map bounds.
func (m *Map) RandomPosition() (float64, float64) {
	return rand.Float64() * m.Width, rand.Float64() * m.Height
}
