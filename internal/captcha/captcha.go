package captcha

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TTL is how long a challenge stays valid after issuance.
const TTL = 180 * time.Second

const challengeLength = 6

const challengeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Challenge is a time-boxed captcha challenge handed to a registering client.
type Challenge struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store holds outstanding challenges. Expired entries are pruned by the
// presence sweeper, matching the lifetime of other ephemeral artifacts.
type Store struct {
	mu         sync.Mutex
	challenges map[string]Challenge
}

// NewStore creates an empty challenge store.
func NewStore() *Store {
	return &Store{challenges: make(map[string]Challenge)}
}

// Issue creates a new challenge.
func (s *Store) Issue() Challenge {
	c := Challenge{
		ID:        uuid.New().String(),
		Value:     randomChallenge(),
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.ID] = c
	return c
}

// Verify consumes a challenge if the answer matches and the challenge has not
// expired. Challenges are single-use.
func (s *Store) Verify(id, answer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return false
	}
	if time.Since(c.CreatedAt) > TTL || c.Value != answer {
		return false
	}
	delete(s.challenges, id)
	return true
}

// Prune drops every challenge older than TTL and returns how many were removed.
func (s *Store) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, c := range s.challenges {
		if now.Sub(c.CreatedAt) > TTL {
			delete(s.challenges, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of outstanding challenges.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

func randomChallenge() string {
	buf := make([]byte, challengeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = challengeAlphabet[int(b)%len(challengeAlphabet)]
	}
	return string(buf)
}
