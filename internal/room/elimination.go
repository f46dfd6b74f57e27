package room

import (
	"log/slog"
	"time"

	"github.com/blobs-io/blobs.live/internal/gamemap"
	"github.com/blobs-io/blobs.live/internal/player"
)

// State is the lifecycle state of an elimination room.
type State int

const (
	StateWaiting State = iota
	StateCountdown
	StateIngame
)

const (
	// DefaultWaitingTime is how long the countdown runs before combat starts.
	DefaultWaitingTime = 120 * time.Second
	// DefaultMinPlayersStartup is the membership threshold that starts the countdown.
	DefaultMinPlayersStartup = 2
	// DefaultCapacity bounds elimination room membership.
	DefaultCapacity = 8

	countdownPollInterval = time.Second
)

// EliminationConfig tunes the elimination lifecycle. Zero values fall back to
// the package defaults.
type EliminationConfig struct {
	Capacity          int
	MinPlayersStartup int
	WaitingTime       time.Duration
	PollInterval      time.Duration
}

func (c *EliminationConfig) withDefaults() {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.MinPlayersStartup <= 0 {
		c.MinPlayersStartup = DefaultMinPlayersStartup
	}
	if c.WaitingTime <= 0 {
		c.WaitingTime = DefaultWaitingTime
	}
	if c.PollInterval <= 0 {
		c.PollInterval = countdownPollInterval
	}
}

// NewElimination creates an elimination room in the WAITING state.
func NewElimination(id string, m *gamemap.Map, cfg EliminationConfig) *Room {
	cfg.withDefaults()
	return &Room{
		ID:                id,
		Mode:              ModeElimination,
		Map:               m,
		CreatedAt:         time.Now(),
		state:             StateWaiting,
		capacity:          cfg.Capacity,
		minPlayersStartup: cfg.MinPlayersStartup,
		waitingTime:       cfg.WaitingTime,
		pollInterval:      cfg.PollInterval,
		done:              make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CountdownStarted returns the countdown start time. ok is false while the
// room is WAITING.
func (r *Room) CountdownStarted() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countdownStarted.IsZero() {
		return time.Time{}, false
	}
	return r.countdownStarted, true
}

// StartsAt derives the combat start time from the countdown start. ok is
// false while the room is WAITING.
func (r *Room) StartsAt() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateWaiting || r.countdownStarted.IsZero() {
		return time.Time{}, false
	}
	return r.countdownStarted.Add(r.waitingTime), true
}

// MinPlayersStartup returns the countdown membership threshold.
func (r *Room) MinPlayersStartup() int {
	return r.minPlayersStartup
}

// StartDue reports whether the countdown has elapsed.
func (r *Room) StartDue(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateCountdown && !now.Before(r.countdownStarted.Add(r.waitingTime))
}

// Start transitions the room into combat and announces the change. The
// transition happens at most once; later calls are no-ops.
func (r *Room) Start() {
	r.mu.Lock()
	if r.state != StateCountdown {
		r.mu.Unlock()
		return
	}
	r.state = StateIngame
	r.mu.Unlock()

	slog.Info("elimination room started", "room.id", r.ID)
	r.broadcastStateChange(StateIngame, nil)
}

// RevertCountdown rolls a counting-down room back to WAITING when membership
// has dropped to one below the startup threshold. This is the single
// permitted backwards transition of the lifecycle.
func (r *Room) RevertCountdown() bool {
	r.mu.Lock()
	if r.state != StateCountdown || len(r.players) != r.minPlayersStartup-1 {
		r.mu.Unlock()
		return false
	}
	r.state = StateWaiting
	r.countdownStarted = time.Time{}
	r.mu.Unlock()

	slog.Info("countdown reverted, not enough players", "room.id", r.ID)
	r.broadcastStateChange(StateWaiting, nil)
	return true
}

// SoleSurvivor returns the last remaining player of an in-game room. ok is
// false unless the room is INGAME with exactly one player left.
func (r *Room) SoleSurvivor() (*player.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIngame || len(r.players) != 1 {
		return nil, false
	}
	return r.players[0], true
}

// EndOnce runs fn at most once over the lifetime of the room, guarding the
// single payout and teardown of an elimination win.
func (r *Room) EndOnce(fn func()) {
	r.endOnce.Do(fn)
}

// RunCountdownPoll drives the COUNTDOWN to INGAME transition. It owns its
// ticker and exits either when the room starts (the poll is no longer needed)
// or when the room is torn down.
func (r *Room) RunCountdownPoll() {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			if r.StartDue(now) {
				r.Start()
				return
			}
		}
	}
}
