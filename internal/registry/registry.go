package registry

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNotFound is returned when a connection ID is not registered.
var ErrNotFound = errors.New("connection not found")

const idLength = 16

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Transport abstracts the underlying websocket connection.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Profile is the authenticated identity attached to a lobby connection.
type Profile struct {
	Username  string
	BR        int
	Role      int
	LastDaily string
}

// Connection is one live transport connection. It is owned by the Registry;
// players reference it but never own it.
type Connection struct {
	ID        string
	Transport Transport

	mu            sync.Mutex
	inactiveSince *time.Time
	profile       *Profile
}

// Send writes a text message to the transport. Writes are serialized because
// multiple schedulers fan out to the same connection.
func (c *Connection) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transport.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying transport.
func (c *Connection) Close() error {
	return c.Transport.Close()
}

// MarkInactive records the moment the connection went stale. The presence
// sweeper prunes it once the grace window has passed, which lets a lobby
// client survive a quick page refresh.
func (c *Connection) MarkInactive(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inactiveSince == nil {
		c.inactiveSince = &now
	}
}

// Inactive reports whether the connection has been marked stale.
func (c *Connection) Inactive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inactiveSince != nil
}

// InactiveSince returns the staleness timestamp, or zero time while active.
func (c *Connection) InactiveSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inactiveSince == nil {
		return time.Time{}, false
	}
	return *c.inactiveSince, true
}

// SetProfile attaches an authenticated identity to the connection.
func (c *Connection) SetProfile(p *Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = p
}

// Profile returns the attached identity, or nil for unauthenticated connections.
func (c *Connection) Profile() *Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// Registry owns the set of live transport connections. State is
// process-lifetime only and rebuilt empty on restart.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register assigns a new unique connection ID to the transport. IDs only need
// to be unique among currently registered connections; collisions are resolved
// by retrying.
func (r *Registry) Register(t Transport) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := generateID(idLength)
	for _, exists := r.conns[id]; exists; _, exists = r.conns[id] {
		id = generateID(idLength)
	}

	conn := &Connection{ID: id, Transport: t}
	r.conns[id] = conn
	return conn
}

// Unregister removes the connection. Unknown IDs are a no-op because
// disconnect races are expected.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Lookup returns the connection registered under id.
func (r *Registry) Lookup(id string) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conn, nil
}

// Snapshot returns the current connections in an order-independent copy, so
// callers can iterate without holding the registry lock.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// PruneInactive removes and returns every connection whose inactivity exceeds
// the grace window.
func (r *Registry) PruneInactive(now time.Time, grace time.Duration) []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pruned []*Connection
	for id, c := range r.conns {
		if since, ok := c.InactiveSince(); ok && now.Sub(since) > grace {
			delete(r.conns, id)
			pruned = append(pruned, c)
		}
	}
	return pruned
}

func generateID(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
