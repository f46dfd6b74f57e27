package registry

import (
	"errors"
	"testing"
	"time"
)

type fakeTransport struct {
	closed bool
}

func (f *fakeTransport) WriteMessage(messageType int, data []byte) error { return nil }
func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func TestRegistry_RegisterAssignsUniqueIDs(t *testing.T) {
	r := New()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		conn := r.Register(&fakeTransport{})
		if len(conn.ID) != idLength {
			t.Fatalf("Register assigned ID %q of length %d, want %d", conn.ID, len(conn.ID), idLength)
		}
		if seen[conn.ID] {
			t.Fatalf("Register assigned duplicate ID %q", conn.ID)
		}
		seen[conn.ID] = true
	}
	if got := r.Len(); got != 100 {
		t.Errorf("Len() = %d, want 100", got)
	}
}

func TestRegistry_LookupAndUnregister(t *testing.T) {
	r := New()
	conn := r.Register(&fakeTransport{})

	got, err := r.Lookup(conn.ID)
	if err != nil {
		t.Fatalf("Lookup(%s) returned error: %v", conn.ID, err)
	}
	if got != conn {
		t.Errorf("Lookup returned a different connection")
	}

	r.Unregister(conn.ID)
	if _, err := r.Lookup(conn.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup after Unregister error = %v, want ErrNotFound", err)
	}

	// Unknown IDs are a no-op.
	r.Unregister("missing")
}

func TestConnection_MarkInactiveKeepsFirstTimestamp(t *testing.T) {
	r := New()
	conn := r.Register(&fakeTransport{})

	if conn.Inactive() {
		t.Fatalf("new connection reports inactive")
	}

	first := time.Now()
	conn.MarkInactive(first)
	conn.MarkInactive(first.Add(time.Minute))

	since, ok := conn.InactiveSince()
	if !ok {
		t.Fatalf("InactiveSince() = false after MarkInactive")
	}
	if !since.Equal(first) {
		t.Errorf("InactiveSince() = %v, want the first mark %v", since, first)
	}
}

func TestRegistry_PruneInactive(t *testing.T) {
	r := New()
	grace := 3 * time.Second
	now := time.Now()

	active := r.Register(&fakeTransport{})
	fresh := r.Register(&fakeTransport{})
	stale := r.Register(&fakeTransport{})

	fresh.MarkInactive(now.Add(-time.Second))
	stale.MarkInactive(now.Add(-5 * time.Second))

	pruned := r.PruneInactive(now, grace)
	if len(pruned) != 1 || pruned[0].ID != stale.ID {
		t.Fatalf("PruneInactive pruned %d connections, want exactly the stale one", len(pruned))
	}

	if _, err := r.Lookup(stale.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale connection still registered after prune")
	}
	if _, err := r.Lookup(active.ID); err != nil {
		t.Errorf("active connection was pruned: %v", err)
	}
	if _, err := r.Lookup(fresh.ID); err != nil {
		t.Errorf("connection inside the grace window was pruned: %v", err)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := New()
	a := r.Register(&fakeTransport{})
	b := r.Register(&fakeTransport{})

	snapshot := r.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Snapshot() returned %d connections, want 2", len(snapshot))
	}

	ids := map[string]bool{}
	for _, c := range snapshot {
		ids[c.ID] = true
	}
	if !ids[a.ID] || !ids[b.ID] {
		t.Errorf("Snapshot() is missing registered connections")
	}
}
