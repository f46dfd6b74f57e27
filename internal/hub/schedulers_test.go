package hub

import (
	"strings"
	"testing"
	"time"

	"github.com/blobs-io/blobs.live/internal/registry"
	"github.com/blobs-io/blobs.live/internal/room"
	"github.com/blobs-io/blobs.live/pkg/proto"
)

func TestPresenceSnapshot(t *testing.T) {
	env := newTestEnv(t)

	lobby := env.registry.Register(&fakeTransport{})
	lobby.SetProfile(&registry.Profile{Username: "champ", BR: 2200, Role: 1})

	// Anonymous connections without a profile are not listed.
	env.registry.Register(&fakeTransport{})

	ffa := room.NewFFA("ffa1", env.m)
	env.addRoomQuiet(ffa)
	env.joinPlayer(t, ffa, "fighter", true)

	// Elimination players are not part of the public presence list.
	elim := room.NewElimination("elim1", env.m, room.EliminationConfig{})
	env.addRoomQuiet(elim)
	env.joinPlayer(t, elim, "hidden", true)

	online := env.hub.presenceSnapshot()
	if len(online) != 2 {
		t.Fatalf("presenceSnapshot() returned %d entries, want 2", len(online))
	}

	byName := make(map[string]proto.PresenceEntry)
	for _, e := range online {
		byName[e.Username] = e
	}
	if e, ok := byName["champ"]; !ok || e.Location != "Lobby" || e.BR != 2200 {
		t.Errorf("lobby entry = %+v, want champ in Lobby with BR 2200", e)
	}
	if e, ok := byName["fighter"]; !ok || e.Location != "FFA" {
		t.Errorf("ffa entry = %+v, want fighter in FFA", e)
	}
	if _, ok := byName["hidden"]; ok {
		t.Errorf("elimination player leaked into the presence snapshot")
	}
}

func TestSweepPresence_PushesToLobbyOnly(t *testing.T) {
	env := newTestEnv(t)

	lobbyFT := &fakeTransport{}
	lobby := env.registry.Register(lobbyFT)
	lobby.SetProfile(&registry.Profile{Username: "champ"})

	anonFT := &fakeTransport{}
	env.registry.Register(anonFT)

	env.hub.sweepPresence(time.Now())

	if lobbyFT.frameCount() != 1 {
		t.Fatalf("lobby connection received %d frames, want 1", lobbyFT.frameCount())
	}
	if !strings.Contains(lobbyFT.lastFrame(), string(proto.EventPresence)) {
		t.Errorf("lobby frame %q is not a presence push", lobbyFT.lastFrame())
	}
	if anonFT.frameCount() != 0 {
		t.Errorf("anonymous connection received %d presence frames, want 0", anonFT.frameCount())
	}
}

func TestBroadcastFFAPlayers(t *testing.T) {
	env := newTestEnv(t)

	ffa := room.NewFFA("ffa1", env.m)
	env.addRoomQuiet(ffa)
	_, playerFT := env.joinPlayer(t, ffa, "fighter", true)

	lobbyFT := &fakeTransport{}
	lobby := env.registry.Register(lobbyFT)
	lobby.SetProfile(&registry.Profile{Username: "watcher"})

	env.hub.broadcastFFAPlayers()

	// Everyone connected receives the global FFA position frame.
	for name, ft := range map[string]*fakeTransport{"player": playerFT, "lobby": lobbyFT} {
		if ft.frameCount() != 1 {
			t.Errorf("%s connection received %d frames, want 1", name, ft.frameCount())
			continue
		}
		if !strings.Contains(ft.lastFrame(), string(proto.EventFFAPlayerUpdate)) {
			t.Errorf("%s frame %q is not an FFA update", name, ft.lastFrame())
		}
	}
}

func TestBroadcastFFAPlayers_SilentWhenEmpty(t *testing.T) {
	env := newTestEnv(t)

	ffa := room.NewFFA("ffa1", env.m)
	env.addRoomQuiet(ffa)

	lobbyFT := &fakeTransport{}
	env.registry.Register(lobbyFT)

	env.hub.broadcastFFAPlayers()

	if lobbyFT.frameCount() != 0 {
		t.Errorf("empty FFA broadcast sent %d frames, want 0", lobbyFT.frameCount())
	}
}
