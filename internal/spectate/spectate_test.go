package spectate

import (
	"testing"

	"bancho/internal/channel"
	"bancho/internal/session"
)

func newTestUser(id int32, name string) *session.User {
	return session.NewUser(id, name, name)
}

func TestStartCreatesChannelAndLinksBothSides(t *testing.T) {
	reg := channel.NewRegistry()
	host := newTestUser(1, "host")
	spec := newTestUser(2, "spec")

	Start(reg, host, spec)

	if spec.Spectating() != host {
		t.Error("expected spec.Spectating() to point at host")
	}
	specs := host.Spectators()
	if len(specs) != 1 || specs[0] != spec {
		t.Errorf("got %v, want [spec]", specs)
	}

	ch, ok := reg.Get(ChatName(host.ID))
	if !ok {
		t.Fatal("expected the spectator channel to be created")
	}
	if !ch.IsMember(host) || !ch.IsMember(spec) {
		t.Error("expected both host and spectator to be channel members")
	}

	if len(host.Drain()) == 0 {
		t.Error("expected host to receive spectator_joined")
	}
	if len(spec.Drain()) != 0 {
		t.Error("expected the first spectator to receive no fellow-spectator notices")
	}
}

func TestStartSwitchingHostsLeavesPrevious(t *testing.T) {
	reg := channel.NewRegistry()
	hostA := newTestUser(1, "hostA")
	hostB := newTestUser(2, "hostB")
	spec := newTestUser(3, "spec")

	Start(reg, hostA, spec)
	Start(reg, hostB, spec)

	if spec.Spectating() != hostB {
		t.Error("expected spec to now be spectating hostB")
	}
	if len(hostA.Spectators()) != 0 {
		t.Error("expected hostA to have lost its spectator")
	}
	if _, ok := reg.Get(ChatName(hostA.ID)); ok {
		t.Error("expected hostA's now-empty spectator channel to be removed")
	}
}

func TestStartDuplicateIsNoop(t *testing.T) {
	reg := channel.NewRegistry()
	host := newTestUser(1, "host")
	spec := newTestUser(2, "spec")

	Start(reg, host, spec)
	host.Drain()
	spec.Drain()

	Start(reg, host, spec)
	if len(host.Spectators()) != 1 {
		t.Errorf("got %d spectators, want 1", len(host.Spectators()))
	}
}

func TestStartStealthSuppressesJoinNotices(t *testing.T) {
	reg := channel.NewRegistry()
	host := newTestUser(1, "host")
	spec := newTestUser(2, "spec")
	spec.SetStealth(true)

	Start(reg, host, spec)
	if len(host.Drain()) != 0 {
		t.Error("expected no spectator_joined notice for a stealth spectator")
	}
}

func TestStopRemovesLinksAndNotifies(t *testing.T) {
	reg := channel.NewRegistry()
	host := newTestUser(1, "host")
	spec := newTestUser(2, "spec")
	Start(reg, host, spec)
	host.Drain()

	Stop(reg, spec)
	if spec.Spectating() != nil {
		t.Error("expected spec.Spectating() to be nil after Stop")
	}
	if len(host.Spectators()) != 0 {
		t.Error("expected host to have no spectators after Stop")
	}
	if len(host.Drain()) == 0 {
		t.Error("expected host to receive spectator_left")
	}
	if _, ok := reg.Get(ChatName(host.ID)); ok {
		t.Error("expected the now-empty spectator channel to be removed")
	}
}

func TestStopOnNonSpectatorIsNoop(t *testing.T) {
	reg := channel.NewRegistry()
	u := newTestUser(1, "u")
	Stop(reg, u) // must not panic
}

func TestFramesRebroadcastToSpectators(t *testing.T) {
	reg := channel.NewRegistry()
	host := newTestUser(1, "host")
	spec := newTestUser(2, "spec")
	Start(reg, host, spec)
	spec.Drain()

	Frames(host, []byte("frame-data"))
	if len(spec.Drain()) == 0 {
		t.Error("expected spectator to receive the rebroadcast frames packet")
	}
}

func TestCantSpectateNotifiesHostAndFellows(t *testing.T) {
	reg := channel.NewRegistry()
	host := newTestUser(1, "host")
	a := newTestUser(2, "a")
	b := newTestUser(3, "b")
	Start(reg, host, a)
	Start(reg, host, b)
	host.Drain()
	a.Drain()
	b.Drain()

	CantSpectate(a)
	if len(host.Drain()) == 0 {
		t.Error("expected host to be notified")
	}
	if len(b.Drain()) == 0 {
		t.Error("expected fellow spectator b to be notified")
	}
	if len(a.Drain()) != 0 {
		t.Error("expected the reporting spectator to not notify itself")
	}
}

func TestCantSpectateStealthIsNoop(t *testing.T) {
	reg := channel.NewRegistry()
	host := newTestUser(1, "host")
	spec := newTestUser(2, "spec")
	spec.SetStealth(true)
	Start(reg, host, spec)
	host.Drain()

	CantSpectate(spec)
	if len(host.Drain()) != 0 {
		t.Error("expected no cant_spectate notice from a stealth spectator")
	}
}
