package channel

import (
	"testing"

	"bancho/internal/session"
)

func newTestUser(id int32, name string) *session.User {
	return session.NewUser(id, name, name)
}

func TestHasPermissionUngated(t *testing.T) {
	c := New("#osu", "#osu", "general", 0, true, false)
	if !c.HasPermission(0) {
		t.Error("an ungated channel should admit a user with no privileges")
	}
}

func TestHasPermissionGated(t *testing.T) {
	c := New("#staff", "#staff", "staff-only", session.PrivilegeAdmin, false, false)
	if c.HasPermission(session.PrivilegeUnrestricted) {
		t.Error("a plain user should not pass a staff-gated channel")
	}
	if !c.HasPermission(session.PrivilegeAdmin) {
		t.Error("an admin should pass a staff-gated channel")
	}
}

func TestJoinLeave(t *testing.T) {
	c := New("#osu", "#osu", "general", 0, true, false)
	u := newTestUser(1, "alice")

	if !c.Join(u) {
		t.Fatal("expected first Join to succeed")
	}
	if c.Join(u) {
		t.Error("expected second Join on the same user to report already-a-member")
	}
	if !c.IsMember(u) {
		t.Error("expected u to be a member after Join")
	}
	if !u.InChannel("#osu") {
		t.Error("expected the user's own channel set to record membership")
	}
	if c.UserCount() != 1 {
		t.Errorf("got %d, want 1", c.UserCount())
	}

	if !c.Leave(u) {
		t.Fatal("expected Leave to succeed for a current member")
	}
	if c.Leave(u) {
		t.Error("expected a second Leave to report not-a-member")
	}
	if c.IsMember(u) {
		t.Error("expected u to no longer be a member after Leave")
	}
	if u.InChannel("#osu") {
		t.Error("expected the user's channel set to drop membership on Leave")
	}
}

func TestMembersSnapshot(t *testing.T) {
	c := New("#osu", "#osu", "general", 0, true, false)
	a, b := newTestUser(1, "a"), newTestUser(2, "b")
	c.Join(a)
	c.Join(b)

	members := c.Members()
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
}

func TestInfoReflectsUserCount(t *testing.T) {
	c := New("#osu", "#osu", "general discussion", 0, true, false)
	c.Join(newTestUser(1, "a"))
	c.Join(newTestUser(2, "b"))

	info := c.Info()
	if info.Name != "#osu" || info.Topic != "general discussion" {
		t.Errorf("got %+v", info)
	}
	if info.UserCount != 2 {
		t.Errorf("got UserCount=%d, want 2", info.UserCount)
	}
}

func TestBroadcastExcludesIgnoreID(t *testing.T) {
	c := New("#osu", "#osu", "general", 0, true, false)
	a, b := newTestUser(1, "a"), newTestUser(2, "b")
	c.Join(a)
	c.Join(b)

	c.Broadcast([]byte("hi"), 1)

	if len(a.Drain()) != 0 {
		t.Error("user matching ignoreID should not have received the broadcast")
	}
	if string(b.Drain()) != "hi" {
		t.Error("other users should have received the broadcast")
	}
}

func TestBroadcastZeroExcludesNobody(t *testing.T) {
	c := New("#osu", "#osu", "general", 0, true, false)
	a, b := newTestUser(1, "a"), newTestUser(2, "b")
	c.Join(a)
	c.Join(b)

	c.Broadcast([]byte("hi"), 0)

	if string(a.Drain()) != "hi" || string(b.Drain()) != "hi" {
		t.Error("expected every member to receive the broadcast when ignoreID is 0")
	}
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistryInsertGetRemove(t *testing.T) {
	r := NewRegistry()
	c := New("#osu", "#osu", "general", 0, true, false)
	r.Insert(c)

	if got, ok := r.Get("#osu"); !ok || got != c {
		t.Fatal("expected Get to find the inserted channel")
	}
	r.Remove("#osu")
	if _, ok := r.Get("#osu"); ok {
		t.Error("expected channel to be gone after Remove")
	}
}

func TestRegistryPublicExcludesInstanceChannels(t *testing.T) {
	r := NewRegistry()
	pub := New("#osu", "#osu", "general", 0, true, false)
	instance := New("#multi_1", "#multi_1", "", 0, false, true)
	r.Insert(pub)
	r.Insert(instance)

	got := r.Public()
	if len(got) != 1 || got[0] != pub {
		t.Errorf("got %v, want [pub]", got)
	}
	if len(r.All()) != 2 {
		t.Errorf("All(): got %d, want 2", len(r.All()))
	}
}

func TestSendExcludesSenderAndChecksPermission(t *testing.T) {
	c := New("#staff", "#staff", "staff-only", session.PrivilegeAdmin, false, false)
	admin := newTestUser(1, "admin")
	admin.Privileges = session.PrivilegeAdmin
	other := newTestUser(2, "other")
	other.Privileges = session.PrivilegeAdmin
	c.Join(admin)
	c.Join(other)

	if !c.Send([]byte("msg"), admin) {
		t.Fatal("expected Send to succeed for a permitted sender")
	}
	if len(admin.Drain()) != 0 {
		t.Error("sender should not receive its own message")
	}
	if string(other.Drain()) != "msg" {
		t.Error("other member should receive the message")
	}

	plain := newTestUser(3, "plain")
	if c.Send([]byte("msg"), plain) {
		t.Error("expected Send to fail for a sender lacking channel permission")
	}
}
