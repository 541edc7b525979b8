package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bancho/internal/channel"
	"bancho/internal/match"
	"bancho/internal/session"
	"bancho/internal/store"
)

// fakeStore satisfies store.UserStore with canned stats.
type fakeStore struct {
	stats store.StatsRecord
}

func (f *fakeStore) FindUserByName(context.Context, string) (store.UserRecord, bool, error) {
	return store.UserRecord{}, false, nil
}
func (f *fakeStore) FindUserByID(context.Context, int32) (store.UserRecord, bool, error) {
	return store.UserRecord{}, false, nil
}
func (f *fakeStore) InsertLogin(context.Context, int32, string, bool) error { return nil }
func (f *fakeStore) FindStats(context.Context, int32, int32) (store.StatsRecord, error) {
	return f.stats, nil
}
func (f *fakeStore) SaveClientHashes(context.Context, store.ClientHashesRecord) error { return nil }
func (f *fakeStore) FindCollidingHashes(context.Context, store.ClientHashesRecord) ([]int32, error) {
	return nil, nil
}
func (f *fakeStore) SetPrivileges(context.Context, int32, uint32) error { return nil }
func (f *fakeStore) SetSilence(context.Context, int32, time.Time) error { return nil }
func (f *fakeStore) FindRelationships(context.Context, int32) ([]int32, []int32, error) {
	return nil, nil, nil
}
func (f *fakeStore) AddFriend(context.Context, int32, int32) error    { return nil }
func (f *fakeStore) RemoveFriend(context.Context, int32, int32) error { return nil }
func (f *fakeStore) Log(context.Context, string, string) error        { return nil }

func newTestAdapter() (*Adapter, *session.Registry) {
	users := session.NewRegistry()
	return &Adapter{
		Users:    users,
		Channels: channel.NewRegistry(),
		Matches:  match.NewRegistry(),
		Store:    &fakeStore{},
		BotID:    3,
		BotName:  "BanchoBot",
	}, users
}

func TestOnUserStatusOverwritesAndBroadcasts(t *testing.T) {
	a, users := newTestAdapter()
	u := session.NewUser(1, "alice", "alice")
	other := session.NewUser(2, "bob", "bob")
	users.Insert(u)
	users.Insert(other)

	payload := []byte(`{"id":1,"status":{"action":2,"info_text":"playing","map_md5":"md5","mods":64,"mode":0,"map_id":42}}`)
	if err := a.onUserStatus(context.Background(), json.RawMessage(payload)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := u.Status()
	if got.InfoText != "playing" || got.Mods != 64 || got.MapID != 42 {
		t.Errorf("status not applied: %+v", got)
	}
	if len(other.Drain()) == 0 {
		t.Error("expected a user_stats broadcast to other sessions")
	}
}

func TestOnUserStatsRefetchesAndBroadcasts(t *testing.T) {
	a, users := newTestAdapter()
	a.Store = &fakeStore{stats: store.StatsRecord{PP: 1234, Playcount: 7}}
	u := session.NewUser(1, "alice", "alice")
	users.Insert(u)

	if err := a.onUserStats(context.Background(), json.RawMessage(`{"id":1,"mode":0}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := u.Stats(session.ModeOsu); got.PP != 1234 || got.Playcount != 7 {
		t.Errorf("stats not refetched: %+v", got)
	}
}

func TestOnUserPrivilegesRestrictionForcesLogout(t *testing.T) {
	a, users := newTestAdapter()
	u := session.NewUser(1, "alice", "alice")
	u.Privileges = session.PrivilegeUnrestricted | session.PrivilegeVerified
	u.Token = "tok"
	users.Insert(u)

	restricted := uint32(session.PrivilegeUnrestricted | session.PrivilegeVerified | session.PrivilegeDisallowed)
	payload, _ := json.Marshal(map[string]any{"id": 1, "privileges": restricted})
	if err := a.onUserPrivileges(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !u.Restricted() {
		t.Error("expected the DISALLOWED bit to be applied")
	}
	if _, ok := users.ByID(1); ok {
		t.Error("expected the session to be logged out after a restriction toggle")
	}
}

func TestOnUserPrivilegesWithoutToggleKeepsSession(t *testing.T) {
	a, users := newTestAdapter()
	u := session.NewUser(1, "alice", "alice")
	u.Privileges = session.PrivilegeUnrestricted
	users.Insert(u)

	granted := uint32(session.PrivilegeUnrestricted | session.PrivilegeSupporter)
	payload, _ := json.Marshal(map[string]any{"id": 1, "privileges": granted})
	if err := a.onUserPrivileges(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := users.ByID(1); !ok {
		t.Error("expected a non-restriction privilege change to keep the session")
	}
}

func TestOnPrivateMessageEnqueuesFromBot(t *testing.T) {
	a, users := newTestAdapter()
	u := session.NewUser(1, "alice", "alice")
	users.Insert(u)

	payload := []byte(`{"recipient":"alice","message":"hello from the web"}`)
	if err := a.onPrivateMessage(context.Background(), json.RawMessage(payload)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Drain()) == 0 {
		t.Error("expected a send_message packet in the recipient's queue")
	}
}

func TestOnPublicMessageBroadcastsToChannel(t *testing.T) {
	a, users := newTestAdapter()
	ch := channel.New("#announce", "#announce", "announcements", 0, true, false)
	a.Channels.Insert(ch)
	u := session.NewUser(1, "alice", "alice")
	users.Insert(u)
	ch.Join(u)

	payload := []byte(`{"channel":"#announce","message":"maintenance at midnight"}`)
	if err := a.onPublicMessage(context.Background(), json.RawMessage(payload)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Drain()) == 0 {
		t.Error("expected every channel member to receive the bot message")
	}
}
