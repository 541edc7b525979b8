package login

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"bancho/internal/channel"
	"bancho/internal/geoip"
	"bancho/internal/match"
	"bancho/internal/session"
	"bancho/internal/store"
)

// fakeStore is an in-memory stand-in for store.UserStore.
type fakeStore struct {
	byName     map[string]store.UserRecord
	colliders  []int32
	saveErr    error
	collideErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byName: make(map[string]store.UserRecord)}
}

func (f *fakeStore) FindUserByName(_ context.Context, safeName string) (store.UserRecord, bool, error) {
	rec, ok := f.byName[safeName]
	return rec, ok, nil
}
func (f *fakeStore) FindUserByID(_ context.Context, id int32) (store.UserRecord, bool, error) {
	for _, r := range f.byName {
		if r.ID == id {
			return r, true, nil
		}
	}
	return store.UserRecord{}, false, nil
}
func (f *fakeStore) InsertLogin(context.Context, int32, string, bool) error { return nil }
func (f *fakeStore) FindStats(context.Context, int32, int32) (store.StatsRecord, error) {
	return store.StatsRecord{}, nil
}
func (f *fakeStore) SaveClientHashes(context.Context, store.ClientHashesRecord) error {
	return f.saveErr
}
func (f *fakeStore) FindCollidingHashes(context.Context, store.ClientHashesRecord) ([]int32, error) {
	return f.colliders, f.collideErr
}
func (f *fakeStore) SetPrivileges(context.Context, int32, uint32) error { return nil }
func (f *fakeStore) SetSilence(context.Context, int32, time.Time) error { return nil }
func (f *fakeStore) FindRelationships(context.Context, int32) ([]int32, []int32, error) {
	return nil, nil, nil
}
func (f *fakeStore) AddFriend(context.Context, int32, int32) error    { return nil }
func (f *fakeStore) RemoveFriend(context.Context, int32, int32) error { return nil }
func (f *fakeStore) Log(context.Context, string, string) error        { return nil }

// fakeVerifier accepts any password equal to "correct".
type fakeVerifier struct{}

func (fakeVerifier) Verify(_, passwordMD5 string) bool { return passwordMD5 == "correct" }
func (fakeVerifier) Hash(passwordMD5 string) (string, error) { return passwordMD5, nil }

// fakeGeo always resolves to a fixed country.
type fakeGeo struct{}

func (fakeGeo) City(net.IP) (geoip.City, error) { return geoip.City{ISOCode: "US"}, nil }

func validBody(username, password, clientHashes string) []byte {
	version := "b" + time.Now().Format("20060102")
	if clientHashes == "" {
		clientHashes = "osupathmd5:runningunderwine:adaptersmd5:uninstallmd5:diskmd5"
	}
	return []byte(fmt.Sprintf("%s\n%s\n%s|0|0|%s|0\r\n", username, password, version, clientHashes))
}

func newTestDeps(st *fakeStore) *Deps {
	return NewDeps(session.NewRegistry(), channel.NewRegistry(), match.NewRegistry(), st, fakeVerifier{}, fakeGeo{}, 3, "BanchoBot", "", "", nil)
}

func TestLoginMalformedBody(t *testing.T) {
	d := newTestDeps(newFakeStore())
	res := d.Login(context.Background(), []byte("only one line"), "1.2.3.4")
	if res.OK {
		t.Error("expected malformed body to be rejected")
	}
}

func TestLoginVersionRejected(t *testing.T) {
	d := newTestDeps(newFakeStore())
	body := []byte("alice\ncorrect\nnotaversion|0|0|a:b:c:d:e|0\r\n")
	res := d.Login(context.Background(), body, "1.2.3.4")
	if res.OK {
		t.Error("expected bad version string to be rejected")
	}
}

func TestLoginBadAdapters(t *testing.T) {
	d := newTestDeps(newFakeStore())
	body := validBody("alice", "correct", "only:four:fields:here")
	res := d.Login(context.Background(), body, "1.2.3.4")
	if res.OK {
		t.Error("expected too-few client_hashes fields to be rejected")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	d := newTestDeps(newFakeStore())
	res := d.Login(context.Background(), validBody("ghost", "correct", ""), "1.2.3.4")
	if res.OK {
		t.Error("expected unknown username to be rejected")
	}
}

func TestLoginBadPassword(t *testing.T) {
	st := newFakeStore()
	st.byName["alice"] = store.UserRecord{ID: 10, Name: "alice", SafeName: "alice", BcryptHash: "hash"}
	d := newTestDeps(st)

	res := d.Login(context.Background(), validBody("alice", "wrong", ""), "1.2.3.4")
	if res.OK {
		t.Error("expected wrong password to be rejected")
	}
}

func TestLoginSuccess(t *testing.T) {
	st := newFakeStore()
	st.byName["alice"] = store.UserRecord{ID: 10, Name: "alice", SafeName: "alice", BcryptHash: "hash", Privileges: uint32(session.PrivilegeUnrestricted | session.PrivilegeVerified)}
	d := newTestDeps(st)

	res := d.Login(context.Background(), validBody("alice", "correct", ""), "1.2.3.4")
	if !res.OK {
		t.Fatal("expected login to succeed")
	}
	if res.Token == "" {
		t.Error("expected a non-empty session token")
	}
	if len(res.Body) == 0 {
		t.Error("expected a non-empty response body")
	}
	if d.Users.Count() != 1 {
		t.Errorf("got %d registered users, want 1", d.Users.Count())
	}
	if u, ok := d.Users.ByID(10); !ok {
		t.Error("expected the session to carry the stored user id")
	} else if u.Token != res.Token {
		t.Error("expected the registry session to hold the returned token")
	}
}

func TestLoginAlreadyLoggedIn(t *testing.T) {
	st := newFakeStore()
	st.byName["alice"] = store.UserRecord{ID: 10, Name: "alice", SafeName: "alice", BcryptHash: "hash", Privileges: uint32(session.PrivilegeUnrestricted | session.PrivilegeVerified)}
	d := newTestDeps(st)

	existing := session.NewUser(10, "alice", "alice")
	d.Users.Insert(existing)

	res := d.Login(context.Background(), validBody("alice", "correct", ""), "1.2.3.4")
	if res.OK {
		t.Error("expected a concurrent session within the idle grace period to be rejected")
	}
}

func TestLoginHardwareCollision(t *testing.T) {
	st := newFakeStore()
	st.byName["alice"] = store.UserRecord{ID: 10, Name: "alice", SafeName: "alice", BcryptHash: "hash", Privileges: uint32(session.PrivilegeUnrestricted | session.PrivilegeVerified)}
	st.colliders = []int32{99}
	d := newTestDeps(st)

	res := d.Login(context.Background(), validBody("alice", "correct", ""), "1.2.3.4")
	if res.OK {
		t.Error("expected a hardware-hash collision to be rejected")
	}
}
