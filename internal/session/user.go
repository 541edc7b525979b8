package session

import (
	"sync"
	"time"
)

// maxQueueBytes bounds the per-session write queue. The source this spec is
// drawn from leaves it unbounded; §5 calls that out as a resource-exhaustion
// risk for a stuck client, so this implementation disconnects instead of
// growing forever.
const maxQueueBytes = 1 << 20 // 1 MiB

// Action mirrors the client's current top-level activity (OSU_CHANGE_ACTION).
type Action uint8

// Mode is the game mode a Status/Stats entry applies to.
type Mode uint8

const (
	ModeOsu Mode = iota
	ModeTaiko
	ModeCatch
	ModeMania
)

// Status is the frequently-mutated shared state described in spec §4.3: the
// only field group updated on essentially every poll.
type Status struct {
	Action   Action
	InfoText string
	MapMD5   string
	Mods     uint32
	Mode     Mode
	MapID    int32
}

// Stats is one game mode's scoreboard snapshot for a user.
type Stats struct {
	TotalScore   int64
	RankedScore  int64
	Accuracy     float64
	PP           int32
	MaxCombo     int32
	TotalHits    int64
	Playcount    int32
	Playtime     int64
	GlobalRank   int32
	CountryRank  int32
}

// ClientFingerprint is the hardware identity reported at login, used for
// duplicate-hardware detection (spec §4.5).
type ClientFingerprint struct {
	OsuMD5       string
	AdaptersMD5  string
	UninstallMD5 string
	DiskMD5      string
	Adapters     []string
	Wine         bool
}

// ClientVersion is the parsed `b YYYYMMDD(.revision)?(stream)?` version
// string sent at login.
type ClientVersion struct {
	Date     time.Time
	Revision int
	Stream   string // "", "beta", "cuttingedge", "dev", "tourney"
}

// User is a single client session: identity, credentials, presence, the
// write queue, and the social graph (friends/blocks/channels/spectators).
//
// Grounded on the teacher's Client (client.go): a registry-owned struct
// with a small mutex protecting the hot write path (there: the control
// stream writer guarded by ctrlMu; here: Queue guarded by its own mutex)
// plus atomics for fields read far more often than written.
type User struct {
	ID        int32
	Name      string
	SafeName  string
	PassHash  string
	IP        string

	Privileges Privileges
	CountryISO string
	Longitude  float64
	Latitude   float64
	UTCOffset  int

	Fingerprint ClientFingerprint
	Version     ClientVersion

	mu            sync.RWMutex
	status        Status
	stats         [4]Stats
	friends       map[int32]struct{}
	blocked       map[int32]struct{}
	channels      map[string]struct{} // keyed by channel real_name
	spectators    map[int32]*User
	spectating    *User
	matchID       int // -1 when not seated in a match
	stealth       bool
	inLobby       bool
	friendOnlyDMs bool
	tourney       bool

	SilenceEnd time.Time

	Token          string
	LoginTime      time.Time
	LatestActivity time.Time

	qmu   sync.Mutex
	queue []byte
}

// NewUser constructs a User with its maps initialised and matchID unset.
func NewUser(id int32, name, safeName string) *User {
	now := time.Now()
	return &User{
		ID:             id,
		Name:           name,
		SafeName:       safeName,
		friends:        make(map[int32]struct{}),
		blocked:        make(map[int32]struct{}),
		channels:       make(map[string]struct{}),
		spectators:     make(map[int32]*User),
		matchID:        -1,
		LoginTime:      now,
		LatestActivity: now,
	}
}

// Restricted reports whether the user's privileges carry DISALLOWED.
func (u *User) Restricted() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.Privileges.Restricted()
}

// Silenced reports whether the user's silence period has not yet elapsed.
func (u *User) Silenced() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.SilenceEnd.After(time.Now())
}

// RemainingSilence returns the duration left on the user's silence, or 0.
func (u *User) RemainingSilence() time.Duration {
	u.mu.RLock()
	defer u.mu.RUnlock()
	d := time.Until(u.SilenceEnd)
	if d < 0 {
		return 0
	}
	return d
}

// Silence extends the user's silence_end to now+d (or sets it, whichever is later).
func (u *User) Silence(d time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	end := time.Now().Add(d)
	if end.After(u.SilenceEnd) {
		u.SilenceEnd = end
	}
}

// Status returns a copy of the current status.
func (u *User) Status() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

// SetStatus overwrites the status in place, per spec §4.3.
func (u *User) SetStatus(s Status) {
	u.mu.Lock()
	u.status = s
	u.mu.Unlock()
}

// Stats returns a copy of the stats for mode.
func (u *User) Stats(mode Mode) Stats {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.stats[mode]
}

// SetStats overwrites the stats for mode.
func (u *User) SetStats(mode Mode, s Stats) {
	u.mu.Lock()
	u.stats[mode] = s
	u.mu.Unlock()
}

// AddFriend adds target to the user's friends list.
func (u *User) AddFriend(target int32) {
	u.mu.Lock()
	u.friends[target] = struct{}{}
	u.mu.Unlock()
}

// RemoveFriend removes target from the user's friends list.
func (u *User) RemoveFriend(target int32) {
	u.mu.Lock()
	delete(u.friends, target)
	u.mu.Unlock()
}

// IsFriend reports whether target is in the user's friends list.
func (u *User) IsFriend(target int32) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.friends[target]
	return ok
}

// Friends returns a snapshot slice of friend ids.
func (u *User) Friends() []int32 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]int32, 0, len(u.friends))
	for id := range u.friends {
		out = append(out, id)
	}
	return out
}

// Block adds target to the user's block list.
func (u *User) Block(target int32) {
	u.mu.Lock()
	u.blocked[target] = struct{}{}
	u.mu.Unlock()
}

// Unblock removes target from the user's block list.
func (u *User) Unblock(target int32) {
	u.mu.Lock()
	delete(u.blocked, target)
	u.mu.Unlock()
}

// HasBlocked reports whether target is on the user's block list.
func (u *User) HasBlocked(target int32) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.blocked[target]
	return ok
}

// JoinedChannel records that the user is a member of realName.
func (u *User) JoinedChannel(realName string) {
	u.mu.Lock()
	u.channels[realName] = struct{}{}
	u.mu.Unlock()
}

// LeftChannel removes realName from the user's joined-channel set.
func (u *User) LeftChannel(realName string) {
	u.mu.Lock()
	delete(u.channels, realName)
	u.mu.Unlock()
}

// InChannel reports whether the user has joined realName.
func (u *User) InChannel(realName string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.channels[realName]
	return ok
}

// Channels returns a snapshot of joined channel real names.
func (u *User) Channels() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, 0, len(u.channels))
	for name := range u.channels {
		out = append(out, name)
	}
	return out
}

// Spectating returns the host this user is currently spectating, or nil.
func (u *User) Spectating() *User {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.spectating
}

// SetSpectating records the host this user is spectating (nil to clear).
func (u *User) SetSpectating(host *User) {
	u.mu.Lock()
	u.spectating = host
	u.mu.Unlock()
}

// AddSpectator adds spec to this user's (host's) spectator set.
func (u *User) AddSpectator(spec *User) {
	u.mu.Lock()
	u.spectators[spec.ID] = spec
	u.mu.Unlock()
}

// RemoveSpectator removes spec from this user's spectator set.
func (u *User) RemoveSpectator(spec *User) {
	u.mu.Lock()
	delete(u.spectators, spec.ID)
	u.mu.Unlock()
}

// Spectators returns a snapshot slice of current spectators.
func (u *User) Spectators() []*User {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*User, 0, len(u.spectators))
	for _, s := range u.spectators {
		out = append(out, s)
	}
	return out
}

// Stealth reports whether the user spectates without announcing itself.
func (u *User) Stealth() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.stealth
}

// SetStealth toggles hidden spectating.
func (u *User) SetStealth(on bool) {
	u.mu.Lock()
	u.stealth = on
	u.mu.Unlock()
}

// InLobby reports whether the client has the multiplayer browser open,
// which gates #lobby membership (spec §4.4).
func (u *User) InLobby() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.inLobby
}

// SetInLobby records the multiplayer-browser state.
func (u *User) SetInLobby(on bool) {
	u.mu.Lock()
	u.inLobby = on
	u.mu.Unlock()
}

// FriendOnlyDMs reports whether the user accepts private messages from
// friends only. Read from other users' handler goroutines, so it takes
// the same lock as the rest of the mutable state.
func (u *User) FriendOnlyDMs() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.friendOnlyDMs
}

// SetFriendOnlyDMs records the friends-only DM preference.
func (u *User) SetFriendOnlyDMs(on bool) {
	u.mu.Lock()
	u.friendOnlyDMs = on
	u.mu.Unlock()
}

// Tourney reports whether this session was opened by a tourney-stream
// client.
func (u *User) Tourney() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.tourney
}

// SetTourney marks the session as a tourney client; set once during login.
func (u *User) SetTourney(on bool) {
	u.mu.Lock()
	u.tourney = on
	u.mu.Unlock()
}

// MatchID returns the id of the match this user currently occupies a slot
// in, or -1 if none.
func (u *User) MatchID() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.matchID
}

// SetMatchID records which match (by id) this user currently occupies, or
// -1 when leaving.
func (u *User) SetMatchID(id int) {
	u.mu.Lock()
	u.matchID = id
	u.mu.Unlock()
}

// Touch updates latest_activity to now.
func (u *User) Touch() {
	u.mu.Lock()
	u.LatestActivity = time.Now()
	u.mu.Unlock()
}

// SetLatestActivity assigns latest_activity directly, used when an external
// process reports activity on the user's behalf.
func (u *User) SetLatestActivity(t time.Time) {
	u.mu.Lock()
	u.LatestActivity = t
	u.mu.Unlock()
}

// SetPrivileges replaces the privilege bitfield on a live session. Writes
// after registry insertion go through here rather than the bare field so
// they serialize against Restricted() checks on other goroutines.
func (u *User) SetPrivileges(p Privileges) {
	u.mu.Lock()
	u.Privileges = p
	u.mu.Unlock()
}

// IdleFor returns how long it has been since the user's latest activity.
func (u *User) IdleFor() time.Duration {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return time.Since(u.LatestActivity)
}

// Enqueue appends data to the user's write queue. It is the universal
// unicast primitive (spec §4.3): broadcast and per-channel send are both
// expressed as repeated calls to Enqueue on different users.
//
// Returns false if appending would exceed maxQueueBytes; the caller should
// treat that as a dead session and disconnect it (spec §5's resource-limit
// note), mirroring the teacher's circuit breaker cutting off an
// unreachable client rather than growing state for it forever.
func (u *User) Enqueue(data []byte) bool {
	u.qmu.Lock()
	defer u.qmu.Unlock()
	if len(u.queue)+len(data) > maxQueueBytes {
		return false
	}
	u.queue = append(u.queue, data...)
	return true
}

// Drain returns the queued bytes and empties the queue. Called once per
// poll response.
func (u *User) Drain() []byte {
	u.qmu.Lock()
	defer u.qmu.Unlock()
	if len(u.queue) == 0 {
		return nil
	}
	out := u.queue
	u.queue = nil
	return out
}
