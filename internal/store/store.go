// Package store persists users, stats, login history, client fingerprints,
// friend lists, silences, and logs — the external collaborator named
// "User store" in spec §6, backed by MongoDB. Channels, beatmaps and
// ratings are not read or written by this package.
package store

import (
	"context"
	"time"
)

// UserRecord is the persisted row from the "users" collection.
type UserRecord struct {
	ID          int32
	Name        string
	SafeName    string
	BcryptHash  string
	Privileges  uint32
	Country     string
	SilenceEnd  time.Time
	CreatedAt   time.Time
	LatestLogin time.Time
}

// StatsRecord is one row from the "ustats" collection: a user's
// per-mode scoreboard.
type StatsRecord struct {
	UserID      int32
	Mode        int32
	TotalScore  int64
	RankedScore int64
	Accuracy    float64
	PP          int32
	MaxCombo    int32
	TotalHits   int64
	Playcount   int32
	Playtime    int64
	GlobalRank  int32
	CountryRank int32
}

// ClientHashesRecord is one row from the "client_hashes" collection, used
// for hardware-collision detection at login (spec §4.5).
type ClientHashesRecord struct {
	UserID       int32
	AdaptersMD5  string
	UninstallMD5 string
	DiskMD5      string
	Wine         bool
	SeenAt       time.Time
}

// UserStore is the collaborator interface named in spec §6: find_one /
// update_one / insert_one against the users/ustats/logins/client_hashes/logs
// collections.
type UserStore interface {
	FindUserByName(ctx context.Context, safeName string) (UserRecord, bool, error)
	FindUserByID(ctx context.Context, id int32) (UserRecord, bool, error)
	InsertLogin(ctx context.Context, userID int32, ip string, ok bool) error
	FindStats(ctx context.Context, userID int32, mode int32) (StatsRecord, error)
	SaveClientHashes(ctx context.Context, rec ClientHashesRecord) error
	FindCollidingHashes(ctx context.Context, rec ClientHashesRecord) ([]int32, error)
	SetPrivileges(ctx context.Context, userID int32, privileges uint32) error
	SetSilence(ctx context.Context, userID int32, until time.Time) error
	FindRelationships(ctx context.Context, userID int32) (friends, blocked []int32, err error)
	AddFriend(ctx context.Context, userID, targetID int32) error
	RemoveFriend(ctx context.Context, userID, targetID int32) error
	Log(ctx context.Context, component, message string) error
}
