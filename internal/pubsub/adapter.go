package pubsub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"bancho/internal/channel"
	"bancho/internal/login"
	"bancho/internal/match"
	"bancho/internal/session"
	"bancho/internal/store"
	"bancho/internal/wire"
)

// Adapter applies external state deltas into live sessions (spec §4.9).
// Each recognised topic carries a UTF-8 JSON payload published by another
// process (the website, moderation tooling, a score processor); the
// adapter's job is only to fold the delta into in-memory state and fan the
// resulting packets out — it never writes the database itself except where
// a topic explicitly says otherwise.
type Adapter struct {
	Users    *session.Registry
	Channels *channel.Registry
	Matches  *match.Registry
	Store    store.UserStore
	BotID    int32
	BotName  string
}

// Register subscribes every recognised topic on c.
func (a *Adapter) Register(ctx context.Context, c *Consumer) error {
	topics := map[string]Handler{
		"user-status":          a.onUserStatus,
		"user-activity":        a.onUserActivity,
		"user-stats":           a.onUserStats,
		"user-privileges":      a.onUserPrivileges,
		"send-public-message":  a.onPublicMessage,
		"send-private-message": a.onPrivateMessage,
	}
	for name, h := range topics {
		if err := c.On(ctx, name, h); err != nil {
			return err
		}
	}
	return nil
}

// onUserStatus overwrites the cached Status and broadcasts user_stats.
func (a *Adapter) onUserStatus(_ context.Context, raw json.RawMessage) error {
	var msg struct {
		ID     int32 `json:"id"`
		Status struct {
			Action   uint8  `json:"action"`
			InfoText string `json:"info_text"`
			MapMD5   string `json:"map_md5"`
			Mods     uint32 `json:"mods"`
			Mode     uint8  `json:"mode"`
			MapID    int32  `json:"map_id"`
		} `json:"status"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	u, ok := a.Users.ByID(msg.ID)
	if !ok {
		return nil
	}
	u.SetStatus(session.Status{
		Action:   session.Action(msg.Status.Action),
		InfoText: msg.Status.InfoText,
		MapMD5:   msg.Status.MapMD5,
		Mods:     msg.Status.Mods,
		Mode:     session.Mode(msg.Status.Mode),
		MapID:    msg.Status.MapID,
	})
	a.Users.Broadcast(login.Stats(u), nil)
	return nil
}

// onUserActivity assigns latest_activity; the publisher has already
// updated the database.
func (a *Adapter) onUserActivity(_ context.Context, raw json.RawMessage) error {
	var msg struct {
		ID       int32 `json:"id"`
		Activity int64 `json:"activity"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	if u, ok := a.Users.ByID(msg.ID); ok {
		u.SetLatestActivity(time.Unix(msg.Activity, 0))
	}
	return nil
}

// onUserStats refetches one mode's stats from the store and broadcasts.
func (a *Adapter) onUserStats(ctx context.Context, raw json.RawMessage) error {
	var msg struct {
		ID   int32 `json:"id"`
		Mode int32 `json:"mode"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	u, ok := a.Users.ByID(msg.ID)
	if !ok {
		return nil
	}
	rec, err := a.Store.FindStats(ctx, msg.ID, msg.Mode)
	if err != nil {
		return err
	}
	u.SetStats(session.Mode(msg.Mode), session.Stats{
		TotalScore: rec.TotalScore, RankedScore: rec.RankedScore,
		Accuracy: rec.Accuracy, PP: rec.PP, MaxCombo: rec.MaxCombo,
		TotalHits: rec.TotalHits, Playcount: rec.Playcount,
		Playtime: rec.Playtime, GlobalRank: rec.GlobalRank,
		CountryRank: rec.CountryRank,
	})
	a.Users.Broadcast(login.Stats(u), nil)
	return nil
}

// onUserPrivileges replaces the privilege bitfield. When the DISALLOWED
// bit toggles in either direction the session is logged out; the client's
// next poll then hits the stale-token path, receives restart_server(0),
// and reconnects into its new standing.
func (a *Adapter) onUserPrivileges(_ context.Context, raw json.RawMessage) error {
	var msg struct {
		ID         int32  `json:"id"`
		Privileges uint32 `json:"privileges"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	u, ok := a.Users.ByID(msg.ID)
	if !ok {
		return nil
	}
	wasRestricted := u.Restricted()
	u.SetPrivileges(session.Privileges(msg.Privileges))
	if u.Restricted() != wasRestricted {
		log.Printf("[pubsub] user %d restriction toggled, forcing reconnect", u.ID)
		login.Logout(a.Users, a.Channels, a.Matches, u)
	}
	return nil
}

// onPublicMessage posts to a channel as the bot.
func (a *Adapter) onPublicMessage(_ context.Context, raw json.RawMessage) error {
	var msg struct {
		Channel string `json:"channel"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	ch, ok := a.Channels.Get(msg.Channel)
	if !ok {
		return nil
	}
	ch.Broadcast(login.SendMessage(wire.Message{
		Sender: a.BotName, Content: msg.Message, Recipient: ch.Name, SenderID: a.BotID,
	}), 0)
	return nil
}

// onPrivateMessage enqueues to the recipient as if from the bot.
func (a *Adapter) onPrivateMessage(_ context.Context, raw json.RawMessage) error {
	var msg struct {
		Recipient string `json:"recipient"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	if u, ok := a.Users.ByName(msg.Recipient); ok {
		u.Enqueue(login.SendMessage(wire.Message{
			Sender: a.BotName, Content: msg.Message, Recipient: u.Name, SenderID: a.BotID,
		}))
	}
	return nil
}
