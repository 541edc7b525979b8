package packets

import (
	"context"
	"log"
	"time"

	"bancho/internal/geoip"
	"bancho/internal/login"
	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

// A restricted user may keep their own session alive and inspect the world
// (spec §4.2: "they may log in, chat nowhere, and do little else"); every
// handler that mutates shared state or emits chat stays full-table-only.
func registerSessionHandlers(r *Router) {
	r.register(opcode.OsuChangeAction, true, handleChangeAction)
	r.register(opcode.OsuLogout, true, handleLogout)
	r.register(opcode.OsuRequestStatusUpdate, true, handleRequestStatusUpdate)
	r.register(opcode.OsuPing, true, handlePing)
	r.register(opcode.OsuReceiveUpdates, true, handleReceiveUpdates)
	r.register(opcode.OsuFriendAdd, false, handleFriendAdd)
	r.register(opcode.OsuFriendRemove, false, handleFriendRemove)
	r.register(opcode.OsuUserStatsRequest, true, handleUserStatsRequest)
	r.register(opcode.OsuToggleBlockNonFriendDMs, true, handleToggleBlockDMs)
	r.register(opcode.OsuUserPresenceRequest, true, handlePresenceRequest)
	r.register(opcode.OsuUserPresenceRequestAll, true, handlePresenceRequestAll)
	r.register(opcode.OsuSetAwayMessage, true, handleSetAwayMessage)
}

// handleChangeAction overwrites user.status in place and, if not
// restricted, broadcasts user_stats to all sessions (spec §4.3).
func handleChangeAction(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	action, err := r.U8()
	if err != nil {
		return err
	}
	infoText, err := r.String()
	if err != nil {
		return err
	}
	mapMD5, err := r.String()
	if err != nil {
		return err
	}
	mods, err := r.U32()
	if err != nil {
		return err
	}
	mode, err := r.U8()
	if err != nil {
		return err
	}
	mapID, err := r.I32()
	if err != nil {
		return err
	}

	u.SetStatus(session.Status{
		Action:   session.Action(action),
		InfoText: infoText,
		MapMD5:   mapMD5,
		Mods:     mods,
		Mode:     session.Mode(mode),
		MapID:    mapID,
	})

	if !u.Restricted() {
		d.Users.Broadcast(login.Stats(u), nil)
	}
	return nil
}

func handleLogout(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	// The client fires a logout right after connecting; a session younger
	// than a second is never torn down for it.
	if time.Since(u.LoginTime) < time.Second {
		return nil
	}
	login.Logout(d.Users, d.Channels, d.Matches, u)
	return nil
}

func handleRequestStatusUpdate(_ context.Context, _ *Deps, u *session.User, _ []byte) error {
	u.Enqueue(login.Stats(u))
	return nil
}

func handlePing(_ context.Context, _ *Deps, _ *session.User, _ []byte) error { return nil }

func handleReceiveUpdates(_ context.Context, _ *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	_, err := r.I32() // presence filter preference; no server-side effect here
	return err
}

func handleFriendAdd(ctx context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	target, err := r.I32()
	if err != nil {
		return err
	}
	u.AddFriend(target)
	if d.Store != nil {
		if err := d.Store.AddFriend(ctx, u.ID, target); err != nil {
			log.Printf("[packets] persist friend add %d->%d: %v", u.ID, target, err)
		}
	}
	return nil
}

func handleFriendRemove(ctx context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	target, err := r.I32()
	if err != nil {
		return err
	}
	u.RemoveFriend(target)
	if d.Store != nil {
		if err := d.Store.RemoveFriend(ctx, u.ID, target); err != nil {
			log.Printf("[packets] persist friend remove %d->%d: %v", u.ID, target, err)
		}
	}
	return nil
}

func handleUserStatsRequest(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	ids, err := r.I32List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if t, ok := d.Users.ByID(id); ok {
			u.Enqueue(login.Stats(t))
		}
	}
	return nil
}

func handleToggleBlockDMs(_ context.Context, _ *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	v, err := r.I32()
	if err != nil {
		return err
	}
	u.SetFriendOnlyDMs(v != 0)
	return nil
}

func handlePresenceRequest(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	ids, err := r.I32List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if t, ok := d.Users.ByID(id); ok {
			u.Enqueue(login.Presence(t, geoip.CountryIndex(t.CountryISO), t.Privileges.ToBancho()))
		}
	}
	return nil
}

func handlePresenceRequestAll(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	for _, t := range d.Users.Unrestricted() {
		if t.ID == u.ID {
			continue
		}
		u.Enqueue(login.Presence(t, geoip.CountryIndex(t.CountryISO), t.Privileges.ToBancho()))
	}
	return nil
}

func handleSetAwayMessage(_ context.Context, _ *Deps, _ *session.User, _ []byte) error {
	return nil
}
