package login

import (
	"bancho/internal/channel"
	"bancho/internal/match"
	"bancho/internal/session"
	"bancho/internal/spectate"
)

// Logout tears a session down completely: stop spectating, leave any
// match (transferring host or disposing as needed), part every joined
// channel, and drop the registry entry. Other sessions are told the user
// is gone unless the user was restricted, in which case their presence was
// never announced to begin with.
//
// Both the explicit OSU_LOGOUT handler and the duplicate-login force
// logout in the login flow go through here so the two paths cannot drift.
func Logout(users *session.Registry, channels *channel.Registry, matches *match.Registry, u *session.User) {
	spectate.Stop(channels, u)

	if id := u.MatchID(); id >= 0 {
		if m := matches.Get(id); m != nil {
			disposed, newHost := match.Leave(m, matches, channels, u)
			lobby, hasLobby := channels.Get("#lobby")
			switch {
			case disposed && hasLobby:
				lobby.Broadcast(match.DisposeMatchPacket(m.ID), 0)
			case !disposed:
				if newHost != nil {
					newHost.Enqueue(match.TransferHostPacket())
				}
				if hasLobby {
					m.EnqueueState(lobby)
				} else {
					m.EnqueueState(nil)
				}
			}
		}
	}

	for _, realName := range u.Channels() {
		if ch, ok := channels.Get(realName); ok {
			ch.Leave(u)
		}
	}

	users.Remove(u)

	if !u.Restricted() {
		users.Broadcast(UserLogout(u.ID), map[int32]struct{}{u.ID: {}})
	}
}
