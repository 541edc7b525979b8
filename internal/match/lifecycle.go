package match

import (
	"errors"
	"fmt"

	"bancho/internal/channel"
	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

// ErrMatchFull is returned by Join when every slot is occupied or locked.
var ErrMatchFull = errors.New("match: no free slot")

// ErrBadPassword is returned by Join when password does not match a
// password-protected match.
var ErrBadPassword = errors.New("match: bad password")

// ChatName returns the real_name of m's per-match chat channel.
func ChatName(id int) string { return fmt.Sprintf("#multi_%d", id) }

// buildUpdatePacket encodes the current match state as an update_match
// frame (spec §4.1), with the password withheld unless sendPW.
func (m *Match) buildUpdatePacket(sendPW bool) []byte {
	w := wire.NewWriter(256)
	m.Encode(w, sendPW)
	return wire.BuildPacket(opcode.ChoUpdateMatch, w.Bytes())
}

// NewMatchPacket announces m to lobby browsers; the embedded state always
// withholds the password (spec §4.8: passwords never leak to browsers).
func (m *Match) NewMatchPacket() []byte {
	w := wire.NewWriter(256)
	m.Encode(w, false)
	return wire.BuildPacket(opcode.ChoNewMatch, w.Bytes())
}

// DisposeMatchPacket tells lobby browsers the match with this id is gone.
func DisposeMatchPacket(id int) []byte {
	w := wire.NewWriter(4)
	w.I32(int32(id))
	return wire.BuildPacket(opcode.ChoDisposeMatch, w.Bytes())
}

// EnqueueState rebroadcasts m's current state: the full password to match
// members (via m.Chat), and a password-shape-preserved copy to every user
// in #lobby (matching bancho.py's dual update_match fan-out — lobby browsers
// see that a match is passworded without ever seeing the password itself).
func (m *Match) EnqueueState(lobby *channel.Channel) {
	if m.Chat != nil {
		m.Chat.Broadcast(m.buildUpdatePacket(true), 0)
	}
	if lobby != nil {
		lobby.Broadcast(m.buildUpdatePacket(false), 0)
	}
}

// Create allocates a match, seats host in slot 0, and creates its chat
// channel. chReg is the global channel registry the new #multi_<id>
// channel is inserted into.
func Create(reg *Registry, chReg *channel.Registry, name, password string, host *session.User) *Match {
	m := reg.Create(name, password)
	if m == nil {
		return nil
	}

	realName := ChatName(m.ID)
	chat := channel.New(realName, realName, name, 0, false, true)
	chReg.Insert(chat)

	m.mu.Lock()
	m.HostID = host.ID
	m.Slots[0] = Slot{User: host, Status: SlotNotReady}
	m.Chat = chat
	m.mu.Unlock()

	chat.Join(host)
	host.SetMatchID(m.ID)
	return m
}

// Join seats u in the lowest free slot of m. password must match m's
// password unless skipPassword (staff bypass, spec §4.8). New occupants
// of a TeamVs-variant match start on RED.
func Join(m *Match, u *session.User, password string, skipPassword bool) error {
	m.mu.Lock()
	if !skipPassword && m.Password != "" && password != m.Password {
		m.mu.Unlock()
		return ErrBadPassword
	}
	idx := -1
	for i, s := range m.Slots {
		if s.Status == SlotOpen {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return ErrMatchFull
	}
	team := TeamNeutral
	if m.TeamType == TeamVs || m.TeamType == TagTeamVs {
		team = TeamRed
	}
	m.Slots[idx] = Slot{User: u, Status: SlotNotReady, Team: team}
	m.mu.Unlock()

	m.Chat.Join(u)
	u.SetMatchID(m.ID)
	return nil
}

// Leave removes u from m, freeing its slot to OPEN. If m becomes empty it
// is disposed (registry slot freed, chat channel removed) and disposed is
// true.
// Otherwise, if u was host, host transfers to the next occupied slot and
// newHost is that user so the caller can send match_transfer_host.
func Leave(m *Match, reg *Registry, chReg *channel.Registry, u *session.User) (disposed bool, newHost *session.User) {
	m.mu.Lock()
	wasHost := m.HostID == u.ID
	for i, s := range m.Slots {
		if s.Status.HasUser() && s.User.ID == u.ID {
			m.Slots[i] = Slot{Status: SlotOpen}
			break
		}
	}
	empty := true
	for _, s := range m.Slots {
		if s.Status.HasUser() {
			empty = false
			if wasHost && newHost == nil {
				newHost = s.User
			}
		}
	}
	if newHost != nil {
		m.HostID = newHost.ID
	}
	chat := m.Chat
	m.mu.Unlock()

	if chat != nil {
		chat.Leave(u)
	}
	u.SetMatchID(-1)

	if empty {
		reg.Dispose(m.ID)
		if chat != nil {
			chReg.Remove(chat.RealName)
		}
		return true, nil
	}
	return false, newHost
}
