// Package spectate implements host/fellow spectator coordination and the
// ephemeral #spec_<host_id> channel lifecycle (spec §4.7).
package spectate

import (
	"fmt"
	"log"

	"bancho/internal/channel"
	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

// ChatName returns the real_name of host's spectator channel.
func ChatName(hostID int32) string { return fmt.Sprintf("#spec_%d", hostID) }

func idPacket(id uint16, value int32) []byte {
	w := wire.NewWriter(4)
	w.I32(value)
	return wire.BuildPacket(id, w.Bytes())
}

// Start implements start_spectating: u begins spectating host. If u was
// already spectating a different host, it first leaves that host's set.
// If u is already spectating host, Start returns without changing any state
// or sending any packet; no duplicate-join notifications are sent.
func Start(reg *channel.Registry, host, u *session.User) {
	if prev := u.Spectating(); prev != nil {
		if prev.ID == host.ID {
			return
		}
		Stop(reg, u)
	}

	realName := ChatName(host.ID)
	chat, ok := reg.Get(realName)
	if !ok {
		chat = channel.New(realName, realName, fmt.Sprintf("Spectating %s", host.Name), 0, false, true)
		reg.Insert(chat)
		chat.Join(host)
	}

	existing := host.Spectators()

	if !chat.Join(u) {
		log.Printf("[spectate] %s failed to join %s", u.Name, realName)
	}

	if !u.Stealth() {
		joined := idPacket(opcode.ChoFellowSpectatorJoined, u.ID)
		for _, s := range existing {
			s.Enqueue(joined)
			u.Enqueue(idPacket(opcode.ChoFellowSpectatorJoined, s.ID))
		}
		host.Enqueue(idPacket(opcode.ChoSpectatorJoined, u.ID))
	} else {
		for _, s := range existing {
			u.Enqueue(idPacket(opcode.ChoFellowSpectatorJoined, s.ID))
		}
	}

	host.AddSpectator(u)
	u.SetSpectating(host)
}

// Stop implements stop_spectating: u stops spectating its current host.
func Stop(reg *channel.Registry, u *session.User) {
	host := u.Spectating()
	if host == nil {
		return
	}

	realName := ChatName(host.ID)
	if chat, ok := reg.Get(realName); ok {
		chat.Leave(u)
	}

	host.RemoveSpectator(u)
	u.SetSpectating(nil)

	if !u.Stealth() {
		host.Enqueue(idPacket(opcode.ChoSpectatorLeft, u.ID))
		left := idPacket(opcode.ChoFellowSpectatorLeft, u.ID)
		for _, s := range host.Spectators() {
			s.Enqueue(left)
		}
	}

	if len(host.Spectators()) == 0 {
		reg.Remove(realName)
	}
}

// Frames rebroadcasts a spectate_frames bundle verbatim to every member of
// user's spectator set.
func Frames(user *session.User, frames []byte) {
	w := wire.NewWriter(8 + len(frames))
	w.Raw(frames)
	packet := wire.BuildPacket(opcode.ChoSpectateFrames, w.Bytes())
	for _, s := range user.Spectators() {
		s.Enqueue(packet)
	}
}

// CantSpectate broadcasts cant_spectate(user.id) to the host and fellow
// spectators, unless user is in stealth mode.
func CantSpectate(user *session.User) {
	if user.Stealth() {
		return
	}
	host := user.Spectating()
	if host == nil {
		return
	}
	packet := idPacket(opcode.ChoSpectatorCantSpectate, user.ID)
	host.Enqueue(packet)
	for _, s := range host.Spectators() {
		if s.ID != user.ID {
			s.Enqueue(packet)
		}
	}
}
