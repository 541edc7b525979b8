package packets

import (
	"context"
	"fmt"
	"strings"

	"bancho/internal/channel"
	"bancho/internal/chatcmd"
	"bancho/internal/login"
	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

var botCommands = chatcmd.NewDefault()

func registerChatHandlers(r *Router) {
	r.register(opcode.OsuSendPublicMessage, false, handlePublicMessage)
	r.register(opcode.OsuSendPrivateMessage, false, handlePrivateMessage)
	r.register(opcode.OsuChannelJoin, true, handleChannelJoin)
	r.register(opcode.OsuChannelPart, true, handleChannelPart)
	r.register(opcode.OsuJoinLobby, false, handleJoinLobby)
	r.register(opcode.OsuPartLobby, false, handlePartLobby)
}

// broadcastChannelInfo pushes an updated member count after a join/part:
// instance channels only to their current members, public channels to
// every user allowed to see them (spec §4.4).
func broadcastChannelInfo(d *Deps, ch *channel.Channel) {
	packet := login.ChannelInfoPacket(ch.Info())
	if ch.Instance {
		ch.Broadcast(packet, 0)
		return
	}
	for _, t := range d.Users.All() {
		if ch.HasPermission(t.Privileges) {
			t.Enqueue(packet)
		}
	}
}

// resolveChannelTarget applies the routing rewrites of spec §4.6:
// #spectator -> #spec_<host_id or self.id>, #multiplayer -> the user's
// current match chat real_name.
func resolveChannelTarget(d *Deps, u *session.User, name string) string {
	switch name {
	case "#spectator":
		if host := u.Spectating(); host != nil {
			return fmt.Sprintf("#spec_%d", host.ID)
		}
		return fmt.Sprintf("#spec_%d", u.ID)
	case "#multiplayer":
		if id := u.MatchID(); id >= 0 {
			if m := d.Matches.Get(id); m != nil {
				return fmt.Sprintf("#multi_%d", m.ID)
			}
		}
		return ""
	default:
		return name
	}
}

// handlePublicMessage implements spec §4.6: discard silently on silence,
// missing channel, non-membership, or lack of permission.
func handlePublicMessage(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	msg, err := wire.DecodeMessage(r)
	if err != nil {
		return err
	}
	if u.Silenced() {
		return nil
	}

	realName := resolveChannelTarget(d, u, msg.Recipient)
	if realName == "" {
		return nil
	}
	ch, ok := d.Channels.Get(realName)
	if !ok || !ch.IsMember(u) {
		return nil
	}

	if strings.EqualFold(msg.Recipient, d.BotName) {
		return nil
	}

	packet := login.SendMessage(wire.Message{
		Sender: u.Name, Content: msg.Content, Recipient: msg.Recipient, SenderID: u.ID,
	})
	ch.Send(packet, u)
	if d.Metrics != nil {
		d.Metrics.ChatMessages.WithLabelValues("public").Inc()
	}

	if strings.HasPrefix(msg.Content, "!") {
		if reply, ok := botCommands.Dispatch(u, msg.Content); ok {
			ch.Broadcast(login.SendMessage(wire.Message{
				Sender: d.BotName, Content: reply, Recipient: msg.Recipient, SenderID: d.BotID,
			}), 0)
		}
	}
	return nil
}

// handlePrivateMessage implements spec §4.3's three-way DM policy plus
// the §4.6 silence precondition, and routes bot DMs to the chat-command
// dispatcher.
func handlePrivateMessage(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	msg, err := wire.DecodeMessage(r)
	if err != nil {
		return err
	}
	if u.Silenced() {
		return nil
	}

	if strings.EqualFold(msg.Recipient, d.BotName) {
		if reply, ok := botCommands.Dispatch(u, msg.Content); ok {
			u.Enqueue(login.SendMessage(wire.Message{
				Sender: d.BotName, Content: reply, Recipient: u.Name, SenderID: d.BotID,
			}))
		}
		return nil
	}

	target, ok := d.Users.ByName(msg.Recipient)
	if !ok {
		return nil
	}
	if target.HasBlocked(u.ID) {
		u.Enqueue(privateMessageBlocked(target.Name))
		return nil
	}
	if target.FriendOnlyDMs() && !target.IsFriend(u.ID) {
		u.Enqueue(privateMessageBlocked(target.Name))
		return nil
	}
	if target.Silenced() {
		u.Enqueue(targetSilenced(target.Name))
		return nil
	}

	target.Enqueue(login.SendMessage(wire.Message{
		Sender: u.Name, Content: msg.Content, Recipient: target.Name, SenderID: u.ID,
	}))
	if d.Metrics != nil {
		d.Metrics.ChatMessages.WithLabelValues("private").Inc()
	}
	return nil
}

func privateMessageBlocked(targetName string) []byte {
	w := wire.NewWriter(32 + len(targetName))
	wire.EncodeMessage(w, wire.Message{Recipient: targetName})
	return wire.BuildPacket(opcode.ChoUserDMBlocked, w.Bytes())
}

func targetSilenced(targetName string) []byte {
	w := wire.NewWriter(32 + len(targetName))
	wire.EncodeMessage(w, wire.Message{Recipient: targetName})
	return wire.BuildPacket(opcode.ChoTargetIsSilenced, w.Bytes())
}

func handleChannelJoin(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	name, err := r.String()
	if err != nil {
		return err
	}
	ch, ok := d.Channels.Get(name)
	if !ok || !ch.HasPermission(u.Privileges) {
		return nil
	}
	if ch.RealName == "#lobby" && !u.InLobby() {
		return nil
	}
	if ch.Join(u) {
		u.Enqueue(channelJoinSuccess(name))
		broadcastChannelInfo(d, ch)
	}
	return nil
}

func handleChannelPart(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	name, err := r.String()
	if err != nil {
		return err
	}
	if ch, ok := d.Channels.Get(name); ok {
		if ch.Leave(u) {
			broadcastChannelInfo(d, ch)
		}
	}
	return nil
}

func channelJoinSuccess(name string) []byte {
	w := wire.NewWriter(16 + len(name))
	w.String(name)
	return wire.BuildPacket(opcode.ChoChannelJoinSuccess, w.Bytes())
}

// handleJoinLobby/handlePartLobby set in_lobby, gating #lobby membership
// per spec §4.4.
func handleJoinLobby(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	u.SetInLobby(true)
	if ch, ok := d.Channels.Get("#lobby"); ok {
		ch.Join(u)
	}
	return nil
}

func handlePartLobby(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	u.SetInLobby(false)
	if ch, ok := d.Channels.Get("#lobby"); ok {
		ch.Leave(u)
	}
	return nil
}
