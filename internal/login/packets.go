package login

import (
	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

// Packet builders below mirror original_source/app/packets.py's writer
// functions field-for-field; this is the spec's contract for "bit-exact
// across implementations" applied to the login burst's packets, not just
// the packet-id table.

func ProtocolVersion() []byte {
	w := wire.NewWriter(4)
	w.I32(19)
	return wire.BuildPacket(opcode.ChoProtocolVersion, w.Bytes())
}

func UserID(id int32) []byte {
	w := wire.NewWriter(4)
	w.I32(id)
	return wire.BuildPacket(opcode.ChoUserID, w.Bytes())
}

func BanchoPrivileges(p session.BanchoPrivileges) []byte {
	w := wire.NewWriter(4)
	w.I32(int32(p))
	return wire.BuildPacket(opcode.ChoPrivileges, w.Bytes())
}

func ChannelInfoEnd() []byte {
	return wire.BuildPacket(opcode.ChoChannelInfoEnd, nil)
}

func MenuIcon(iconURL, clickURL string) []byte {
	w := wire.NewWriter(64)
	w.String(iconURL + "|" + clickURL)
	return wire.BuildPacket(opcode.ChoMainMenuIcon, w.Bytes())
}

func FriendsList(friends []int32) []byte {
	w := wire.NewWriter(2 + 4*len(friends))
	w.I32List(friends)
	return wire.BuildPacket(opcode.ChoFriendsList, w.Bytes())
}

func SilenceEnd(remaining int32) []byte {
	w := wire.NewWriter(4)
	w.I32(remaining)
	return wire.BuildPacket(opcode.ChoSilenceEnd, w.Bytes())
}

func UserLogout(id int32) []byte {
	w := wire.NewWriter(5)
	w.I32(id)
	w.U8(0)
	return wire.BuildPacket(opcode.ChoUserLogout, w.Bytes())
}

func UserRestricted() []byte {
	return wire.BuildPacket(opcode.ChoAccountRestricted, nil)
}

func VersionUpdateForced() []byte {
	return wire.BuildPacket(opcode.ChoVersionUpdateForced, nil)
}

func RestartServer(ms int32) []byte {
	w := wire.NewWriter(4)
	w.I32(ms)
	return wire.BuildPacket(opcode.ChoRestart, w.Bytes())
}

func Notification(msg string) []byte {
	w := wire.NewWriter(len(msg) + 4)
	w.String(msg)
	return wire.BuildPacket(opcode.ChoNotification, w.Bytes())
}

func SendMessage(msg wire.Message) []byte {
	w := wire.NewWriter(len(msg.Sender) + len(msg.Content) + len(msg.Recipient) + 16)
	wire.EncodeMessage(w, msg)
	return wire.BuildPacket(opcode.ChoSendMessage, w.Bytes())
}

// Presence encodes a CHO_USER_PRESENCE packet for u, grounded on
// packets.py's user_presence: id, name, utc_offset+24, country iso byte,
// bancho_privileges OR'd with (mode << 5), longitude, latitude, global_rank.
func Presence(u *session.User, countryID uint8, bancho session.BanchoPrivileges) []byte {
	status := u.Status()
	w := wire.NewWriter(32 + len(u.Name))
	w.I32(u.ID)
	w.String(u.Name)
	w.U8(uint8(u.UTCOffset + 24))
	w.U8(countryID)
	w.U8(uint8(bancho) | uint8(status.Mode)<<5)
	w.F32(float32(u.Longitude))
	w.F32(float32(u.Latitude))
	w.I32(u.Stats(status.Mode).GlobalRank)
	return wire.BuildPacket(opcode.ChoUserPresence, w.Bytes())
}

// Stats encodes a CHO_USER_STATS packet for u in its current mode,
// grounded on packets.py's user_stats. pp is sent as an i16; when it
// overflows that range packets.py swaps it into the ranked-score slot and
// zeroes pp, so ancient clients that can't parse large pp values at least
// show the number somewhere recognizable. Reproduced here field-for-field.
func Stats(u *session.User) []byte {
	status := u.Status()
	stats := u.Stats(status.Mode)

	rankedScore, pp := stats.RankedScore, stats.PP
	if pp > 0x7fff {
		rankedScore, pp = int64(pp), 0
	}

	w := wire.NewWriter(48 + len(status.InfoText) + len(status.MapMD5))
	w.I32(u.ID)
	w.U8(uint8(status.Action))
	w.String(status.InfoText)
	w.String(status.MapMD5)
	w.I32(int32(status.Mods))
	w.U8(uint8(status.Mode))
	w.I32(status.MapID)
	w.I64(rankedScore)
	w.F32(float32(stats.Accuracy / 100.0))
	w.I32(stats.Playcount)
	w.I64(stats.TotalScore)
	w.I32(stats.GlobalRank)
	w.I16(int16(pp))
	return wire.BuildPacket(opcode.ChoUserStats, w.Bytes())
}
