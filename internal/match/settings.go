package match

import (
	"fmt"

	"bancho/internal/opcode"
	"bancho/internal/wire"
)

// speedMods is the subset of the mods bitfield that affects playback speed
// (double time / half time / nightcore family) and therefore stays on the
// match rather than becoming per-slot when freemod is enabled.
const speedMods uint32 = 1<<6 | 1<<8 | 1<<9 // DT | HT | NC

// SetFreemod toggles freemod on m, redistributing mods per spec §4.8:
// enabling splits the current match mods into the speed portion (kept on
// the match) and the rest (kept on the host's own slot, since it was the
// host's choice before the split), clearing every other occupied slot;
// disabling merges the host's slot mods back into the match mods and
// clears every slot.
func SetFreemod(m *Match, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on == m.Freemod {
		return
	}
	if on {
		kept := m.Mods & speedMods
		nonSpeed := m.Mods &^ speedMods
		for i := range m.Slots {
			if !m.Slots[i].Status.HasUser() {
				continue
			}
			if m.Slots[i].User.ID == m.HostID {
				m.Slots[i].Mods = nonSpeed
			} else {
				m.Slots[i].Mods = 0
			}
		}
		m.Mods = kept
	} else {
		var hostMods uint32
		for _, s := range m.Slots {
			if s.Status.HasUser() && s.User.ID == m.HostID {
				hostMods = s.Mods
				break
			}
		}
		m.Mods |= hostMods
		for i := range m.Slots {
			m.Slots[i].Mods = 0
		}
	}
	m.Freemod = on
}

// SetMods applies a mods change from sender at slot senderIdx, observing
// spec §4.8: in freemod, host sets match speed-mods and any player sets
// their own non-speed mods; outside freemod, only host may set match mods.
func SetMods(m *Match, senderIdx int, mods uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if senderIdx < 0 || senderIdx >= NumSlots || !m.Slots[senderIdx].Status.HasUser() {
		return false
	}
	isHost := m.Slots[senderIdx].User.ID == m.HostID
	if !m.Freemod {
		if !isHost {
			return false
		}
		m.Mods = mods
		return true
	}
	if isHost {
		m.Mods = (m.Mods &^ speedMods) | (mods & speedMods)
	}
	m.Slots[senderIdx].Mods = mods &^ speedMods
	return true
}

// mapEmbed builds the chat-channel notice announcing a map change.
func mapEmbed(name string, mapID int32) []byte {
	content := fmt.Sprintf("Selected: [https://osu.ppy.sh/b/%d %s]", mapID, name)
	w := wire.NewWriter(64 + len(content))
	wire.EncodeMessage(w, wire.Message{Sender: "BanchoBot", Content: content, Recipient: "#multiplayer", SenderID: 0})
	return wire.BuildPacket(opcode.ChoSendMessage, w.Bytes())
}

// SetMap changes the match beatmap. mapID of -1 clears the map and resets
// every READY slot to NOT_READY, remembering LastMapID. A new mapID updates
// the (id, md5, name, mode) triple and, when it differs from LastMapID,
// posts a map-change embed to the match chat (spec §4.8).
func SetMap(m *Match, mapID int32, md5, name string, mode Mode) {
	m.mu.Lock()
	if mapID == -1 {
		m.LastMapID = m.MapID
		m.MapID, m.MapMD5, m.MapName = -1, "", ""
		for i := range m.Slots {
			if m.Slots[i].Status == SlotReady {
				m.Slots[i].Status = SlotNotReady
			}
		}
		m.mu.Unlock()
		return
	}
	changed := mapID != m.LastMapID
	m.LastMapID = m.MapID
	m.MapID, m.MapMD5, m.MapName, m.Mode = mapID, md5, name, mode
	chat := m.Chat
	m.mu.Unlock()

	if changed && chat != nil {
		chat.Broadcast(mapEmbed(name, mapID), 0)
	}
}

// SetTeamType changes m's team type, reassigning every occupied slot's
// team per spec §4.8 (HEAD_TO_HEAD/TAG_COOP -> NEUTRAL, else -> RED).
func SetTeamType(m *Match, tt TeamType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TeamType = tt
	team := TeamNeutral
	if tt == TeamVs || tt == TagTeamVs {
		team = TeamRed
	}
	for i := range m.Slots {
		if m.Slots[i].Status.HasUser() {
			m.Slots[i].Team = team
		}
	}
}

// SetWinCondition assigns m's scoring rule directly.
func SetWinCondition(m *Match, wc WinCondition) {
	m.mu.Lock()
	m.WinCondition = wc
	m.mu.Unlock()
}

// SetName assigns m's display name directly.
func SetName(m *Match, name string) {
	m.mu.Lock()
	m.Name = name
	m.mu.Unlock()
}
