package match

import (
	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

// emptyPacket builds a packet with no payload beyond the packet id
// (all_players_loaded, match_complete, match_skip) — the client reacts
// purely to the id arriving.
func emptyPacket(id uint16) []byte { return wire.BuildPacket(id, nil) }

// playerPacket carries a single i32 slot/user id payload (match_player_skipped).
func playerPacket(id uint16, value int32) []byte {
	w := wire.NewWriter(4)
	w.I32(value)
	return wire.BuildPacket(id, w.Bytes())
}

// Start transitions every HAS_USER slot to PLAYING except those currently
// NO_MAP, which are collected into the immune set and left untouched. Sends
// match_start (carrying the full match state) to every chat member not in
// the immune set; the caller rebroadcasts state afterwards (spec §4.8).
func Start(m *Match) (immune map[int32]struct{}) {
	m.mu.Lock()
	immune = make(map[int32]struct{})
	for i := range m.Slots {
		s := &m.Slots[i]
		if !s.Status.HasUser() {
			continue
		}
		if s.Status == SlotNoMap {
			immune[s.User.ID] = struct{}{}
			continue
		}
		s.Status = SlotPlaying
		s.Loaded = false
		s.Skipped = false
	}
	m.InProgress = true
	chat := m.Chat
	m.mu.Unlock()

	if chat != nil {
		w := wire.NewWriter(256)
		m.Encode(w, true)
		packet := wire.BuildPacket(opcode.ChoMatchStart, w.Bytes())
		for _, u := range chat.Members() {
			if _, skip := immune[u.ID]; skip {
				continue
			}
			u.Enqueue(packet)
		}
	}
	return immune
}

// LoadComplete marks u's slot loaded, and broadcasts all_players_loaded to
// the match chat once no PLAYING slot remains unloaded.
func LoadComplete(m *Match, u *session.User) {
	m.mu.Lock()
	allLoaded := true
	for i := range m.Slots {
		s := &m.Slots[i]
		if s.Status.HasUser() && s.User.ID == u.ID {
			s.Loaded = true
		}
		if s.Status == SlotPlaying && !s.Loaded {
			allLoaded = false
		}
	}
	chat := m.Chat
	m.mu.Unlock()

	if allLoaded && chat != nil {
		chat.Broadcast(emptyPacket(opcode.ChoAllPlayersLoaded), 0)
	}
}

// ScoreUpdate is the per-tick fast path (spec §4.8): the raw payload is
// rebroadcast behind a standard frame header (packet id, pad, 4-byte
// length), and byte index 11 of the resulting frame — the score frame's
// slot-id byte — is overwritten with senderSlot. This mirrors the
// teacher's readDatagrams sender-id overwrite: the client never gets to
// claim an identity the server didn't assign.
//
// No allocation beyond the 7-byte header; payload bytes are copied once.
func ScoreUpdate(m *Match, payload []byte, senderSlot int) []byte {
	pkt := wire.BuildPacket(opcode.ChoMatchScoreUpdate, payload)
	if len(pkt) > 11 {
		pkt[11] = byte(senderSlot)
	}
	return pkt
}

// Completion marks u COMPLETE; once no slot remains PLAYING it ends the
// match (in_progress = false), resets every COMPLETE slot to NOT_READY,
// and broadcasts match_complete to everyone who was playing. Returns true
// when the match ended so the caller can rebroadcast state (spec §4.8).
func Completion(m *Match, u *session.User) (ended bool) {
	m.mu.Lock()
	for i := range m.Slots {
		s := &m.Slots[i]
		if s.Status.HasUser() && s.User.ID == u.ID {
			s.Status = SlotComplete
		}
	}
	stillPlaying := false
	for _, s := range m.Slots {
		if s.Status == SlotPlaying {
			stillPlaying = true
			break
		}
	}
	var completers []*session.User
	if !stillPlaying {
		m.InProgress = false
		for i := range m.Slots {
			if m.Slots[i].Status == SlotComplete {
				completers = append(completers, m.Slots[i].User)
				m.Slots[i].Status = SlotNotReady
			}
		}
	}
	chat := m.Chat
	m.mu.Unlock()

	if !stillPlaying && chat != nil {
		packet := emptyPacket(opcode.ChoMatchComplete)
		for _, u := range completers {
			u.Enqueue(packet)
		}
	}
	return !stillPlaying
}

// Failure leaves the slot holding u unchanged and only announces the fail;
// NoBeatmap, HasBeatmap, and NotReady each transition that single slot.
// All four rebroadcast to the match chat only, per spec §4.8.

// Failure announces u's fail to the match; match_player_failed carries
// the failing player's slot id on the wire.
func Failure(m *Match, u *session.User) {
	m.mu.RLock()
	slotIdx := -1
	for i, s := range m.Slots {
		if s.Status.HasUser() && s.User.ID == u.ID {
			slotIdx = i
			break
		}
	}
	chat := m.Chat
	m.mu.RUnlock()
	if slotIdx >= 0 && chat != nil {
		chat.Broadcast(playerPacket(opcode.ChoMatchPlayerFailed, int32(slotIdx)), 0)
	}
}

func NoBeatmap(m *Match, u *session.User) {
	setSlotStatus(m, u, SlotNoMap)
}

func HasBeatmap(m *Match, u *session.User) {
	setSlotStatus(m, u, SlotNotReady)
}

func NotReady(m *Match, u *session.User) {
	setSlotStatus(m, u, SlotNotReady)
}

func setSlotStatus(m *Match, u *session.User, status SlotStatus) {
	m.mu.Lock()
	for i := range m.Slots {
		if m.Slots[i].Status.HasUser() && m.Slots[i].User.ID == u.ID {
			m.Slots[i].Status = status
			break
		}
	}
	chat := m.Chat
	m.mu.Unlock()
	if chat != nil {
		chat.Broadcast(m.buildUpdatePacket(true), 0)
	}
}

// Skip marks u's slot skipped, broadcasts match_player_skipped (carrying
// the skipping player's user id) to the match chat, and broadcasts
// match_skip once every PLAYING slot is skipped (spec §4.8).
func Skip(m *Match, u *session.User) {
	m.mu.Lock()
	slotIdx := -1
	for i := range m.Slots {
		if m.Slots[i].Status.HasUser() && m.Slots[i].User.ID == u.ID {
			m.Slots[i].Skipped = true
			slotIdx = i
			break
		}
	}
	allSkipped := true
	for _, s := range m.Slots {
		if s.Status == SlotPlaying && !s.Skipped {
			allSkipped = false
			break
		}
	}
	chat := m.Chat
	m.mu.Unlock()

	if slotIdx < 0 || chat == nil {
		return
	}
	chat.Broadcast(playerPacket(opcode.ChoMatchPlayerSkipped, u.ID), 0)
	if allSkipped {
		chat.Broadcast(emptyPacket(opcode.ChoMatchSkip), 0)
	}
}
