package match

import (
	"fmt"

	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

// ChangeSlot moves u from its current slot into dst, provided dst is OPEN
// (spec §4.8 "slot change").
func ChangeSlot(m *Match, u *session.User, dst int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dst < 0 || dst >= NumSlots || m.Slots[dst].Status != SlotOpen {
		return false
	}
	src := -1
	for i, s := range m.Slots {
		if s.Status.HasUser() && s.User.ID == u.ID {
			src = i
			break
		}
	}
	if src < 0 {
		return false
	}
	m.Slots[dst] = m.Slots[src]
	m.Slots[src] = Slot{Status: SlotOpen}
	return true
}

// ToggleLock flips slot idx between LOCKED and OPEN. Never affects the
// slot holding the host. Locking an occupied non-host slot evicts its
// occupant back to OPEN-then-LOCKED and reports them as evicted so the
// caller can send them back to the lobby (spec §8 scenario: locking a
// slot out from under a seated player).
func ToggleLock(m *Match, idx int) (evicted *session.User, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx < 0 || idx >= NumSlots {
		return nil, false
	}
	s := &m.Slots[idx]
	if s.Status.HasUser() && s.User.ID == m.HostID {
		return nil, false
	}
	switch {
	case s.Status == SlotOpen:
		s.Status = SlotLocked
	case s.Status == SlotLocked:
		s.Status = SlotOpen
	case s.Status.HasUser():
		evicted = s.User
		*s = Slot{Status: SlotLocked}
	default:
		return nil, false
	}
	return evicted, true
}

// TransferHost makes the user seated at idx the new host. idx's slot must
// be occupied.
func TransferHost(m *Match, idx int) (*session.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx < 0 || idx >= NumSlots || !m.Slots[idx].Status.HasUser() {
		return nil, false
	}
	newHost := m.Slots[idx].User
	m.HostID = newHost.ID
	return newHost, true
}

// TransferHostPacket builds the match_transfer_host notice sent to the new host.
func TransferHostPacket() []byte {
	return wire.BuildPacket(opcode.ChoMatchTransferHost, nil)
}

// ChangeTeam toggles u's team between BLUE and RED; NEUTRAL slots are
// unaffected (spec §4.8).
func ChangeTeam(m *Match, u *session.User) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.Slots {
		if s.Status.HasUser() && s.User.ID == u.ID {
			switch s.Team {
			case TeamBlue:
				m.Slots[i].Team = TeamRed
			case TeamRed:
				m.Slots[i].Team = TeamBlue
			}
			return true
		}
	}
	return false
}

// InvitePacket builds a match_invite notice carrying the osump:// embed
// that lets the target's client join directly (spec §4.8).
func InvitePacket(from *session.User, targetName string, matchID int, password string) []byte {
	embed := fmt.Sprintf("osump://%d/%s", matchID, password)
	w := wire.NewWriter(64 + len(embed))
	w.String(from.Name)
	w.String(embed)
	w.String(targetName)
	w.I32(from.ID)
	return wire.BuildPacket(opcode.ChoMatchInvite, w.Bytes())
}
