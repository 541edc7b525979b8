package match

import "bancho/internal/wire"

// Encode writes the match-serialization wire format from spec §4.1. When
// sendPW is false the password's length-prefix shape is preserved (0x0b
// 0x00) but its bytes are withheld, so a tourney-observer decode never
// leaks the password while still round-tripping every other field.
func (m *Match) Encode(w *wire.Writer, sendPW bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w.U16(uint16(m.ID))
	w.I8(boolToI8(m.InProgress))
	w.I8(0) // reserved
	w.I32(int32(m.Mods))
	w.String(m.Name)

	switch {
	case m.Password == "":
		w.String("")
	case sendPW:
		w.String(m.Password)
	default:
		w.U8(0x0b).U8(0x00)
	}

	w.String(m.MapName)
	w.I32(m.MapID)
	w.String(m.MapMD5)

	for _, s := range m.Slots {
		w.I8(int8(s.Status))
	}
	for _, s := range m.Slots {
		w.I8(int8(s.Team))
	}
	for _, s := range m.Slots {
		if s.Status.HasUser() {
			w.I32(s.User.ID)
		}
	}

	w.I32(m.HostID)
	w.I8(int8(m.Mode))
	w.I8(int8(m.WinCondition))
	w.I8(int8(m.TeamType))
	w.I8(boolToI8(m.Freemod))

	if m.Freemod {
		for _, s := range m.Slots {
			w.I32(int32(s.Mods))
		}
	}

	w.I32(m.Seed)
}

// Decoded holds the fields of the match-serialization format produced by
// Encode, as read back by Decode. Slot users are carried by id only
// (SlotUserIDs); resolving those ids to *session.User instances is the
// caller's job since Decode has no registry to look them up in.
type Decoded struct {
	ID           int
	InProgress   bool
	Mods         uint32
	Name         string
	Password     string
	MapName      string
	MapID        int32
	MapMD5       string
	SlotStatus   [NumSlots]SlotStatus
	SlotTeam     [NumSlots]Team
	SlotUserIDs  [NumSlots]int32 // 0 when the slot has no user
	HostID       int32
	Mode         Mode
	WinCondition WinCondition
	TeamType     TeamType
	Freemod      bool
	SlotMods     [NumSlots]uint32
	Seed         int32
}

// Decode reverses Encode.
func Decode(r *wire.Reader) (Decoded, error) {
	var d Decoded

	id, err := r.U16()
	if err != nil {
		return d, err
	}
	d.ID = int(id)

	inProgress, err := r.I8()
	if err != nil {
		return d, err
	}
	d.InProgress = inProgress != 0

	if _, err := r.I8(); err != nil { // reserved
		return d, err
	}

	mods, err := r.I32()
	if err != nil {
		return d, err
	}
	d.Mods = uint32(mods)

	if d.Name, err = r.String(); err != nil {
		return d, err
	}
	if d.Password, err = r.String(); err != nil {
		return d, err
	}
	if d.MapName, err = r.String(); err != nil {
		return d, err
	}
	if d.MapID, err = r.I32(); err != nil {
		return d, err
	}
	if d.MapMD5, err = r.String(); err != nil {
		return d, err
	}

	for i := 0; i < NumSlots; i++ {
		v, err := r.I8()
		if err != nil {
			return d, err
		}
		d.SlotStatus[i] = SlotStatus(v)
	}
	for i := 0; i < NumSlots; i++ {
		v, err := r.I8()
		if err != nil {
			return d, err
		}
		d.SlotTeam[i] = Team(v)
	}
	for i := 0; i < NumSlots; i++ {
		if !d.SlotStatus[i].HasUser() {
			continue
		}
		v, err := r.I32()
		if err != nil {
			return d, err
		}
		d.SlotUserIDs[i] = v
	}

	if d.HostID, err = r.I32(); err != nil {
		return d, err
	}
	mode, err := r.I8()
	if err != nil {
		return d, err
	}
	d.Mode = Mode(mode)
	wc, err := r.I8()
	if err != nil {
		return d, err
	}
	d.WinCondition = WinCondition(wc)
	tt, err := r.I8()
	if err != nil {
		return d, err
	}
	d.TeamType = TeamType(tt)
	freemod, err := r.I8()
	if err != nil {
		return d, err
	}
	d.Freemod = freemod != 0

	if d.Freemod {
		for i := 0; i < NumSlots; i++ {
			v, err := r.I32()
			if err != nil {
				return d, err
			}
			d.SlotMods[i] = uint32(v)
		}
	}

	if d.Seed, err = r.I32(); err != nil {
		return d, err
	}

	return d, nil
}

func boolToI8(b bool) int8 {
	if b {
		return 1
	}
	return 0
}
