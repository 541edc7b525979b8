package packets

import (
	"context"

	"bancho/internal/match"
	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

func registerMatchHandlers(r *Router) {
	r.register(opcode.OsuCreateMatch, false, handleCreateMatch)
	r.register(opcode.OsuJoinMatch, false, handleJoinMatch)
	r.register(opcode.OsuPartMatch, false, handlePartMatch)
	r.register(opcode.OsuMatchChangeSlot, false, handleMatchChangeSlot)
	r.register(opcode.OsuMatchReady, false, handleMatchReady)
	r.register(opcode.OsuMatchNotReady, false, handleMatchNotReady)
	r.register(opcode.OsuMatchLock, false, handleMatchLock)
	r.register(opcode.OsuMatchChangeSettings, false, handleMatchChangeSettings)
	r.register(opcode.OsuMatchStart, false, handleMatchStart)
	r.register(opcode.OsuMatchScoreUpdate, false, handleMatchScoreUpdate)
	r.register(opcode.OsuMatchComplete, false, handleMatchComplete)
	r.register(opcode.OsuMatchChangeMods, false, handleMatchChangeMods)
	r.register(opcode.OsuMatchLoadComplete, false, handleMatchLoadComplete)
	r.register(opcode.OsuMatchNoBeatmap, false, handleMatchNoBeatmap)
	r.register(opcode.OsuMatchHasBeatmap, false, handleMatchHasBeatmap)
	r.register(opcode.OsuMatchFailed, false, handleMatchFailed)
	r.register(opcode.OsuMatchSkipRequest, false, handleMatchSkip)
	r.register(opcode.OsuMatchTransferHost, false, handleMatchTransferHost)
	r.register(opcode.OsuMatchChangeTeam, false, handleMatchChangeTeam)
	r.register(opcode.OsuMatchChangePassword, false, handleMatchChangePassword)
	r.register(opcode.OsuMatchInvite, false, handleMatchInvite)
	r.register(opcode.OsuTournamentMatchInfoReq, false, handleTourneyMatchInfo)
	r.register(opcode.OsuTournamentJoinMatchChan, false, handleTourneyJoinChannel)
	r.register(opcode.OsuTournamentLeaveMatchChan, false, handleTourneyLeaveChannel)
}

func isStaff(u *session.User) bool {
	return u.Privileges.Any(session.PrivilegeAdmin | session.PrivilegeDeveloper | session.PrivilegeOwner)
}

func matchOf(d *Deps, u *session.User) *match.Match {
	id := u.MatchID()
	if id < 0 {
		return nil
	}
	return d.Matches.Get(id)
}

func joinSuccessPacket(m *match.Match) []byte {
	w := wire.NewWriter(256)
	m.Encode(w, true)
	return wire.BuildPacket(opcode.ChoMatchJoinSuccess, w.Bytes())
}

func joinFailPacket() []byte {
	return wire.BuildPacket(opcode.ChoMatchJoinFail, nil)
}

// leaveLobbyChannel drops u out of #lobby when it takes a match seat
// (spec §4.8: join success leaves #lobby if joined).
func leaveLobbyChannel(d *Deps, u *session.User) {
	if ch, ok := d.Channels.Get("#lobby"); ok {
		ch.Leave(u)
	}
}

// handleCreateMatch implements spec §4.8's create_match: decode the
// client's proposed match state, allocate a slot in the global registry,
// seat the sender as host, and broadcast new_match to the lobby. Silenced
// users may not create matches (spec §4.3).
func handleCreateMatch(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	decoded, err := match.Decode(r)
	if err != nil {
		return err
	}

	if u.Silenced() || u.MatchID() >= 0 {
		u.Enqueue(joinFailPacket())
		return nil
	}

	m := match.Create(d.Matches, d.Channels, decoded.Name, decoded.Password, u)
	if m == nil {
		u.Enqueue(joinFailPacket())
		return nil
	}
	m.Lock()
	m.MapID = decoded.MapID
	m.MapMD5 = decoded.MapMD5
	m.MapName = decoded.MapName
	m.Mode = decoded.Mode
	m.Seed = decoded.Seed
	m.Unlock()

	leaveLobbyChannel(d, u)
	u.Enqueue(joinSuccessPacket(m))

	if lobby, ok := d.Channels.Get("#lobby"); ok {
		lobby.Broadcast(m.NewMatchPacket(), u.ID)
	}
	return nil
}

func handleJoinMatch(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	id, err := r.I32()
	if err != nil {
		return err
	}
	password, err := r.String()
	if err != nil {
		return err
	}

	m := d.Matches.Get(int(id))
	if m == nil || u.Silenced() || u.MatchID() >= 0 || m.IsTourneyClient(u.ID) {
		u.Enqueue(joinFailPacket())
		return nil
	}
	if err := match.Join(m, u, password, isStaff(u)); err != nil {
		u.Enqueue(joinFailPacket())
		return nil
	}

	leaveLobbyChannel(d, u)
	u.Enqueue(joinSuccessPacket(m))
	broadcastMatchState(d, m)
	return nil
}

func handlePartMatch(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	m := matchOf(d, u)
	if m == nil {
		return nil
	}
	disposed, newHost := match.Leave(m, d.Matches, d.Channels, u)
	if disposed {
		if lobby, ok := d.Channels.Get("#lobby"); ok {
			lobby.Broadcast(match.DisposeMatchPacket(m.ID), 0)
		}
		return nil
	}
	if newHost != nil {
		newHost.Enqueue(match.TransferHostPacket())
	}
	broadcastMatchState(d, m)
	return nil
}

func handleMatchChangeSlot(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	m := matchOf(d, u)
	if m == nil {
		return nil
	}
	r := wire.NewReader(payload)
	dst, err := r.I32()
	if err != nil {
		return err
	}
	if match.ChangeSlot(m, u, int(dst)) {
		broadcastMatchState(d, m)
	}
	return nil
}

func handleMatchReady(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	setSlotReady(d, u, true)
	return nil
}

func handleMatchNotReady(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	setSlotReady(d, u, false)
	return nil
}

func setSlotReady(d *Deps, u *session.User, ready bool) {
	m := matchOf(d, u)
	if m == nil {
		return
	}
	idx := m.SlotOf(u)
	if idx < 0 {
		return
	}
	m.Lock()
	if ready {
		m.Slots[idx].Status = match.SlotReady
	} else {
		m.Slots[idx].Status = match.SlotNotReady
	}
	m.Unlock()
	broadcastMatchState(d, m)
}

func handleMatchLock(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	m := matchOf(d, u)
	if m == nil || !m.IsHost(u.ID) {
		return nil
	}
	r := wire.NewReader(payload)
	idx, err := r.I32()
	if err != nil {
		return err
	}
	evicted, ok := match.ToggleLock(m, int(idx))
	if !ok {
		return nil
	}
	if evicted != nil {
		m.Chat.Leave(evicted)
		evicted.SetMatchID(-1)
		evicted.Enqueue(joinFailPacket())
	}
	broadcastMatchState(d, m)
	return nil
}

func handleMatchChangeSettings(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	m := matchOf(d, u)
	if m == nil || !m.IsHost(u.ID) {
		return nil
	}
	r := wire.NewReader(payload)
	decoded, err := match.Decode(r)
	if err != nil {
		return err
	}
	match.SetName(m, decoded.Name)
	match.SetTeamType(m, decoded.TeamType)
	match.SetWinCondition(m, decoded.WinCondition)
	match.SetFreemod(m, decoded.Freemod)
	match.SetMap(m, decoded.MapID, decoded.MapMD5, decoded.MapName, decoded.Mode)
	broadcastMatchState(d, m)
	return nil
}

func handleMatchStart(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	m := matchOf(d, u)
	if m == nil || !m.IsHost(u.ID) {
		return nil
	}
	match.Start(m)
	broadcastMatchState(d, m)
	return nil
}

func handleMatchScoreUpdate(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	m := matchOf(d, u)
	if m == nil {
		return nil
	}
	idx := m.SlotOf(u)
	if idx < 0 {
		return nil
	}
	packet := match.ScoreUpdate(m, payload, idx)
	m.Chat.Broadcast(packet, 0)
	return nil
}

func handleMatchComplete(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	m := matchOf(d, u)
	if m == nil {
		return nil
	}
	if match.Completion(m, u) {
		broadcastMatchState(d, m)
	}
	return nil
}

func handleMatchChangeMods(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	m := matchOf(d, u)
	if m == nil {
		return nil
	}
	r := wire.NewReader(payload)
	mods, err := r.U32()
	if err != nil {
		return err
	}
	idx := m.SlotOf(u)
	if idx < 0 {
		return nil
	}
	if match.SetMods(m, idx, mods) {
		broadcastMatchState(d, m)
	}
	return nil
}

func handleMatchLoadComplete(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	if m := matchOf(d, u); m != nil {
		match.LoadComplete(m, u)
	}
	return nil
}

func handleMatchNoBeatmap(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	if m := matchOf(d, u); m != nil {
		match.NoBeatmap(m, u)
	}
	return nil
}

func handleMatchHasBeatmap(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	if m := matchOf(d, u); m != nil {
		match.HasBeatmap(m, u)
	}
	return nil
}

func handleMatchFailed(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	if m := matchOf(d, u); m != nil {
		match.Failure(m, u)
	}
	return nil
}

func handleMatchSkip(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	if m := matchOf(d, u); m != nil {
		match.Skip(m, u)
	}
	return nil
}

func handleMatchTransferHost(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	m := matchOf(d, u)
	if m == nil || !m.IsHost(u.ID) {
		return nil
	}
	r := wire.NewReader(payload)
	idx, err := r.I32()
	if err != nil {
		return err
	}
	if newHost, ok := match.TransferHost(m, int(idx)); ok {
		newHost.Enqueue(match.TransferHostPacket())
		broadcastMatchState(d, m)
	}
	return nil
}

func handleMatchChangeTeam(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	m := matchOf(d, u)
	if m == nil {
		return nil
	}
	if match.ChangeTeam(m, u) {
		broadcastMatchState(d, m)
	}
	return nil
}

func handleMatchChangePassword(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	m := matchOf(d, u)
	if m == nil || !m.IsHost(u.ID) {
		return nil
	}
	r := wire.NewReader(payload)
	decoded, err := match.Decode(r)
	if err != nil {
		return err
	}
	m.Lock()
	m.Password = decoded.Password
	m.Unlock()
	broadcastMatchState(d, m)
	return nil
}

func handleMatchInvite(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	m := matchOf(d, u)
	if m == nil {
		return nil
	}
	r := wire.NewReader(payload)
	targetID, err := r.I32()
	if err != nil {
		return err
	}
	target, ok := d.Users.ByID(targetID)
	if !ok {
		return nil
	}
	m.RLock()
	password := m.Password
	m.RUnlock()
	target.Enqueue(match.InvitePacket(u, target.Name, m.ID, password))
	return nil
}

// handleTourneyMatchInfo answers a tourney observer's state request with
// an update_match that withholds the password. Ids outside the registry's
// 0..63 range are dropped (spec §8 boundaries).
func handleTourneyMatchInfo(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	id, err := r.I32()
	if err != nil {
		return err
	}
	m := d.Matches.Get(int(id))
	if m == nil || !u.Tourney() {
		return nil
	}
	w := wire.NewWriter(256)
	m.Encode(w, false)
	u.Enqueue(wire.BuildPacket(opcode.ChoUpdateMatch, w.Bytes()))
	return nil
}

func handleTourneyJoinChannel(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	id, err := r.I32()
	if err != nil {
		return err
	}
	m := d.Matches.Get(int(id))
	if m == nil || !u.Tourney() {
		return nil
	}
	m.AddTourneyClient(u.ID)
	if m.Chat != nil && m.Chat.Join(u) {
		u.Enqueue(channelJoinSuccess(m.Chat.Name))
	}
	return nil
}

func handleTourneyLeaveChannel(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	id, err := r.I32()
	if err != nil {
		return err
	}
	m := d.Matches.Get(int(id))
	if m == nil {
		return nil
	}
	m.RemoveTourneyClient(u.ID)
	if m.Chat != nil {
		m.Chat.Leave(u)
	}
	return nil
}

func broadcastMatchState(d *Deps, m *match.Match) {
	if lobby, ok := d.Channels.Get("#lobby"); ok {
		m.EnqueueState(lobby)
	} else {
		m.EnqueueState(nil)
	}
}
