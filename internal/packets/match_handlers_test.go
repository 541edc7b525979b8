package packets

import (
	"context"
	"testing"
	"time"

	"bancho/internal/channel"
	"bancho/internal/match"
	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/wire"
)

func createMatchPayload(name, password string) []byte {
	m := match.NewMatch(0, name, password)
	w := wire.NewWriter(256)
	m.Encode(w, true)
	return w.Bytes()
}

// TestMatchLifecycleEndToEnd exercises create -> join -> ready -> start ->
// score-update -> complete through Dispatch's actual handlers. This is a
// regression test for the slot-ready/match-start/score-update paths that
// previously locked the match mutex twice on the same goroutine.
func TestMatchLifecycleEndToEnd(t *testing.T) {
	d := &Deps{
		Users:    session.NewRegistry(),
		Channels: channel.NewRegistry(),
		Matches:  match.NewRegistry(),
		BotID:    3,
		BotName:  "BanchoBot",
	}
	lobby := channel.New("#lobby", "#lobby", "multiplayer lobby", 0, true, false)
	d.Channels.Insert(lobby)

	host := session.NewUser(1, "host", "host")
	guest := session.NewUser(2, "guest", "guest")
	d.Users.Insert(host)
	d.Users.Insert(guest)

	ctx := context.Background()

	if err := handleCreateMatch(ctx, d, host, createMatchPayload("my match", "")); err != nil {
		t.Fatalf("handleCreateMatch: %v", err)
	}
	if host.MatchID() < 0 {
		t.Fatal("expected host to be seated in a match")
	}
	m := d.Matches.Get(host.MatchID())
	if m == nil {
		t.Fatal("expected the created match to exist in the registry")
	}

	joinPayload := func(id int, password string) []byte {
		w := wire.NewWriter(8 + len(password))
		w.I32(int32(id))
		w.String(password)
		return w.Bytes()
	}
	if err := handleJoinMatch(ctx, d, guest, joinPayload(m.ID, "")); err != nil {
		t.Fatalf("handleJoinMatch: %v", err)
	}
	if guest.MatchID() != m.ID {
		t.Fatalf("expected guest to join match %d, got %d", m.ID, guest.MatchID())
	}

	if err := handleMatchReady(ctx, d, host, nil); err != nil {
		t.Fatalf("handleMatchReady: %v", err)
	}
	if err := handleMatchReady(ctx, d, guest, nil); err != nil {
		t.Fatalf("handleMatchReady: %v", err)
	}
	if idx := m.SlotOf(host); m.Slots[idx].Status != match.SlotReady {
		t.Errorf("expected host slot READY, got %v", m.Slots[idx].Status)
	}

	if err := handleMatchStart(ctx, d, host, nil); err != nil {
		t.Fatalf("handleMatchStart: %v", err)
	}
	if !m.InProgress {
		t.Error("expected match to be InProgress after start")
	}

	scorePayload := make([]byte, 20)
	if err := handleMatchScoreUpdate(ctx, d, host, scorePayload); err != nil {
		t.Fatalf("handleMatchScoreUpdate: %v", err)
	}

	if err := handleMatchComplete(ctx, d, host, nil); err != nil {
		t.Fatalf("handleMatchComplete: %v", err)
	}
	if err := handleMatchComplete(ctx, d, guest, nil); err != nil {
		t.Fatalf("handleMatchComplete: %v", err)
	}
	if m.InProgress {
		t.Error("expected match to end once every playing slot has completed")
	}
}

func joinMatchPayload(id int, password string) []byte {
	w := wire.NewWriter(8 + len(password))
	w.I32(int32(id))
	w.String(password)
	return w.Bytes()
}

// TestHandlePartMatchTransfersHost covers the leave-as-host path: the
// remaining player must receive match_transfer_host followed by an
// update_match whose host id is theirs.
func TestHandlePartMatchTransfersHost(t *testing.T) {
	d := &Deps{
		Users:    session.NewRegistry(),
		Channels: channel.NewRegistry(),
		Matches:  match.NewRegistry(),
	}
	lobby := channel.New("#lobby", "#lobby", "multiplayer lobby", 0, true, false)
	d.Channels.Insert(lobby)

	a := session.NewUser(1, "a", "a")
	b := session.NewUser(2, "b", "b")
	d.Users.Insert(a)
	d.Users.Insert(b)

	ctx := context.Background()
	if err := handleCreateMatch(ctx, d, a, createMatchPayload("m", "")); err != nil {
		t.Fatalf("handleCreateMatch: %v", err)
	}
	m := d.Matches.Get(a.MatchID())
	if err := handleJoinMatch(ctx, d, b, joinMatchPayload(m.ID, "")); err != nil {
		t.Fatalf("handleJoinMatch: %v", err)
	}
	b.Drain()

	if err := handlePartMatch(ctx, d, a, nil); err != nil {
		t.Fatalf("handlePartMatch: %v", err)
	}
	if !m.IsHost(b.ID) {
		t.Fatalf("expected host to transfer to b, got HostID=%d", m.HostID)
	}

	got := b.Drain()
	frames, err := wire.ReadFrames(got)
	if err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	sawTransfer, sawUpdate := false, false
	for _, f := range frames {
		switch f.PacketID {
		case opcode.ChoMatchTransferHost:
			sawTransfer = true
		case opcode.ChoUpdateMatch:
			decoded, err := match.Decode(wire.NewReader(f.Payload))
			if err != nil {
				t.Fatalf("decode update_match: %v", err)
			}
			if decoded.HostID == b.ID {
				sawUpdate = true
			}
		}
	}
	if !sawTransfer {
		t.Error("expected b to receive match_transfer_host")
	}
	if !sawUpdate {
		t.Error("expected b to receive update_match carrying its own id as host")
	}
}

// TestHandleJoinMatchRefusals covers the join guards: silenced senders and
// users already seated in a match both get match_join_fail.
func TestHandleJoinMatchRefusals(t *testing.T) {
	d := &Deps{
		Users:    session.NewRegistry(),
		Channels: channel.NewRegistry(),
		Matches:  match.NewRegistry(),
	}
	host := session.NewUser(1, "host", "host")
	d.Users.Insert(host)
	if err := handleCreateMatch(context.Background(), d, host, createMatchPayload("m", "")); err != nil {
		t.Fatalf("handleCreateMatch: %v", err)
	}
	m := d.Matches.Get(host.MatchID())

	silenced := session.NewUser(2, "quiet", "quiet")
	silenced.Silence(time.Minute)
	d.Users.Insert(silenced)
	if err := handleJoinMatch(context.Background(), d, silenced, joinMatchPayload(m.ID, "")); err != nil {
		t.Fatalf("handleJoinMatch: %v", err)
	}
	if silenced.MatchID() >= 0 {
		t.Error("expected a silenced user's join to be refused")
	}
	if len(silenced.Drain()) == 0 {
		t.Error("expected a match_join_fail to be enqueued to the silenced user")
	}

	if err := handleJoinMatch(context.Background(), d, host, joinMatchPayload(m.ID, "")); err != nil {
		t.Fatalf("handleJoinMatch: %v", err)
	}
	if m.SlotOf(host) != 0 {
		t.Error("expected an already-seated user's second join to change nothing")
	}
}

func TestHandlePartMatchDisposesEmptyMatch(t *testing.T) {
	d := &Deps{
		Users:    session.NewRegistry(),
		Channels: channel.NewRegistry(),
		Matches:  match.NewRegistry(),
	}
	lobby := channel.New("#lobby", "#lobby", "multiplayer lobby", 0, true, false)
	d.Channels.Insert(lobby)

	host := session.NewUser(1, "host", "host")
	d.Users.Insert(host)

	if err := handleCreateMatch(context.Background(), d, host, createMatchPayload("m", "")); err != nil {
		t.Fatalf("handleCreateMatch: %v", err)
	}
	matchID := host.MatchID()

	if err := handlePartMatch(context.Background(), d, host, nil); err != nil {
		t.Fatalf("handlePartMatch: %v", err)
	}
	if d.Matches.Get(matchID) != nil {
		t.Error("expected the match to be disposed once its only occupant parts")
	}
}
