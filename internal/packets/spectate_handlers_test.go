package packets

import (
	"context"
	"testing"

	"bancho/internal/channel"
	"bancho/internal/match"
	"bancho/internal/session"
	"bancho/internal/wire"
)

func TestHandleStartAndStopSpectating(t *testing.T) {
	d := &Deps{
		Users:    session.NewRegistry(),
		Channels: channel.NewRegistry(),
		Matches:  match.NewRegistry(),
	}
	host := session.NewUser(1, "host", "host")
	spec := session.NewUser(2, "spec", "spec")
	d.Users.Insert(host)
	d.Users.Insert(spec)

	w := wire.NewWriter(4)
	w.I32(host.ID)
	if err := handleStartSpectating(context.Background(), d, spec, w.Bytes()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Spectating() != host {
		t.Fatal("expected spec to be spectating host")
	}

	if err := handleStopSpectating(context.Background(), d, spec, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Spectating() != nil {
		t.Error("expected spec to have stopped spectating")
	}
}
