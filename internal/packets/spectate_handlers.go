package packets

import (
	"context"

	"bancho/internal/opcode"
	"bancho/internal/session"
	"bancho/internal/spectate"
	"bancho/internal/wire"
)

func registerSpectateHandlers(r *Router) {
	r.register(opcode.OsuStartSpectating, false, handleStartSpectating)
	r.register(opcode.OsuStopSpectating, false, handleStopSpectating)
	r.register(opcode.OsuSpectateFrames, false, handleSpectateFrames)
	r.register(opcode.OsuCantSpectate, false, handleCantSpectate)
}

func handleStartSpectating(_ context.Context, d *Deps, u *session.User, payload []byte) error {
	r := wire.NewReader(payload)
	hostID, err := r.I32()
	if err != nil {
		return err
	}
	host, ok := d.Users.ByID(hostID)
	if !ok {
		return nil
	}
	spectate.Start(d.Channels, host, u)
	return nil
}

func handleStopSpectating(_ context.Context, d *Deps, u *session.User, _ []byte) error {
	spectate.Stop(d.Channels, u)
	return nil
}

func handleSpectateFrames(_ context.Context, _ *Deps, u *session.User, payload []byte) error {
	spectate.Frames(u, payload)
	return nil
}

func handleCantSpectate(_ context.Context, _ *Deps, u *session.User, _ []byte) error {
	spectate.CantSpectate(u)
	return nil
}
