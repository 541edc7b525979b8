// Package packets implements the packet-id -> handler dispatch registry
// described in spec §4.2: a full table and a restricted-subset table,
// frame-by-frame decode-then-invoke, with unknown frames skipped by their
// declared length (handled upstream by internal/wire.ReadFrames).
package packets

import (
	"context"
	"log"
	"strconv"

	"bancho/internal/channel"
	"bancho/internal/match"
	"bancho/internal/metrics"
	"bancho/internal/session"
	"bancho/internal/store"
	"bancho/internal/wire"
)

// Deps is the set of collaborators every handler may need. Grounded on
// the teacher's pattern of passing a single shared *Room into every
// per-connection handler (client.go) rather than threading individual
// globals through each call.
type Deps struct {
	Users    *session.Registry
	Channels *channel.Registry
	Matches  *match.Registry
	Store    store.UserStore // nil disables persistence side-effects
	BotID    int32
	BotName  string
	Metrics  *metrics.Metrics
}

// Handler decodes and acts on one frame's payload for the given user.
type Handler func(ctx context.Context, d *Deps, u *session.User, payload []byte) error

// Router holds the full and restricted dispatch tables.
type Router struct {
	full       map[uint16]Handler
	restricted map[uint16]struct{}
}

// NewRouter builds the standard dispatch table (spec §4.2).
func NewRouter() *Router {
	r := &Router{full: make(map[uint16]Handler), restricted: make(map[uint16]struct{})}
	registerSessionHandlers(r)
	registerChatHandlers(r)
	registerSpectateHandlers(r)
	registerMatchHandlers(r)
	return r
}

// register adds handler for id to the full table, and to the restricted
// table too when allowRestricted is set.
func (r *Router) register(id uint16, allowRestricted bool, h Handler) {
	r.full[id] = h
	if allowRestricted {
		r.restricted[id] = struct{}{}
	}
}

// Dispatch decodes and invokes a handler for every frame in frames,
// selecting the full or restricted table per u.Restricted() (spec §4.2).
// Frames whose id has no registered handler are silently skipped — their
// declared length already let internal/wire.ReadFrames jump past them.
func Dispatch(ctx context.Context, router *Router, d *Deps, u *session.User, frames []wire.Frame) {
	restricted := u.Restricted()
	for _, f := range frames {
		h, ok := router.full[f.PacketID]
		if !ok {
			d.countDropped()
			continue
		}
		if restricted {
			if _, allowed := router.restricted[f.PacketID]; !allowed {
				d.countDropped()
				continue
			}
		}
		if d.Metrics != nil {
			d.Metrics.PacketsDispatch.WithLabelValues(strconv.Itoa(int(f.PacketID))).Inc()
		}
		if err := h(ctx, d, u, f.Payload); err != nil {
			log.Printf("[packets] handler %d for %s: %v", f.PacketID, u.Name, err)
		}
	}
	u.Touch()
}

func (d *Deps) countDropped() {
	if d.Metrics != nil {
		d.Metrics.PacketsDropped.Inc()
	}
}
