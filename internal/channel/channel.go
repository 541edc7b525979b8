// Package channel implements named chat rooms: the privilege-gated,
// membership-tracked structure described in spec §3/§4.4.
package channel

import (
	"sync"

	"bancho/internal/session"
	"bancho/internal/wire"
)

// Channel is a named chat room. Name is the display name; RealName is the
// routing key (equal to Name for public channels, "#spec_<id>" /
// "#multi_<id>" for ephemeral ones).
//
// Grounded on the teacher's channel bookkeeping in room.go (SetChannels /
// GetChannelList / CreateChannel / RenameChannel / DeleteChannel): a
// mutex-protected struct with membership tracked separately from the
// registry that owns it.
type Channel struct {
	Name       string
	RealName   string
	Topic      string
	Privileges session.Privileges
	AutoJoin   bool
	Instance   bool // ephemeral: not broadcast globally

	mu    sync.RWMutex
	users map[int32]*session.User
}

// New constructs a channel with an empty membership set.
func New(name, realName, topic string, privileges session.Privileges, autoJoin, instance bool) *Channel {
	return &Channel{
		Name:       name,
		RealName:   realName,
		Topic:      topic,
		Privileges: privileges,
		AutoJoin:   autoJoin,
		Instance:   instance,
		users:      make(map[int32]*session.User),
	}
}

// HasPermission implements spec §4.4: true when the channel has no gate, or
// when p intersects the gate.
func (c *Channel) HasPermission(p session.Privileges) bool {
	if c.Privileges == 0 {
		return true
	}
	return p.Any(c.Privileges)
}

// Join adds u to the channel's membership and records the membership on u.
// Returns false if u is already a member.
func (c *Channel) Join(u *session.User) bool {
	c.mu.Lock()
	if _, ok := c.users[u.ID]; ok {
		c.mu.Unlock()
		return false
	}
	c.users[u.ID] = u
	c.mu.Unlock()
	u.JoinedChannel(c.RealName)
	return true
}

// Leave removes u from the channel's membership and clears it from u.
// Returns false if u was not a member.
func (c *Channel) Leave(u *session.User) bool {
	c.mu.Lock()
	if _, ok := c.users[u.ID]; !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.users, u.ID)
	c.mu.Unlock()
	u.LeftChannel(c.RealName)
	return true
}

// Members returns a snapshot of the channel's current users.
func (c *Channel) Members() []*session.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*session.User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, u)
	}
	return out
}

// UserCount returns the number of current members.
func (c *Channel) UserCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}

// IsMember reports whether u is a current member.
func (c *Channel) IsMember(u *session.User) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.users[u.ID]
	return ok
}

// Info returns the wire ChannelInfo snapshot for this channel.
func (c *Channel) Info() wire.ChannelInfo {
	return wire.ChannelInfo{
		Name:      c.Name,
		Topic:     c.Topic,
		UserCount: int32(c.UserCount()),
	}
}

// Broadcast enqueues packet to every member except the one whose id equals
// ignoreID (pass 0 to exclude nobody). Used for server/bot-originated
// notices such as a match's map-change embed, which are not subject to the
// sender-permission gate that Send enforces for user chat.
func (c *Channel) Broadcast(packet []byte, ignoreID int32) {
	for _, u := range c.Members() {
		if ignoreID != 0 && u.ID == ignoreID {
			continue
		}
		u.Enqueue(packet)
	}
}

// Send implements spec §4.4: enqueue a send_message packet (already encoded
// by the caller) to every member except the sender. Returns false if the
// sender lacks channel permission.
func (c *Channel) Send(packet []byte, sender *session.User) bool {
	if !c.HasPermission(sender.Privileges) {
		return false
	}
	for _, u := range c.Members() {
		if u.ID == sender.ID {
			continue
		}
		u.Enqueue(packet)
	}
	return true
}
