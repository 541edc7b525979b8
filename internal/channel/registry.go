package channel

import "sync"

// Registry is the process-singleton directory of channels, keyed by
// real_name (spec §4.3).
type Registry struct {
	mu   sync.RWMutex
	byRN map[string]*Channel
}

// NewRegistry returns an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{byRN: make(map[string]*Channel)}
}

// Insert adds c to the registry, keyed by its real name.
func (r *Registry) Insert(c *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRN[c.RealName] = c
}

// Remove deletes the channel with real name realName.
func (r *Registry) Remove(realName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byRN, realName)
}

// Get looks up a channel by real name.
func (r *Registry) Get(realName string) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byRN[realName]
	return c, ok
}

// All returns a snapshot of every channel.
func (r *Registry) All() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Channel, 0, len(r.byRN))
	for _, c := range r.byRN {
		out = append(out, c)
	}
	return out
}

// Public returns a snapshot of every non-instance (globally broadcast) channel.
func (r *Registry) Public() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Channel, 0, len(r.byRN))
	for _, c := range r.byRN {
		if !c.Instance {
			out = append(out, c)
		}
	}
	return out
}
