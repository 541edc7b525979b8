package session

import (
	"strings"
	"sync"
)

// Registry is the process-singleton directory of connected users. Every
// write path (insert/remove) takes the registry's mutex; broadcast snapshots
// the user list under a read lock and releases it before enqueuing, exactly
// as the teacher's Room.Broadcast snapshots targets before sending so one
// slow client can't hold up fan-out to the rest (room.go, Broadcast).
type Registry struct {
	mu        sync.RWMutex
	byID      map[int32]*User
	byToken   map[string]*User
	byNameLow map[string]*User
}

// NewRegistry returns an empty user registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:      make(map[int32]*User),
		byToken:   make(map[string]*User),
		byNameLow: make(map[string]*User),
	}
}

// Insert adds u to the registry. Callers must already hold whatever
// exclusive lock guards the login duplicate-check (spec §4.5/§9); Insert
// itself only protects the registry's own maps.
func (r *Registry) Insert(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byToken[u.Token] = u
	r.byNameLow[strings.ToLower(u.Name)] = u
}

// Remove deletes u from the registry by id/token/name.
func (r *Registry) Remove(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, u.ID)
	delete(r.byToken, u.Token)
	delete(r.byNameLow, strings.ToLower(u.Name))
}

// ByID looks up a user by id.
func (r *Registry) ByID(id int32) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	return u, ok
}

// ByToken looks up a user by session token.
func (r *Registry) ByToken(token string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byToken[token]
	return u, ok
}

// ByName looks up a user by display name, case-insensitively.
func (r *Registry) ByName(name string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byNameLow[strings.ToLower(name)]
	return u, ok
}

// All returns a snapshot slice of every connected user.
func (r *Registry) All() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out
}

// Unrestricted returns a snapshot of every user not currently restricted.
func (r *Registry) Unrestricted() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		if !u.Privileges.Restricted() {
			out = append(out, u)
		}
	}
	return out
}

// Staff returns a snapshot of every user with admin, developer, or owner
// privileges.
func (r *Registry) Staff() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, 0)
	for _, u := range r.byID {
		if u.Privileges.Any(PrivilegeAdmin | PrivilegeDeveloper | PrivilegeOwner) {
			out = append(out, u)
		}
	}
	return out
}

// Count returns the number of connected users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Broadcast enqueues data to every user not in immune. immune may be nil.
func (r *Registry) Broadcast(data []byte, immune map[int32]struct{}) {
	for _, u := range r.All() {
		if _, skip := immune[u.ID]; skip {
			continue
		}
		u.Enqueue(data)
	}
}
