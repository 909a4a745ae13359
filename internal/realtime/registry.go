package realtime

import "sync"

// registry maps a user id to that instance's live connections for the user.
// Invariant: a user id key exists iff its set is non-empty. All mutation goes
// through add/remove under the mutex; cross-instance visibility is the
// transport's job, never shared memory.
type registry struct {
	mu    sync.Mutex
	conns map[uint]map[*Client]struct{}
}

func newRegistry() *registry {
	return &registry{conns: make(map[uint]map[*Client]struct{})}
}

// add registers a connection and reports whether it is the first one for its
// user on this instance.
func (r *registry) add(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		r.conns[c.userID] = set
	}
	set[c] = struct{}{}
	return !ok
}

// remove deregisters a connection. It reports whether the connection was
// present and whether it was the user's last one; removing an absent
// connection is a no-op.
func (r *registry) remove(c *Client) (existed, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[c.userID]
	if !ok {
		return false, false
	}
	if _, ok := set[c]; !ok {
		return false, false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, c.userID)
		return true, true
	}
	return true, false
}

// users returns the ids with at least one live connection.
func (r *registry) users() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// snapshot returns the current connections for one user, or for everyone when
// userID is 0. Callers get a copy and may block without holding the lock.
func (r *registry) snapshot(userID uint) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Client
	if userID != 0 {
		for c := range r.conns[userID] {
			out = append(out, c)
		}
		return out
	}
	for _, set := range r.conns {
		for c := range set {
			out = append(out, c)
		}
	}
	return out
}
