package eventing

import (
	"github.com/linkdata/deadlock"
)

// registry indexes subscriptions by callback token and by
// (device, service) key. Critical sections are kept short; device I/O
// never happens under the lock.
type registry struct {
	mu      deadlock.RWMutex
	byToken map[string]*subscription
	byKey   map[Key]*subscription
}

func newRegistry() *registry {
	return &registry{
		byToken: make(map[string]*subscription),
		byKey:   make(map[Key]*subscription),
	}
}

func (r *registry) add(s *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[s.token] = s
	r.byKey[s.key] = s
}

func (r *registry) remove(s *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byToken, s.token)
	delete(r.byKey, s.key)
}

func (r *registry) lookupToken(token string) (*subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byToken[token]
	return s, ok
}

func (r *registry) lookupKey(key Key) (*subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byKey[key]
	return s, ok
}

// list returns the current subscriptions. The slice is a copy; entries
// are live and guarded by their own locks.
func (r *registry) list() []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*subscription, 0, len(r.byKey))
	for _, s := range r.byKey {
		out = append(out, s)
	}
	return out
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
