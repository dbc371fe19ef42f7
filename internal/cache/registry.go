package cache

import "sync"

// Registry hands out one RedemptionCache per session ID. A session ID is
// minted at login and never reused, so dropping a session's cache is how
// "clear on customer identity change" is enforced: a new login can never
// observe codes cached under another identity.
type Registry struct {
	mu     sync.Mutex
	caches map[string]*RedemptionCache
}

func NewRegistry() *Registry {
	return &Registry{caches: make(map[string]*RedemptionCache)}
}

// ForSession returns the cache for a session, creating it on first use.
func (r *Registry) ForSession(sessionID string) *RedemptionCache {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caches[sessionID]
	if !ok {
		c = NewRedemptionCache()
		r.caches[sessionID] = c
	}
	return c
}

// Drop discards a session's cache entirely.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caches, sessionID)
}
