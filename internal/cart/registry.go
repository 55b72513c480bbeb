package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Registry maps browser sessions to their carts. A session that stays idle
// past the TTL, or is pushed out by newer sessions, loses its cart.
type Registry struct {
	lru *expirable.LRU[string, *Store]
}

func NewRegistry(size int, ttl time.Duration) *Registry {
	return NewRegistryWithEvict(size, ttl, nil)
}

func NewRegistryWithEvict(size int, ttl time.Duration, onEvict func(sessionID string, s *Store)) *Registry {
	if size <= 0 {
		size = 1
	}
	var cb expirable.EvictCallback[string, *Store]
	if onEvict != nil {
		cb = func(k string, v *Store) { onEvict(k, v) }
	}
	return &Registry{lru: expirable.NewLRU[string, *Store](size, cb, ttl)}
}

// Open returns the cart for sessionID. An empty or unknown id gets a new
// session under a freshly issued id; callers must keep the returned id.
func (r *Registry) Open(sessionID string) (string, *Store) {
	if sessionID != "" {
		if s, ok := r.lru.Get(sessionID); ok {
			// re-adding slides the expiry
			r.lru.Add(sessionID, s)
			return sessionID, s
		}
	}
	sessionID = uuid.NewString()
	s := NewStore()
	r.lru.Add(sessionID, s)
	return sessionID, s
}

// Get looks a session up without creating it.
func (r *Registry) Get(sessionID string) (*Store, bool) {
	if sessionID == "" {
		return nil, false
	}
	return r.lru.Get(sessionID)
}

// Close tears the session down.
func (r *Registry) Close(sessionID string) {
	r.lru.Remove(sessionID)
}

func (r *Registry) Len() int { return r.lru.Len() }
