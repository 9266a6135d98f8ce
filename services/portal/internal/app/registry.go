package app

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionRegistry holds live sessions by id. A session that sees no
// traffic for the idle period is evicted.
type SessionRegistry struct {
	c *cache.Cache
}

func NewSessionRegistry(idle time.Duration) *SessionRegistry {
	if idle <= 0 {
		idle = 12 * time.Hour
	}
	return &SessionRegistry{c: cache.New(idle, cleanupInterval(idle))}
}

func cleanupInterval(idle time.Duration) time.Duration {
	if half := idle / 2; half < 10*time.Minute {
		return half
	}
	return 10 * time.Minute
}

func (r *SessionRegistry) Put(s *Session) {
	r.c.SetDefault(s.ID, s)
}

// Get returns the session and refreshes its idle deadline.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	v, ok := r.c.Get(id)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	if !ok {
		return nil, false
	}
	r.c.SetDefault(id, s)
	return s, true
}

func (r *SessionRegistry) Delete(id string) {
	r.c.Delete(id)
}

// ForEach visits every unexpired session in no particular order.
func (r *SessionRegistry) ForEach(fn func(*Session)) {
	for _, item := range r.c.Items() {
		if s, ok := item.Object.(*Session); ok {
			fn(s)
		}
	}
}

func (r *SessionRegistry) Len() int {
	return r.c.ItemCount()
}
