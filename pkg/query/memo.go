package query

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// Memo caches derived views keyed by store generation and parameters. A
// mutation bumps the generation, so stale entries are never read again and
// age out on their own. Cached values are shared and must be treated as
// read-only.
type Memo struct {
	c *cache.Cache
}

func NewMemo(ttl time.Duration) *Memo {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Memo{c: cache.New(ttl, 2*ttl)}
}

// Get returns the cached value for (generation, key) or computes and stores it.
func Get[T any](m *Memo, generation uint64, key string, compute func() (T, error)) (T, error) {
	if m == nil {
		return compute()
	}
	k := fmt.Sprintf("%d|%s", generation, key)
	if v, ok := m.c.Get(k); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	m.c.SetDefault(k, v)
	return v, nil
}

// Len reports the number of live entries.
func (m *Memo) Len() int {
	return m.c.ItemCount()
}
