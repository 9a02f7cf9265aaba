package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cygnusgroup/backoffice/core"
)

var (
	_ core.SessionStore  = (*InMemoryCache)(nil)
	_ core.SessionPurger = (*InMemoryCache)(nil)
)

const (
	DefaultTTL     = 24 * time.Hour
	DefaultMaxSize = 10000
)

type Config struct {
	TTL     time.Duration
	MaxSize int
}

// Stats are diagnostic counters.
type Stats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// InMemoryCache is a single-process session store keyed by token hash.
// When full it evicts the session closest to expiry.
type InMemoryCache struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	maxSize  int
	now      func() time.Time

	hits, misses, sets, deletes, evictions atomic.Int64
}

type entry struct {
	session core.Session
	expires time.Time
}

func (e entry) expired(at time.Time) bool {
	return !at.Before(e.expires)
}

func NewInMemoryCache(c Config) *InMemoryCache {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}
	return &InMemoryCache{
		sessions: make(map[string]entry, 64),
		ttl:      c.TTL,
		maxSize:  c.MaxSize,
		now:      time.Now,
	}
}

// Get returns a copy of the session stored under key.
func (c *InMemoryCache) Get(_ context.Context, key string) (*core.Session, error) {
	c.mu.RLock()
	e, ok := c.sessions[key]
	c.mu.RUnlock()

	switch {
	case !ok:
		c.misses.Add(1)
		return nil, core.ErrSessionNotFound
	case e.expired(c.now()):
		c.misses.Add(1)
		c.dropIfExpired(key)
		return nil, core.ErrSessionNotFound
	}

	c.hits.Add(1)
	s := e.session
	return &s, nil
}

// Save stores a copy of session. A ttl <= 0 uses the configured TTL.
func (c *InMemoryCache) Save(_ context.Context, key string, session *core.Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	e := entry{session: *session, expires: c.now().Add(ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, replacing := c.sessions[key]; !replacing && len(c.sessions) >= c.maxSize {
		c.evictLocked()
	}
	c.sessions[key] = e
	c.sets.Add(1)
	return nil
}

// Delete is idempotent.
func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[key]; ok {
		delete(c.sessions, key)
		c.deletes.Add(1)
	}
	return nil
}

// DeleteExpired drops every expired session and reports how many went.
func (c *InMemoryCache) DeleteExpired(_ context.Context) (int, error) {
	at := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.sessions {
		if e.expired(at) {
			delete(c.sessions, key)
			n++
		}
	}
	c.deletes.Add(int64(n))
	return n, nil
}

func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

func (c *InMemoryCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		TTL:       c.ttl,
	}
}

// dropIfExpired rechecks under the write lock so a concurrent Save wins.
func (c *InMemoryCache) dropIfExpired(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.sessions[key]; ok && e.expired(c.now()) {
		delete(c.sessions, key)
		c.deletes.Add(1)
	}
}

func (c *InMemoryCache) evictLocked() {
	var (
		victim string
		soon   time.Time
		found  bool
	)
	for key, e := range c.sessions {
		if !found || e.expires.Before(soon) {
			victim, soon, found = key, e.expires, true
		}
	}
	if found {
		delete(c.sessions, victim)
		c.evictions.Add(1)
	}
}
