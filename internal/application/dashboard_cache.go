package application

import (
	"sync"
	"time"
)

// dashboardCache keeps the last computed dashboard until it expires or a
// change event invalidates it. Every invalidation bumps the generation; a
// dashboard built under an older generation is never stored.
type dashboardCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	entry      *Dashboard
	expiresAt  time.Time
	generation uint64
}

func newDashboardCache(ttl time.Duration, now func() time.Time) *dashboardCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &dashboardCache{now: now, ttl: ttl}
}

// Get returns the cached dashboard when it is present and fresh. The
// returned generation must be passed to Store after a rebuild.
func (c *dashboardCache) Get() (Dashboard, uint64, bool) {
	if c == nil {
		return Dashboard{}, 0, false
	}
	c.mu.RLock()
	entry, expiresAt, gen := c.entry, c.expiresAt, c.generation
	c.mu.RUnlock()
	if entry == nil {
		return Dashboard{}, gen, false
	}
	if c.now().After(expiresAt) {
		return Dashboard{}, c.evict(entry), false
	}
	return cloneDashboard(*entry), gen, true
}

// evict drops entry if it is still the cached one and returns the current
// generation.
func (c *dashboardCache) evict(entry *Dashboard) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == entry {
		c.entry = nil
	}
	return c.generation
}

// Store caches d unless the cache was invalidated after gen was read.
func (c *dashboardCache) Store(d Dashboard, gen uint64) bool {
	if c == nil {
		return false
	}
	cloned := cloneDashboard(d)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.entry = &cloned
	c.expiresAt = c.now().Add(c.ttl)
	return true
}

func (c *dashboardCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entry = nil
	c.generation++
	c.mu.Unlock()
}

func cloneDashboard(d Dashboard) Dashboard {
	out := d
	out.PopularBadges = append([]BadgeCount(nil), d.PopularBadges...)
	out.RareBadges = append([]BadgeCount(nil), d.RareBadges...)
	out.TopStudents = append([]StudentCount(nil), d.TopStudents...)
	out.BottomStudents = append([]StudentCount(nil), d.BottomStudents...)
	return out
}
