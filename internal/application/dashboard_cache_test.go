package application

import (
	"testing"
	"time"
)

func TestDashboardCacheStoresAndReturnsCopies(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newDashboardCache(time.Minute, func() time.Time { return current })

	original := Dashboard{TotalBadges: 1, PopularBadges: []BadgeCount{{BadgeID: "badge-1", Count: 3}}}
	_, gen, _ := cache.Get()
	if !cache.Store(original, gen) {
		t.Fatalf("expected store to succeed")
	}

	// Mutating the original slice should not affect the cached copy.
	original.PopularBadges[0].BadgeID = "mutated"

	cached, _, ok := cache.Get()
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if cached.PopularBadges[0].BadgeID != "badge-1" {
		t.Fatalf("expected cached badge id to remain unchanged, got %s", cached.PopularBadges[0].BadgeID)
	}

	cached.PopularBadges[0].BadgeID = "changed"
	again, _, ok := cache.Get()
	if !ok {
		t.Fatalf("expected cache hit on second read")
	}
	if again.PopularBadges[0].BadgeID != "badge-1" {
		t.Fatalf("expected cache to return independent copy, got %s", again.PopularBadges[0].BadgeID)
	}
}

func TestDashboardCacheExpiresEntries(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newDashboardCache(time.Second, func() time.Time { return current })

	_, gen, _ := cache.Get()
	cache.Store(Dashboard{TotalStudents: 2}, gen)
	if _, _, ok := cache.Get(); !ok {
		t.Fatalf("expected cache hit before expiry")
	}

	current = current.Add(2 * time.Second)
	_, gen, ok := cache.Get()
	if ok {
		t.Fatalf("expected cache entry to expire")
	}
	if !cache.Store(Dashboard{TotalStudents: 3}, gen) {
		t.Fatalf("expected rebuild after expiry to be cached")
	}
	if d, _, ok := cache.Get(); !ok || d.TotalStudents != 3 {
		t.Fatalf("expected rebuilt entry, got %+v ok=%v", d, ok)
	}
}

func TestDashboardCacheInvalidate(t *testing.T) {
	cache := newDashboardCache(time.Minute, time.Now)
	_, gen, _ := cache.Get()
	cache.Store(Dashboard{TotalStudents: 2}, gen)
	cache.Invalidate()
	if _, _, ok := cache.Get(); ok {
		t.Fatalf("expected cache to be empty after invalidation")
	}
}

func TestDashboardCacheRejectsBuildFromBeforeInvalidation(t *testing.T) {
	cache := newDashboardCache(time.Minute, time.Now)

	_, gen, ok := cache.Get()
	if ok {
		t.Fatalf("expected empty cache")
	}
	cache.Invalidate()

	if cache.Store(Dashboard{TotalAwards: 1}, gen) {
		t.Fatalf("expected store with an outdated generation to be refused")
	}
	if _, _, ok := cache.Get(); ok {
		t.Fatalf("expected outdated dashboard to stay out of the cache")
	}

	_, gen, _ = cache.Get()
	if !cache.Store(Dashboard{TotalAwards: 2}, gen) {
		t.Fatalf("expected store with the current generation to succeed")
	}
}

func TestDashboardCacheExpiryKeepsConcurrentStore(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newDashboardCache(time.Second, func() time.Time { return current })

	_, gen, _ := cache.Get()
	cache.Store(Dashboard{TotalAwards: 1}, gen)
	current = current.Add(2 * time.Second)

	cache.mu.RLock()
	stale := cache.entry
	cache.mu.RUnlock()

	// A rebuild lands between the expiry read and the eviction.
	_, gen, _ = cache.Get()
	if !cache.Store(Dashboard{TotalAwards: 2}, gen) {
		t.Fatalf("expected rebuild to be cached")
	}
	cache.evict(stale)

	if d, _, ok := cache.Get(); !ok || d.TotalAwards != 2 {
		t.Fatalf("expected concurrent store to survive expiry, got %+v ok=%v", d, ok)
	}
}
