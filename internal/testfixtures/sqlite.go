package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/sparkboard/internal/booking"
	"github.com/example/sparkboard/internal/persistence"
	"github.com/example/sparkboard/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated temporary SQLite storage for
// integration-style tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	tb      testing.TB
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a database in a temporary directory. The
// harness closes itself when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "sparkboard.db")
	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		tb:      tb,
		cleanup: func() { _ = storage.Close() },
	}
	tb.Cleanup(harness.Close)
	return harness
}

// SeedUser stores user and returns it.
func (h *SQLiteHarness) SeedUser(user persistence.User) persistence.User {
	h.tb.Helper()
	if err := h.Storage.CreateUser(context.Background(), user); err != nil {
		h.tb.Fatalf("seed user %s: %v", user.ID, err)
	}
	return user
}

// SeedBadge stores badge and returns it.
func (h *SQLiteHarness) SeedBadge(badge persistence.Badge) persistence.Badge {
	h.tb.Helper()
	if err := h.Storage.CreateBadge(context.Background(), badge); err != nil {
		h.tb.Fatalf("seed badge %s: %v", badge.ID, err)
	}
	return badge
}

// SeedAward grants badgeID to userID.
func (h *SQLiteHarness) SeedAward(userID, badgeID string) {
	h.tb.Helper()
	if err := h.Storage.CreateAward(context.Background(), NewAward(userID, badgeID)); err != nil {
		h.tb.Fatalf("seed award %s/%s: %v", userID, badgeID, err)
	}
}

// SeedSpark books a moment for owner on day, bypassing the booking rules
// except for the capacity check enforced by the store.
func (h *SQLiteHarness) SeedSpark(owner string, day booking.Day, description string) persistence.SparkMoment {
	h.tb.Helper()
	moment := NewSparkMoment(owner, day, description)
	if err := h.Storage.CreateSparkMomentWithinCapacity(context.Background(), moment, booking.Capacity); err != nil {
		h.tb.Fatalf("seed spark on %s: %v", day, err)
	}
	return moment
}
