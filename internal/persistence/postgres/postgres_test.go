package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/sparkboard/internal/booking"
	"github.com/example/sparkboard/internal/persistence"
)

// Tests in this file run against a live database named by
// SPARKBOARD_TEST_DATABASE_URL and are skipped otherwise.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	url := os.Getenv("SPARKBOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SPARKBOARD_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	storage, err := Open(ctx, url, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return storage
}

func seedUser(t *testing.T, storage *Storage) persistence.User {
	t.Helper()

	id := uuid.NewString()
	user := persistence.User{
		ID:           id,
		Email:        id + "@example.com",
		Role:         persistence.RoleStudent,
		PasswordHash: "hash",
	}
	if err := storage.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	t.Cleanup(func() { _ = storage.DeleteUser(context.Background(), id) })
	return user
}

// uniqueDay spreads test runs over distinct dates so reruns do not collide.
func uniqueDay() booking.Day {
	base := booking.NewDay(2100, time.January, 7)
	return base.AddDays(7 * int(time.Now().UnixNano()%5000))
}

func TestStorage_ConcurrentBookersCannotOverfill(t *testing.T) {
	storage := newTestStorage(t)
	owner := seedUser(t, storage)
	ctx := context.Background()
	day := uniqueDay()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := storage.CreateSparkMomentWithinCapacity(ctx, persistence.SparkMoment{
				ID:          uuid.NewString(),
				Date:        day,
				Description: fmt.Sprintf("talk %d", i),
				UserID:      owner.ID,
			}, booking.Capacity)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case !errors.Is(err, persistence.ErrCapacityExceeded):
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	count, err := storage.CountSparkMomentsByDate(ctx, day)
	if err != nil {
		t.Fatalf("CountSparkMomentsByDate failed: %v", err)
	}
	if admitted != booking.Capacity || count != booking.Capacity {
		t.Fatalf("admitted = %d, count = %d; want %d", admitted, count, booking.Capacity)
	}
}

func TestStorage_DeleteSparkMomentOwnedBy(t *testing.T) {
	storage := newTestStorage(t)
	owner := seedUser(t, storage)
	other := seedUser(t, storage)
	ctx := context.Background()

	id := uuid.NewString()
	if err := storage.CreateSparkMomentWithinCapacity(ctx, persistence.SparkMoment{
		ID: id, Date: uniqueDay().AddDays(-2), Description: "owned", UserID: owner.ID,
	}, booking.Capacity); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := storage.DeleteSparkMomentOwnedBy(ctx, id, other.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got, err := storage.GetSparkMoment(ctx, id); err != nil || got.UserID != owner.ID {
		t.Fatalf("GetSparkMoment = %+v, %v; want moment still owned by %s", got, err, owner.ID)
	}
	if err := storage.DeleteSparkMomentOwnedBy(ctx, id, owner.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := storage.DeleteSparkMomentOwnedBy(ctx, id, owner.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestStorage_AwardsAreUnique(t *testing.T) {
	storage := newTestStorage(t)
	user := seedUser(t, storage)
	ctx := context.Background()

	badge := persistence.Badge{ID: uuid.NewString(), Title: "Gopher"}
	if err := storage.CreateBadge(ctx, badge); err != nil {
		t.Fatalf("CreateBadge failed: %v", err)
	}
	t.Cleanup(func() { _ = storage.DeleteBadge(context.Background(), badge.ID) })

	award := persistence.Award{ID: uuid.NewString(), UserID: user.ID, BadgeID: badge.ID}
	if err := storage.CreateAward(ctx, award); err != nil {
		t.Fatalf("CreateAward failed: %v", err)
	}
	award.ID = uuid.NewString()
	if err := storage.CreateAward(ctx, award); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("error = %v, want ErrDuplicate", err)
	}
}
