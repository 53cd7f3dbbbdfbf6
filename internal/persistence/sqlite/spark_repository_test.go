package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/sparkboard/internal/booking"
	"github.com/example/sparkboard/internal/persistence"
)

var (
	tuesday  = booking.NewDay(2024, time.June, 4)
	thursday = booking.NewDay(2024, time.June, 6)
)

func newMoment(id, owner string, day booking.Day, created time.Time) persistence.SparkMoment {
	return persistence.SparkMoment{
		ID:          id,
		Date:        day,
		Description: "talk " + id,
		UserID:      owner,
		CreatedAt:   created,
	}
}

func TestSparkRepository_CapacityIsEnforcedAtInsert(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "owner", "owner@example.com", nil)

	for i := 1; i <= booking.Capacity; i++ {
		m := newMoment(fmt.Sprintf("s-%d", i), "owner", tuesday, baseTime.Add(time.Duration(i)*time.Second))
		if err := storage.CreateSparkMomentWithinCapacity(ctx, m, booking.Capacity); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	err := storage.CreateSparkMomentWithinCapacity(ctx, newMoment("s-3", "owner", tuesday, baseTime), booking.Capacity)
	if !errors.Is(err, persistence.ErrCapacityExceeded) {
		t.Fatalf("third insert error = %v, want ErrCapacityExceeded", err)
	}

	count, err := storage.CountSparkMomentsByDate(ctx, tuesday)
	if err != nil {
		t.Fatalf("CountSparkMomentsByDate failed: %v", err)
	}
	if count != booking.Capacity {
		t.Fatalf("count = %d, want %d", count, booking.Capacity)
	}

	// Another date is unaffected.
	if err := storage.CreateSparkMomentWithinCapacity(ctx, newMoment("s-4", "owner", thursday, baseTime), booking.Capacity); err != nil {
		t.Fatalf("thursday insert failed: %v", err)
	}
}

func TestSparkRepository_ConcurrentBookersCannotOverfill(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "owner", "owner@example.com", nil)

	// One booking exists, so both racers would read a count of 1.
	if err := storage.CreateSparkMomentWithinCapacity(ctx, newMoment("seed", "owner", thursday, baseTime), booking.Capacity); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	const racers = 8
	var (
		wg       sync.WaitGroup
		start    = make(chan struct{})
		mu       sync.Mutex
		admitted int
		rejected int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := storage.CreateSparkMomentWithinCapacity(ctx, newMoment(fmt.Sprintf("race-%d", i), "owner", thursday, baseTime.Add(time.Duration(i)*time.Millisecond)), booking.Capacity)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, persistence.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("racer %d: unexpected error %v", i, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if admitted != 1 || rejected != racers-1 {
		t.Fatalf("admitted = %d, rejected = %d; want 1 and %d", admitted, rejected, racers-1)
	}

	count, err := storage.CountSparkMomentsByDate(ctx, thursday)
	if err != nil {
		t.Fatalf("CountSparkMomentsByDate failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want exactly 2", count)
	}
}

func TestSparkRepository_DeleteOwnedBy(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "owner", "owner@example.com", nil)
	seedUser(t, storage, "other", "other@example.com", nil)

	if err := storage.CreateSparkMomentWithinCapacity(ctx, newMoment("s-1", "owner", tuesday, baseTime), booking.Capacity); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := storage.DeleteSparkMomentOwnedBy(ctx, "s-1", "other"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("delete by non-owner error = %v, want ErrNotFound", err)
	}
	moment, err := storage.GetSparkMoment(ctx, "s-1")
	if err != nil {
		t.Fatalf("moment removed by non-owner: %v", err)
	}
	if moment.UserID != "owner" || !moment.Date.Equal(tuesday) {
		t.Fatalf("unexpected moment %+v", moment)
	}

	if err := storage.DeleteSparkMomentOwnedBy(ctx, "s-1", "owner"); err != nil {
		t.Fatalf("delete by owner failed: %v", err)
	}
	if err := storage.DeleteSparkMomentOwnedBy(ctx, "s-1", "owner"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
	if _, err := storage.GetSparkMoment(ctx, "s-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("get after delete error = %v, want ErrNotFound", err)
	}
}

func TestSparkRepository_ListOrdersAndJoinsOwner(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	ana := seedUser(t, storage, "ana", "ana@example.com", ptr("Ana"))
	ana.AvatarURL = ptr("https://img/ana.png")
	if err := storage.UpdateUser(ctx, ana); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	seedUser(t, storage, "bea", "bea@example.com", nil)

	moments := []persistence.SparkMoment{
		newMoment("c", "bea", thursday, baseTime),
		newMoment("b", "ana", tuesday, baseTime.Add(time.Minute)),
		newMoment("a", "ana", tuesday, baseTime.Add(time.Minute)),
	}
	for _, m := range moments {
		if err := storage.CreateSparkMomentWithinCapacity(ctx, m, booking.Capacity); err != nil {
			t.Fatalf("insert %s failed: %v", m.ID, err)
		}
	}

	listings, err := storage.ListSparkMoments(ctx)
	if err != nil {
		t.Fatalf("ListSparkMoments failed: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("got %d listings, want 3", len(listings))
	}
	order := []string{listings[0].ID, listings[1].ID, listings[2].ID}
	if order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("order = %v, want [a b c]", order)
	}
	if listings[0].OwnerName == nil || *listings[0].OwnerName != "Ana" || listings[0].OwnerAvatarURL == nil {
		t.Fatalf("owner profile not joined: %#v", listings[0])
	}
	if listings[2].OwnerName != nil {
		t.Fatalf("unnamed owner should have nil name: %#v", listings[2])
	}
	if !listings[0].Date.Equal(tuesday) {
		t.Fatalf("Date = %s, want %s", listings[0].Date, tuesday)
	}

	counts, err := storage.CountSparkMomentsBetween(ctx, tuesday, thursday)
	if err != nil {
		t.Fatalf("CountSparkMomentsBetween failed: %v", err)
	}
	if counts["2024-06-04"] != 2 || counts["2024-06-06"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestSparkRepository_RejectsOverlongDescription(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "owner", "owner@example.com", nil)

	m := newMoment("s-1", "owner", tuesday, baseTime)
	m.Description = ""
	if err := storage.CreateSparkMomentWithinCapacity(ctx, m, booking.Capacity); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("empty description error = %v, want ErrConstraintViolation", err)
	}
}
