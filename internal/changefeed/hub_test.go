package changefeed

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestHub_FansOutToSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	first := hub.Subscribe(4)
	second := hub.Subscribe(4)
	defer first.Close()
	defer second.Close()

	event := Event{Table: TableSparkMoments, Action: ActionInsert, ID: "s-1", At: time.Unix(0, 0)}
	hub.Publish(context.Background(), event)

	for _, sub := range []*Subscription{first, second} {
		select {
		case got := <-sub.C():
			if got != event {
				t.Fatalf("got %+v, want %+v", got, event)
			}
		case <-time.After(time.Second):
			t.Fatalf("event not delivered")
		}
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	sub := hub.Subscribe(1)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(context.Background(), Event{Table: TableBadges, Action: ActionUpdate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a full subscriber")
	}
	if sub.Dropped() != 9 {
		t.Fatalf("Dropped() = %d, want 9", sub.Dropped())
	}
}

func TestSubscription_CloseDetaches(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	sub := hub.Subscribe(0)
	if hub.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", hub.Len())
	}

	sub.Close()
	sub.Close()
	if hub.Len() != 0 {
		t.Fatalf("Len() = %d after Close, want 0", hub.Len())
	}
	if _, ok := <-sub.C(); ok {
		t.Fatalf("channel still open after Close")
	}

	hub.Publish(context.Background(), Event{Table: TableUsers, Action: ActionInsert})
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	sub := hub.Subscribe(1)
	hub.Close()

	if _, ok := <-sub.C(); ok {
		t.Fatalf("channel still open after hub Close")
	}
	sub.Close()

	late := hub.Subscribe(1)
	if _, ok := <-late.C(); ok {
		t.Fatalf("subscription on closed hub should start closed")
	}
	late.Close()
}

func TestHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe(2)
			sub.Close()
		}()
		go func() {
			defer wg.Done()
			hub.Publish(context.Background(), Event{Table: TableSparkMoments, Action: ActionDelete})
		}()
	}
	wg.Wait()
	if hub.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", hub.Len())
	}
}

func TestEventCodec(t *testing.T) {
	t.Parallel()

	event := Event{Table: TableUserBadges, Action: ActionDelete, ID: "a-1", At: time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)}
	if event.RoutingKey() != "user_badges.delete" {
		t.Fatalf("RoutingKey() = %q", event.RoutingKey())
	}

	msg, err := encodeEvent(event)
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}
	if msg.ContentType != "application/json" {
		t.Fatalf("ContentType = %q", msg.ContentType)
	}

	decoded, err := decodeEvent(msg.Body)
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if !decoded.At.Equal(event.At) || decoded.ID != event.ID || decoded.Table != event.Table {
		t.Fatalf("decoded %+v, want %+v", decoded, event)
	}

	if _, err := decodeEvent([]byte(`{"id":"x"}`)); err == nil {
		t.Fatalf("expected error for event without table")
	}
}
