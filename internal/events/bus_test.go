package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPublishReachesTypedSubscriber(t *testing.T) {
	bus := NewEventBus()

	var wg sync.WaitGroup
	wg.Add(1)

	var got Event
	bus.Subscribe(EventBotStarted, func(e Event) {
		got = e
		wg.Done()
	})

	bus.PublishBotEvent(EventBotStarted, "user-1", "bot-1", "Bot_12345", "running")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber was not called")
	}

	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", got.UserID)
	}
	if got.Data["bot_id"] != "bot-1" {
		t.Errorf("bot_id = %v, want bot-1", got.Data["bot_id"])
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp should be filled on publish")
	}
}

func TestSubscribeAllSeesEveryType(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	seen := make(map[EventType]bool)
	var wg sync.WaitGroup
	wg.Add(2)

	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		seen[e.Type] = true
		mu.Unlock()
		wg.Done()
	})

	bus.Publish(Event{Type: EventTradeOpened, UserID: "u"})
	bus.Publish(Event{Type: EventLicenseIssued})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("catch-all subscriber missed events")
	}

	mu.Lock()
	defer mu.Unlock()
	if !seen[EventTradeOpened] || !seen[EventLicenseIssued] {
		t.Errorf("seen = %v, want both event types", seen)
	}
}

func TestTypedSubscriberIgnoresOtherTypes(t *testing.T) {
	bus := NewEventBus()

	called := make(chan EventType, 2)
	bus.Subscribe(EventBotStopped, func(e Event) {
		called <- e.Type
	})

	bus.Publish(Event{Type: EventBotStarted})
	bus.Publish(Event{Type: EventBotStopped})

	select {
	case got := <-called:
		if got != EventBotStopped {
			t.Errorf("subscriber got %s, want %s", got, EventBotStopped)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber was not called")
	}

	select {
	case got := <-called:
		t.Errorf("unexpected second delivery: %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishErrorCarriesSourceAndCause(t *testing.T) {
	bus := NewEventBus()

	got := make(chan Event, 1)
	bus.Subscribe(EventError, func(e Event) {
		got <- e
	})

	bus.PublishError("billing", "stripe webhook processing failed", errors.New("bad signature"))

	select {
	case e := <-got:
		if e.Data["source"] != "billing" {
			t.Errorf("source = %v, want billing", e.Data["source"])
		}
		if e.Data["message"] != "stripe webhook processing failed" {
			t.Errorf("message = %v", e.Data["message"])
		}
		if e.Data["error"] != "bad signature" {
			t.Errorf("error = %v, want bad signature", e.Data["error"])
		}
	case <-time.After(time.Second):
		t.Fatal("error event was not delivered")
	}
}
