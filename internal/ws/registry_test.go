package ws

import (
	"sync"
	"testing"
	"time"

	"focus/internal/model"

	"github.com/rs/zerolog"
)

func newTestRegistry() *Registry {
	return NewRegistry(zerolog.Nop())
}

func event(userID int64, kind model.EventKind) model.NotificationEvent {
	return model.NotificationEvent{UserID: userID, Kind: kind, Title: "t", Message: "m", Timestamp: time.Now()}
}

func TestConnectAndDeliver(t *testing.T) {
	r := newTestRegistry()
	ch := r.Connect(1)

	if got := r.Deliver(1, event(1, model.EventWarning)); got != 1 {
		t.Fatalf("expected delivery to 1 channel, got %d", got)
	}
	select {
	case ev := <-ch.Events():
		if ev.Kind != model.EventWarning {
			t.Errorf("expected warning event, got %v", ev.Kind)
		}
	default:
		t.Fatal("no event queued on channel")
	}
}

func TestDeliverToOfflineUserIsNoop(t *testing.T) {
	r := newTestRegistry()
	if got := r.Deliver(99, event(99, model.EventInfo)); got != 0 {
		t.Fatalf("expected 0 deliveries for offline user, got %d", got)
	}
}

func TestMultiDeviceDelivery(t *testing.T) {
	r := newTestRegistry()
	a := r.Connect(1)
	b := r.Connect(1)
	r.Connect(2)

	if got := r.Deliver(1, event(1, model.EventBlocked)); got != 2 {
		t.Fatalf("expected delivery to both channels of user 1, got %d", got)
	}
	for _, ch := range []*Channel{a, b} {
		select {
		case <-ch.Events():
		default:
			t.Errorf("channel %s did not receive the event", ch.ID)
		}
	}
}

func TestSubscriptionFilter(t *testing.T) {
	r := newTestRegistry()
	blockedOnly := r.Connect(1)
	all := r.Connect(1)

	if err := r.Unsubscribe(blockedOnly.ID, model.EventWarning, model.EventInfo); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	if got := r.Deliver(1, event(1, model.EventWarning)); got != 1 {
		t.Fatalf("expected warning delivered to one channel only, got %d", got)
	}
	select {
	case <-blockedOnly.Events():
		t.Error("blocked-only channel must not receive warning events")
	default:
	}
	select {
	case <-all.Events():
	default:
		t.Error("unfiltered channel should have received the warning")
	}

	if got := r.Deliver(1, event(1, model.EventBlocked)); got != 2 {
		t.Errorf("expected blocked event on both channels, got %d", got)
	}
}

func TestResubscribeRestoresKind(t *testing.T) {
	r := newTestRegistry()
	ch := r.Connect(1)

	if err := r.Unsubscribe(ch.ID, model.EventInfo); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if got := r.Deliver(1, event(1, model.EventInfo)); got != 0 {
		t.Fatalf("expected 0 after unsubscribe, got %d", got)
	}
	if err := r.Subscribe(ch.ID, model.EventInfo); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if got := r.Deliver(1, event(1, model.EventInfo)); got != 1 {
		t.Fatalf("expected 1 after resubscribe, got %d", got)
	}
}

func TestUnknownChannelOperations(t *testing.T) {
	r := newTestRegistry()

	if err := r.Subscribe("nope", model.EventInfo); err != ErrChannelNotFound {
		t.Errorf("Subscribe: expected ErrChannelNotFound, got %v", err)
	}
	if err := r.Unsubscribe("nope", model.EventInfo); err != ErrChannelNotFound {
		t.Errorf("Unsubscribe: expected ErrChannelNotFound, got %v", err)
	}
	if err := r.Heartbeat("nope"); err != ErrChannelNotFound {
		t.Errorf("Heartbeat: expected ErrChannelNotFound, got %v", err)
	}

	// Disconnect is idempotent, including for ids never seen.
	r.Disconnect("nope")
	ch := r.Connect(1)
	r.Disconnect(ch.ID)
	r.Disconnect(ch.ID)
}

func TestBroadcastAllIgnoresFilters(t *testing.T) {
	r := newTestRegistry()
	muted := r.Connect(1)
	r.Connect(2)

	if err := r.Unsubscribe(muted.ID, model.EventWarning, model.EventBlocked, model.EventInfo); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if got := r.BroadcastAll(event(0, model.EventInfo)); got != 2 {
		t.Fatalf("expected broadcast to reach 2 channels, got %d", got)
	}
}

func TestSweepStaleChannels(t *testing.T) {
	r := newTestRegistry()
	stale := r.Connect(1)
	fresh := r.Connect(2)

	// Only the fresh channel heartbeats before the sweep.
	time.Sleep(10 * time.Millisecond)
	if err := r.Heartbeat(fresh.ID); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}

	removed := r.SweepStale(5*time.Millisecond, time.Now())
	if len(removed) != 1 || removed[0] != stale.ID {
		t.Fatalf("expected only the stale channel removed, got %v", removed)
	}

	select {
	case <-stale.Done():
	default:
		t.Error("removed channel's Done should be closed")
	}

	users, conns := r.Stats()
	if users != 1 || conns != 1 {
		t.Errorf("expected 1 user / 1 connection after sweep, got %d/%d", users, conns)
	}
}

func TestConcurrentConnectDeliverDisconnect(t *testing.T) {
	r := newTestRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			ch := r.Connect(userID)
			r.Deliver(userID, event(userID, model.EventInfo))
			if err := r.Heartbeat(ch.ID); err != nil {
				t.Errorf("Heartbeat failed: %v", err)
			}
			r.Disconnect(ch.ID)
		}(int64(i % 5))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			r.SweepStale(time.Minute, time.Now())
		}
	}()
	wg.Wait()

	users, conns := r.Stats()
	if users != 0 || conns != 0 {
		t.Errorf("expected empty registry, got %d users / %d connections", users, conns)
	}
}
