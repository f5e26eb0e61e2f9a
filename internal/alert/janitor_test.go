package alert

import (
	"context"
	"testing"
	"time"
)

func TestJanitor_SweepsExpiredEntries(t *testing.T) {
	store := NewCooldownStore()

	// Entries with a tiny window expire almost immediately.
	window := 5 * time.Millisecond
	now := time.Now().UTC()
	store.CheckAndReserve("dev1", "GAS", now, window)
	store.CheckAndReserve("dev2", "FIRE", now, window)

	j := NewJanitor(store, window, 10*time.Millisecond, nil)
	j.Start(context.Background())
	defer j.Stop()

	deadline := time.After(2 * time.Second)
	for store.Entries() > 0 {
		select {
		case <-deadline:
			t.Fatalf("entries not swept: %d remain", store.Entries())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := store.Devices(); got != 0 {
		t.Errorf("Devices() = %d, want 0", got)
	}
}

func TestJanitor_KeepsLiveEntries(t *testing.T) {
	store := NewCooldownStore()

	store.CheckAndReserve("dev1", "GAS", time.Now().UTC(), time.Hour)

	j := NewJanitor(store, time.Hour, 5*time.Millisecond, nil)
	j.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	j.Stop()

	if got := store.Entries(); got != 1 {
		t.Errorf("Entries() = %d, want 1 (live entry must survive sweeps)", got)
	}
}

func TestJanitor_StopIsIdempotent(t *testing.T) {
	store := NewCooldownStore()

	j := NewJanitor(store, time.Minute, time.Minute, nil)
	j.Start(context.Background())

	j.Stop()
	j.Stop()
}

func TestJanitor_ContextCancelStopsLoop(t *testing.T) {
	store := NewCooldownStore()

	ctx, cancel := context.WithCancel(context.Background())

	j := NewJanitor(store, time.Minute, time.Millisecond, nil)
	j.Start(ctx)

	cancel()

	select {
	case <-j.done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor loop did not exit on context cancellation")
	}
}
