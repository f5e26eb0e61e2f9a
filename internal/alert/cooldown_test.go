package alert

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

const testWindow = 60 * time.Second

func TestCooldownStore_CheckAndReserve(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("first event is allowed", func(t *testing.T) {
		s := NewCooldownStore()

		allowed, remaining, err := s.CheckAndReserve("dev1", "GAS", base, testWindow)
		if err != nil {
			t.Fatalf("CheckAndReserve() error = %v", err)
		}
		if !allowed {
			t.Error("first event should be allowed")
		}
		if remaining != 0 {
			t.Errorf("remaining = %v, want 0", remaining)
		}
	})

	t.Run("repeat inside window is suppressed", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)

		allowed, remaining, err := s.CheckAndReserve("dev1", "GAS", base.Add(30*time.Second), testWindow)
		if err != nil {
			t.Fatalf("CheckAndReserve() error = %v", err)
		}
		if allowed {
			t.Error("event 30s into a 60s window should be suppressed")
		}
		if remaining != 30*time.Second {
			t.Errorf("remaining = %v, want 30s", remaining)
		}
	})

	t.Run("repeat after window is allowed", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)

		allowed, _, err := s.CheckAndReserve("dev1", "GAS", base.Add(61*time.Second), testWindow)
		if err != nil {
			t.Fatalf("CheckAndReserve() error = %v", err)
		}
		if !allowed {
			t.Error("event after the window elapsed should be allowed")
		}
	})

	t.Run("boundary: exactly window elapsed is allowed", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)

		allowed, _, _ := s.CheckAndReserve("dev1", "GAS", base.Add(testWindow), testWindow)
		if !allowed {
			t.Error("age == window should no longer suppress")
		}
	})

	t.Run("categories are independent lanes", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)

		allowed, _, _ := s.CheckAndReserve("dev1", "FIRE", base.Add(time.Second), testWindow)
		if !allowed {
			t.Error("a different category on the same device should be allowed")
		}
	})

	t.Run("devices are independent", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)

		allowed, _, _ := s.CheckAndReserve("dev2", "GAS", base.Add(time.Second), testWindow)
		if !allowed {
			t.Error("the same category on a different device should be allowed")
		}
	})

	t.Run("suppressed call does not extend the window", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)
		// A burst of suppressed repeats must not push the expiry out.
		s.CheckAndReserve("dev1", "GAS", base.Add(30*time.Second), testWindow)
		s.CheckAndReserve("dev1", "GAS", base.Add(59*time.Second), testWindow)

		allowed, _, _ := s.CheckAndReserve("dev1", "GAS", base.Add(61*time.Second), testWindow)
		if !allowed {
			t.Error("window should be measured from the allowed event, not the last suppressed repeat")
		}
	})

	t.Run("allowed call restamps the window", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)
		s.CheckAndReserve("dev1", "GAS", base.Add(70*time.Second), testWindow)

		allowed, remaining, _ := s.CheckAndReserve("dev1", "GAS", base.Add(100*time.Second), testWindow)
		if allowed {
			t.Error("event 30s after a restamp should be suppressed")
		}
		if remaining != 30*time.Second {
			t.Errorf("remaining = %v, want 30s", remaining)
		}
	})

	t.Run("invalid window", func(t *testing.T) {
		s := NewCooldownStore()

		for _, window := range []time.Duration{0, -time.Second} {
			_, _, err := s.CheckAndReserve("dev1", "GAS", base, window)
			if !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("CheckAndReserve(window=%v) error = %v, want ErrInvalidWindow", window, err)
			}
		}
	})
}

// TestCooldownStore_ConcurrentReserve drives many goroutines at the
// same key at the same instant: exactly one may win.
func TestCooldownStore_ConcurrentReserve(t *testing.T) {
	s := NewCooldownStore()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	const goroutines = 64

	var (
		start   = make(chan struct{})
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			ok, _, err := s.CheckAndReserve("dev1", "GAS", now, testWindow)
			if err != nil {
				t.Errorf("CheckAndReserve() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}

	close(start)
	wg.Wait()

	if allowed != 1 {
		t.Errorf("allowed = %d, want exactly 1 winner", allowed)
	}
}

func TestCooldownStore_Sweep(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("removes expired entries and empty buckets", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)
		s.CheckAndReserve("dev1", "FIRE", base.Add(50*time.Second), testWindow)
		s.CheckAndReserve("dev2", "GAS", base, testWindow)

		// At base+70s: dev1/GAS and dev2/GAS are expired, dev1/FIRE is not.
		removed, err := s.Sweep(base.Add(70*time.Second), testWindow)
		if err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
		if removed != 2 {
			t.Errorf("removed = %d, want 2", removed)
		}
		if got := s.Entries(); got != 1 {
			t.Errorf("Entries() = %d, want 1", got)
		}
		if got := s.Devices(); got != 1 {
			t.Errorf("Devices() = %d, want 1 (dev2 bucket should be evicted)", got)
		}
	})

	t.Run("sweep does not change dedup behaviour", func(t *testing.T) {
		s := NewCooldownStore()

		s.CheckAndReserve("dev1", "GAS", base, testWindow)
		s.Sweep(base.Add(30*time.Second), testWindow)

		// Still inside the window: the live entry must survive the sweep.
		allowed, _, _ := s.CheckAndReserve("dev1", "GAS", base.Add(30*time.Second), testWindow)
		if allowed {
			t.Error("unexpired entry must survive a sweep and keep suppressing")
		}
	})

	t.Run("bounds memory across many devices", func(t *testing.T) {
		s := NewCooldownStore()

		for i := 0; i < 500; i++ {
			s.CheckAndReserve(fmt.Sprintf("dev%d", i), "GAS", base, testWindow)
		}

		removed, err := s.Sweep(base.Add(2*testWindow), testWindow)
		if err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
		if removed != 500 {
			t.Errorf("removed = %d, want 500", removed)
		}
		if got := s.Entries(); got != 0 {
			t.Errorf("Entries() = %d, want 0", got)
		}
		if got := s.Devices(); got != 0 {
			t.Errorf("Devices() = %d, want 0", got)
		}
	})

	t.Run("invalid window", func(t *testing.T) {
		s := NewCooldownStore()

		_, err := s.Sweep(base, 0)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("Sweep() error = %v, want ErrInvalidWindow", err)
		}
	})
}

// TestCooldownStore_SweepUnderLoad sweeps while reservations hammer the
// store, checking for races rather than exact counts.
func TestCooldownStore_SweepUnderLoad(t *testing.T) {
	s := NewCooldownStore()
	base := time.Now().UTC()

	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				deviceID := fmt.Sprintf("dev%d", i%20)
				s.CheckAndReserve(deviceID, "GAS", base.Add(time.Duration(i)*time.Millisecond), time.Millisecond)
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := s.Sweep(time.Now().UTC(), time.Millisecond); err != nil {
				t.Errorf("Sweep() error = %v", err)
				return
			}
		}
	}()

	wg.Wait()
}
