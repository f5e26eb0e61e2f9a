package alert

import (
	"context"
	"sync"
	"time"
)

// Janitor periodically sweeps expired entries out of a cooldown store.
//
// The janitor only bounds memory. Correctness never depends on its
// timing: CheckAndReserve treats an expired entry and a missing entry
// identically, so a late or missed sweep changes nothing observable.
type Janitor struct {
	store    *CooldownStore
	window   time.Duration
	interval time.Duration
	logger   Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewJanitor creates a janitor for the given store. The window must
// match the listener's suppression window; the interval controls how
// often expired entries are evicted.
func NewJanitor(store *CooldownStore, window, interval time.Duration, logger Logger) *Janitor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Janitor{
		store:    store,
		window:   window,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in a background goroutine. The loop
// runs until Stop is called or ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)

	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				j.sweep(now.UTC())
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit. Safe to call
// more than once. Entries still in the store at shutdown are simply
// discarded with the process.
func (j *Janitor) Stop() {
	j.once.Do(func() {
		if j.cancel != nil {
			j.cancel()
		}
		<-j.done
	})
}

func (j *Janitor) sweep(now time.Time) {
	removed, err := j.store.Sweep(now, j.window)
	if err != nil {
		j.logger.Error("cooldown sweep failed", "error", err)
		return
	}

	j.logger.Debug("cooldown sweep complete",
		"removed", removed,
		"active_devices", j.store.Devices(),
		"active_entries", j.store.Entries(),
	)
}
