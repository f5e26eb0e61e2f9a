package alert

import (
	"sync"
	"time"
)

// CooldownStore tracks when each (device, category) pair last fired, so
// repeated warnings inside the suppression window produce one dispatch.
//
// The store is the single owner of all cooldown state for the process.
// Entries are keyed two levels deep (device id, then category) so a
// device whose categories have all expired can be evicted as a bucket.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - CheckAndReserve is atomic per key: the suppression test and the
//     timestamp stamp happen inside one critical section, so two
//     concurrent calls for the same key can never both be allowed
//     within one window.
type CooldownStore struct {
	mu      sync.Mutex
	devices map[string]map[string]time.Time
}

// NewCooldownStore creates an empty cooldown store.
func NewCooldownStore() *CooldownStore {
	return &CooldownStore{
		devices: make(map[string]map[string]time.Time),
	}
}

// CheckAndReserve atomically tests whether the (deviceID, category) key
// is outside its suppression window and, if so, stamps the key with now.
//
// The test and the stamp are deliberately one operation: splitting them
// would let two events arriving together both observe "not suppressed"
// and both dispatch.
//
// A key is allowed when it has never fired, or when at least window has
// elapsed since its last firing. The timestamp only ever moves forward:
// a suppressed call leaves the entry untouched.
//
// Parameters:
//   - deviceID: The device the warning came from
//   - category: The alert category (one suppression lane per pair)
//   - now: The event's ingestion timestamp
//   - window: The suppression window (must be positive)
//
// Returns:
//   - allowed: true if the caller may dispatch this event
//   - remaining: time left in the window when suppressed (zero if allowed)
//   - error: ErrInvalidWindow for a non-positive window
func (s *CooldownStore) CheckAndReserve(deviceID, category string, now time.Time, window time.Duration) (allowed bool, remaining time.Duration, err error) {
	if window <= 0 {
		return false, 0, ErrInvalidWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	categories := s.devices[deviceID]
	if last, ok := categories[category]; ok {
		if age := now.Sub(last); age < window {
			return false, window - age, nil
		}
	}

	if categories == nil {
		categories = make(map[string]time.Time)
		s.devices[deviceID] = categories
	}
	categories[category] = now

	return true, 0, nil
}

// Sweep removes every entry whose age is at least window, and every
// device bucket left without categories. It exists purely to bound
// memory: an absent entry and an expired entry behave identically in
// CheckAndReserve, so sweeping early or late never changes dedup
// behaviour.
//
// The sweep reacquires the lock per device bucket rather than holding
// it for the whole pass, so reservations proceed between batches.
// A bucket reserved between the snapshot and its batch is simply found
// fresh and kept.
//
// Returns:
//   - removed: the number of (device, category) entries evicted
//   - error: ErrInvalidWindow for a non-positive window
func (s *CooldownStore) Sweep(now time.Time, window time.Duration) (removed int, err error) {
	if window <= 0 {
		return 0, ErrInvalidWindow
	}

	// Snapshot the device keys; each bucket is processed under its own
	// lock acquisition.
	s.mu.Lock()
	deviceIDs := make([]string, 0, len(s.devices))
	for id := range s.devices {
		deviceIDs = append(deviceIDs, id)
	}
	s.mu.Unlock()

	for _, id := range deviceIDs {
		s.mu.Lock()
		categories, ok := s.devices[id]
		if !ok {
			s.mu.Unlock()
			continue
		}
		for category, last := range categories {
			if now.Sub(last) >= window {
				delete(categories, category)
				removed++
			}
		}
		if len(categories) == 0 {
			delete(s.devices, id)
		}
		s.mu.Unlock()
	}

	return removed, nil
}

// Devices returns the number of device buckets currently tracked.
func (s *CooldownStore) Devices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices)
}

// Entries returns the number of (device, category) entries currently
// tracked.
func (s *CooldownStore) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, categories := range s.devices {
		n += len(categories)
	}
	return n
}
