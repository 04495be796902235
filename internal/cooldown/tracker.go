package cooldown

import (
	"sync"
	"time"
)

// Key identifies one (connection, destination) pair.
type Key struct {
	ConnectionID string
	Destination  string
}

type entry struct {
	lastAlertedAt time.Time
	expiresAt     time.Time
}

// Tracker suppresses repeat alerts for a pair within a cooldown window.
//
// State lives in memory only. Entries disappear when their connection
// leaves the feed or passes its expiry, so a reused feed id starts fresh.
type Tracker struct {
	mu      sync.Mutex
	entries map[Key]entry
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[Key]entry)}
}

// ShouldAlert reports whether the pair may fire at now. It does not mark.
func (t *Tracker) ShouldAlert(connID, destination string, now time.Time, cooldown time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[Key{connID, destination}]
	if !ok {
		return true
	}
	return !now.Before(e.lastAlertedAt.Add(cooldown))
}

// MarkAlerted records a successful delivery for the pair.
// expiresAt is the connection's expected collapse; zero means unknown.
func (t *Tracker) MarkAlerted(connID, destination string, now, expiresAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[Key{connID, destination}] = entry{lastAlertedAt: now, expiresAt: expiresAt}
}

// Reap drops entries whose connection is absent from live, or whose
// expiry is before now. live maps connection id to its current expiry,
// which replaces the recorded one. Returns the number of entries removed.
func (t *Tracker) Reap(live map[string]time.Time, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, e := range t.entries {
		exp, ok := live[k.ConnectionID]
		if !ok {
			delete(t.entries, k)
			removed++
			continue
		}
		e.expiresAt = exp
		if !e.expiresAt.IsZero() && e.expiresAt.Before(now) {
			delete(t.entries, k)
			removed++
			continue
		}
		t.entries[k] = e
	}
	return removed
}

// Len is the number of tracked pairs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
