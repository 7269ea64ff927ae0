package notify

import (
	"sync"
	"time"
)

// Throttle enforces a per-class-label cooldown between alerts. Entries
// are created on the first attempt for a label and never removed; the
// set of tracked classes is small and fixed.
type Throttle struct {
	cooldown     time.Duration
	mu           sync.Mutex
	lastNotified map[string]time.Time
	now          func() time.Time
}

// NewThrottle creates a Throttle with the given cooldown.
func NewThrottle(cooldown time.Duration) *Throttle {
	return &Throttle{
		cooldown:     cooldown,
		lastNotified: make(map[string]time.Time),
		now:          time.Now,
	}
}

// Allow reports whether an alert may fire for the label, and records
// the fire time when it may. The check-and-update is atomic under the
// lock, so two concurrent detections of the same class within the
// cooldown window cannot both pass.
func (t *Throttle) Allow(label string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.lastNotified[label]; ok && now.Sub(last) < t.cooldown {
		return false
	}

	t.lastNotified[label] = now
	return true
}
