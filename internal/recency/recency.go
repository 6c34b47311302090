package recency

import (
	"sync"
	"time"

	"github.com/smallbiznis/loyara/internal/clock"
)

// Tracker remembers which customers qualified within the recency window so
// the storefront popup fires exactly once. Marks are volatile; a restart
// simply suppresses the popup.
type Tracker struct {
	mu      sync.Mutex
	marks   map[int64]time.Time
	window  time.Duration
	clock   clock.Clock
	stop    chan struct{}
	stopped sync.Once
}

func NewTracker(window time.Duration, clk clock.Clock) *Tracker {
	t := &Tracker{
		marks:  make(map[int64]time.Time),
		window: window,
		clock:  clk,
		stop:   make(chan struct{}),
	}
	go t.evictLoop()
	return t
}

// MarkQualified records that the customer just qualified. At most one mark
// per customer; a re-qualification refreshes the instant.
func (t *Tracker) MarkQualified(customerID int64, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marks[customerID] = now
}

// ConsumeIfRecent reports whether the customer qualified within the window
// and destroys the mark on first read.
func (t *Tracker) ConsumeIfRecent(customerID int64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	marked, ok := t.marks[customerID]
	if !ok {
		return false
	}
	delete(t.marks, customerID)
	return now.Sub(marked) <= t.window
}

func (t *Tracker) evictLoop() {
	ticker := time.NewTicker(t.window)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			cutoff := t.clock.Now().Add(-t.window)
			t.mu.Lock()
			for id, marked := range t.marks {
				if marked.Before(cutoff) {
					delete(t.marks, id)
				}
			}
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) Close() {
	t.stopped.Do(func() { close(t.stop) })
}
