package dedup

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/loyara/internal/clock"
)

// Event identifies one webhook delivery. Redeliveries carry the same scope,
// subject id, and creation timestamp, so the tuple doubles as the dedup key.
type Event struct {
	Scope     string
	SubjectID int64
	CreatedAt int64
}

func (e Event) Key() string {
	return strings.Join([]string{
		strings.TrimSpace(e.Scope),
		strconv.FormatInt(e.SubjectID, 10),
		strconv.FormatInt(e.CreatedAt, 10),
	}, "|")
}

// Deduplicator suppresses near-simultaneous redelivery of the same event.
// Best effort only: the window is short and the memory backend does not
// survive a restart.
type Deduplicator interface {
	ShouldProcess(ctx context.Context, event Event) (bool, error)
}

type memoryStore struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	window  time.Duration
	clock   clock.Clock
	stop    chan struct{}
	stopped sync.Once
}

// NewMemoryStore returns the default process-local deduplicator. A janitor
// goroutine bounds memory by evicting expired keys between checks.
func NewMemoryStore(window time.Duration, clk clock.Clock) *memoryStore {
	s := &memoryStore{
		seen:   make(map[string]time.Time),
		window: window,
		clock:  clk,
		stop:   make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *memoryStore) ShouldProcess(_ context.Context, event Event) (bool, error) {
	key := event.Key()
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}
	s.seen[key] = now.Add(s.window)
	return true, nil
}

func (s *memoryStore) janitor() {
	ticker := time.NewTicker(s.window)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := s.clock.Now()
			s.mu.Lock()
			for key, expiry := range s.seen {
				if !now.Before(expiry) {
					delete(s.seen, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *memoryStore) Close() {
	s.stopped.Do(func() { close(s.stop) })
}
