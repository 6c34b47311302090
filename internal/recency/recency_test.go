package recency

import (
	"testing"
	"time"

	"github.com/smallbiznis/loyara/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestConsumeIsOneShot(t *testing.T) {
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	tracker := NewTracker(10*time.Minute, fakeClock)
	defer tracker.Close()

	tracker.MarkQualified(42, fakeClock.Now())

	assert.True(t, tracker.ConsumeIfRecent(42, fakeClock.Now()))
	assert.False(t, tracker.ConsumeIfRecent(42, fakeClock.Now()))
}

func TestConsumeOutsideWindowIsStale(t *testing.T) {
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	tracker := NewTracker(10*time.Minute, fakeClock)
	defer tracker.Close()

	tracker.MarkQualified(42, fakeClock.Now())
	fakeClock.Advance(11 * time.Minute)

	assert.False(t, tracker.ConsumeIfRecent(42, fakeClock.Now()))
	// The stale mark is consumed either way.
	assert.False(t, tracker.ConsumeIfRecent(42, fakeClock.Now()))
}

func TestUnknownCustomerIsNotRecent(t *testing.T) {
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	tracker := NewTracker(10*time.Minute, fakeClock)
	defer tracker.Close()

	assert.False(t, tracker.ConsumeIfRecent(7, fakeClock.Now()))
}

func TestRemarkRefreshesInstant(t *testing.T) {
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	tracker := NewTracker(10*time.Minute, fakeClock)
	defer tracker.Close()

	tracker.MarkQualified(42, fakeClock.Now())
	fakeClock.Advance(9 * time.Minute)
	tracker.MarkQualified(42, fakeClock.Now())
	fakeClock.Advance(9 * time.Minute)

	assert.True(t, tracker.ConsumeIfRecent(42, fakeClock.Now()))
}
