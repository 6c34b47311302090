package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/loyara/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSuppressesWithinWindow(t *testing.T) {
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(60*time.Second, fakeClock)
	defer store.Close()

	event := Event{Scope: "store/order/created", SubjectID: 500, CreatedAt: 1757500000}

	first, err := store.ShouldProcess(context.Background(), event)
	require.NoError(t, err)
	second, err := store.ShouldProcess(context.Background(), event)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestMemoryStoreReadmitsAfterWindow(t *testing.T) {
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(60*time.Second, fakeClock)
	defer store.Close()

	event := Event{Scope: "store/order/created", SubjectID: 500, CreatedAt: 1757500000}

	ok, err := store.ShouldProcess(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, ok)

	fakeClock.Advance(61 * time.Second)

	ok, err = store.ShouldProcess(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreDistinguishesEventIdentity(t *testing.T) {
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(60*time.Second, fakeClock)
	defer store.Close()

	base := Event{Scope: "store/order/created", SubjectID: 500, CreatedAt: 1757500000}
	sameOrderLaterEvent := Event{Scope: "store/order/created", SubjectID: 500, CreatedAt: 1757500099}
	otherScope := Event{Scope: "store/cart/converted", SubjectID: 500, CreatedAt: 1757500000}

	ok, _ := store.ShouldProcess(context.Background(), base)
	assert.True(t, ok)
	ok, _ = store.ShouldProcess(context.Background(), sameOrderLaterEvent)
	assert.True(t, ok)
	ok, _ = store.ShouldProcess(context.Background(), otherScope)
	assert.True(t, ok)
}

func TestEventKey(t *testing.T) {
	event := Event{Scope: "store/order/created", SubjectID: 500, CreatedAt: 1757500000}
	assert.Equal(t, "store/order/created|500|1757500000", event.Key())
}
