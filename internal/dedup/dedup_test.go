package dedup

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SeenAfterMark(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seen, err := store.Seen(ctx, "evt_123")
	require.NoError(t, err)
	assert.False(t, seen, "unrecorded event must not be seen")

	require.NoError(t, store.MarkProcessed(ctx, "evt_123"))

	seen, err = store.Seen(ctx, "evt_123")
	require.NoError(t, err)
	assert.True(t, seen, "recorded event must be seen")

	seen, err = store.Seen(ctx, "evt_456")
	require.NoError(t, err)
	assert.False(t, seen, "other ids stay unaffected")
}

func TestMemoryStore_UnmarkedEventStaysFresh(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// A delivery whose processing failed never marks the id, so every
	// retry checks as unseen until one succeeds.
	for i := 0; i < 3; i++ {
		seen, err := store.Seen(ctx, "evt_retry")
		require.NoError(t, err)
		assert.False(t, seen)
	}

	require.NoError(t, store.MarkProcessed(ctx, "evt_retry"))

	seen, err := store.Seen(ctx, "evt_retry")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryStore_MarkIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.MarkProcessed(ctx, "evt_twice"))
	require.NoError(t, store.MarkProcessed(ctx, "evt_twice"))

	seen, err := store.Seen(ctx, "evt_twice")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const goroutines = 20
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("evt_%d", i%5)
			_, err := store.Seen(ctx, id)
			require.NoError(t, err)
			require.NoError(t, store.MarkProcessed(ctx, id))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		seen, err := store.Seen(ctx, fmt.Sprintf("evt_%d", i))
		require.NoError(t, err)
		assert.True(t, seen)
	}
}
