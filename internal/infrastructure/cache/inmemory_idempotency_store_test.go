package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("second mark reports duplicate", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore(time.Hour)
		defer store.Close()

		isNew, err := store.MarkProcessed(ctx, "evt-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "evt-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)

		processed, err := store.IsProcessed(ctx, "evt-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("expired entries can be marked again", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore(time.Hour)
		defer store.Close()
		now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		_, _ = store.MarkProcessed(ctx, "evt-2", time.Minute)
		now = now.Add(2 * time.Minute)

		processed, err := store.IsProcessed(ctx, "evt-2")
		require.NoError(t, err)
		assert.False(t, processed)

		isNew, err := store.MarkProcessed(ctx, "evt-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("release forgets the id", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore(time.Hour)
		defer store.Close()

		_, _ = store.MarkProcessed(ctx, "evt-3", time.Hour)
		require.NoError(t, store.Release(ctx, "evt-3"))

		isNew, err := store.MarkProcessed(ctx, "evt-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("sweep drops expired ids", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore(time.Hour)
		defer store.Close()
		now := time.Now()
		store.now = func() time.Time { return now }

		_, _ = store.MarkProcessed(ctx, "short", time.Second)
		_, _ = store.MarkProcessed(ctx, "long", time.Hour)
		now = now.Add(time.Minute)
		store.sweep()

		assert.Equal(t, 1, store.Size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore(time.Millisecond)
		assert.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}
