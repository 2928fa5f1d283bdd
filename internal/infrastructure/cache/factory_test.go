package cache

import (
	"context"
	"testing"

	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIdempotencyStoreFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses memory", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{}, WithLogger(zap.NewNop()))

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)

		_, err = f.CreateRedisStore(ctx)
		assert.ErrorIs(t, err, ErrRedisDisabled)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1})

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Host: "127.0.0.1", Port: 1}, WithInMemoryFallback(false))

		_, err := f.CreateStore(ctx)
		assert.Error(t, err)
	})
}
