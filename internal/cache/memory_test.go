package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get returns value", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

		val, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v"), val)
	})

	t.Run("missing key is a miss", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.Get(ctx, "nope")
		require.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("expired entry is a miss and gets removed", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, "k", []byte("v"), 10*time.Millisecond))

		time.Sleep(20 * time.Millisecond)

		_, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, ErrCacheMiss)

		// Ленивая зачистка действительно удалила запись
		s.mu.RLock()
		_, exists := s.entries["k"]
		s.mu.RUnlock()
		require.False(t, exists)
	})

	t.Run("zero ttl means no expiry", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))

		val, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v"), val)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
		require.NoError(t, s.Delete(ctx, "k"))
		require.NoError(t, s.Delete(ctx, "k"))

		_, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, ErrCacheMiss)
	})
}
