package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttemptLimiter(t *testing.T) {
	repo := NewMemoryAttemptLimiter()
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("Limit", func(t *testing.T) {
		allowed, _ := repo.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.True(t, allowed)
		allowed, err := repo.CheckRateLimit(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("KeysIndependent", func(t *testing.T) {
		allowed, _ := repo.CheckRateLimit(ctx, "other", 2, time.Minute)
		assert.True(t, allowed)
	})

	t.Run("WindowExpires", func(t *testing.T) {
		now = now.Add(time.Minute)
		allowed, _ := repo.CheckRateLimit(ctx, "k", 2, time.Minute)
		assert.True(t, allowed)
	})

	t.Run("Reset", func(t *testing.T) {
		_, _ = repo.CheckRateLimit(ctx, "r", 1, time.Minute)
		allowed, _ := repo.CheckRateLimit(ctx, "r", 1, time.Minute)
		assert.False(t, allowed)

		require.NoError(t, repo.Reset(ctx, "r"))
		allowed, _ = repo.CheckRateLimit(ctx, "r", 1, time.Minute)
		assert.True(t, allowed)
	})

	t.Run("Sweep", func(t *testing.T) {
		for i := 0; i < 1100; i++ {
			_, _ = repo.CheckRateLimit(ctx, fmt.Sprintf("sweep-%d", i), 1, time.Second)
		}
		now = now.Add(time.Hour)
		_, _ = repo.CheckRateLimit(ctx, "fresh", 1, time.Minute)

		repo.mu.Lock()
		defer repo.mu.Unlock()
		assert.Len(t, repo.entries, 1)
	})
}

func TestMemoryAttemptLimiterConcurrent(t *testing.T) {
	repo := NewMemoryAttemptLimiter()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := repo.CheckRateLimit(ctx, "shared", 10, time.Minute)
			if ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowedCount)
}
