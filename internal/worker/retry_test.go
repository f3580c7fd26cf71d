package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}
}

func TestRetryPolicyDefaults(t *testing.T) {
	var policy RetryPolicy
	assert.Equal(t, time.Second, policy.NextDelay(0))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
}

func TestRetryPolicyDo(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	ctx := context.Background()

	t.Run("EventualSuccess", func(t *testing.T) {
		calls := 0
		var retried []int
		err := policy.Do(ctx, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		}, func(attempt int, _ error) { retried = append(retried, attempt) })

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retried)
	})

	t.Run("Exhausted", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := policy.Do(ctx, func(context.Context) error {
			calls++
			return boom
		}, nil)

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 4, calls)
	})

	t.Run("ContextCanceled", func(t *testing.T) {
		slow := RetryPolicy{MaxRetries: 10, InitialDelay: time.Hour}
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := slow.Do(cctx, func(context.Context) error { return errors.New("down") }, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
