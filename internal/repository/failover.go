package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"slotbook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverAttemptLimiter uses primary until it errors, then serves from fallback
// and retries primary once per recoveryInterval.
type FailoverAttemptLimiter struct {
	primary  domain.AttemptLimiter
	fallback domain.AttemptLimiter
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

var _ domain.AttemptLimiter = (*FailoverAttemptLimiter)(nil)

func NewFailoverAttemptLimiter(primary, fallback domain.AttemptLimiter, logger *zerolog.Logger) *FailoverAttemptLimiter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverAttemptLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverAttemptLimiter) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary attempt limiter failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

// shouldRetry reports whether a down primary is due for a recovery attempt.
func (r *FailoverAttemptLimiter) shouldRetry() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.now().Sub(r.lastCheck) <= recoveryInterval {
		return false
	}
	r.lastCheck = r.now()
	return true
}

func (r *FailoverAttemptLimiter) usePrimary() bool {
	return !r.isDown.Load() || r.shouldRetry()
}

func (r *FailoverAttemptLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		wasDown := r.isDown.Load()
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			if wasDown {
				r.isDown.Store(false)
				r.logger.Info().Msg("Primary attempt limiter recovered")
			}
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverAttemptLimiter) Reset(ctx context.Context, key string) error {
	// Both sides are cleared so a counter never survives on the side not in use.
	fallbackErr := r.fallback.Reset(ctx, key)
	if !r.isDown.Load() {
		if err := r.primary.Reset(ctx, key); err != nil {
			r.markDown(err)
		}
	}
	return fallbackErr
}
