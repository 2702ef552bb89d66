package auth

import (
	"context"
	"strconv"
	"time"

	"sweetshop/internal/cache"
)

const failedLoginKeyPrefix = "login_failures:"

// LoginThrottle counts failed logins per email.
type LoginThrottle interface {
	Locked(ctx context.Context, email string) bool
	RecordFailure(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

// AttemptStore keeps failed-login counters in Redis. It fails open: when
// Redis is unavailable nobody is locked out.
type AttemptStore struct {
	cache       *cache.Client
	maxAttempts int64
	window      time.Duration
}

// Ensure AttemptStore implements LoginThrottle
var _ LoginThrottle = (*AttemptStore)(nil)

// NewAttemptStore creates a new attempt store. maxAttempts <= 0 disables the
// lockout.
func NewAttemptStore(cache *cache.Client, maxAttempts int, window time.Duration) *AttemptStore {
	return &AttemptStore{
		cache:       cache,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

// Locked reports whether the email reached the failure limit within the window.
func (s *AttemptStore) Locked(ctx context.Context, email string) bool {
	if s.maxAttempts <= 0 {
		return false
	}
	data, _ := s.cache.Get(ctx, failedLoginKeyPrefix+email)
	if data == nil {
		return false
	}
	return parseCount(data) >= s.maxAttempts
}

// RecordFailure increments the failure counter.
func (s *AttemptStore) RecordFailure(ctx context.Context, email string) {
	if s.maxAttempts <= 0 {
		return
	}
	_, _ = s.cache.Incr(ctx, failedLoginKeyPrefix+email, s.window)
}

// Reset clears the failure counter after a successful login.
func (s *AttemptStore) Reset(ctx context.Context, email string) {
	_ = s.cache.Delete(ctx, failedLoginKeyPrefix+email)
}

func parseCount(data []byte) int64 {
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
