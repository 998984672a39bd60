package verification

import (
	"context"
	"time"

	"github.com/linesmerrill/marketplace-api/cache"
)

// RateLimiter caps attempts per user inside a fixed window that starts at the
// first attempt. Concurrent attempts by the same user may let one extra
// attempt through.
type RateLimiter struct {
	counter     cache.Counter
	prefix      string
	window      time.Duration
	maxAttempts int
}

// NewRateLimiter returns a limiter whose keys are prefix+":"+userID
func NewRateLimiter(counter cache.Counter, prefix string, window time.Duration, maxAttempts int) *RateLimiter {
	return &RateLimiter{
		counter:     counter,
		prefix:      prefix,
		window:      window,
		maxAttempts: maxAttempts,
	}
}

func (l *RateLimiter) key(userID string) string {
	return l.prefix + ":" + userID
}

// CheckAndIncrement records an attempt for userID. It returns false without
// counting once the user has used up the window's budget.
func (l *RateLimiter) CheckAndIncrement(ctx context.Context, userID string) (bool, int, error) {
	current, ok, err := l.counter.Get(ctx, l.key(userID))
	if err != nil {
		return false, 0, err
	}
	if ok && current >= int64(l.maxAttempts) {
		return false, int(current), nil
	}
	n, err := l.counter.Increment(ctx, l.key(userID), l.window)
	if err != nil {
		return false, 0, err
	}
	return true, int(n), nil
}

// Reset clears the attempt budget for userID
func (l *RateLimiter) Reset(ctx context.Context, userID string) error {
	return l.counter.Evict(ctx, l.key(userID))
}
