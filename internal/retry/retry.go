package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/osutrack-bridge/internal/domain"
)

// Policy bounds how often a retryable upstream call is reattempted.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns the standard upstream policy: three attempts with
// exponential backoff starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Do invokes fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. Between attempts it sleeps an exponentially
// growing delay with up to 50% jitter, honoring context cancellation
// during the wait. The last error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay(attempt)):
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			return err
		}
	}
	return err
}

// delay computes the backoff before retry number attempt (1-based).
func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	d := base << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}
