package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osutrack-bridge/internal/domain"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return domain.ErrTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("get_user: %w", domain.ErrRateLimited)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryDeterministicFailures(t *testing.T) {
	for _, sentinel := range []error{
		domain.ErrUpstream,
		domain.ErrAuthentication,
		domain.ErrNotFound,
		domain.ErrNoCredential,
	} {
		calls := 0
		err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
			calls++
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls, "error %v must not be retried", sentinel)
	}
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := Policy{MaxAttempts: 5, BaseDelay: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func(ctx context.Context) error {
			calls++
			return domain.ErrTransient
		})
	}()

	// give the first attempt time to fail, then abort the backoff wait
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDelayBounds(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 25 * time.Millisecond}

	for i := 0; i < 50; i++ {
		d1 := p.delay(1)
		assert.GreaterOrEqual(t, d1, 10*time.Millisecond)
		assert.LessOrEqual(t, d1, 15*time.Millisecond)

		// uncapped second retry doubles, capped at MaxDelay before jitter
		d3 := p.delay(3)
		assert.GreaterOrEqual(t, d3, 25*time.Millisecond)
		assert.LessOrEqual(t, d3, 38*time.Millisecond)
	}
}

func TestDoZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
