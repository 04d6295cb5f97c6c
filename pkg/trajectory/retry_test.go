package trajectory

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NoWait()

	assert.NoError(t, p.Wait(ctx, 0))
	assert.NoError(t, p.Wait(ctx, 1000))

	cancel()
	assert.ErrorIs(t, p.Wait(ctx, 1), context.Canceled)
}

func TestFixedDelaySkipsFirstAttempt(t *testing.T) {
	p := FixedDelay(time.Hour)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), 0))
	assert.Less(t, time.Since(start), time.Second)
}

func TestFixedDelayWaits(t *testing.T) {
	p := FixedDelay(20 * time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), 1))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPolicyWaitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := FixedDelay(time.Hour).Wait(ctx, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPolicyFuncSeesEveryAttempt(t *testing.T) {
	var seen []int
	p := PolicyFunc(func(attempt int) time.Duration {
		seen = append(seen, attempt)
		return 0
	})

	for attempt := 0; attempt < 3; attempt++ {
		require.NoError(t, p.Wait(context.Background(), attempt))
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestLinearIsCapped(t *testing.T) {
	fn := Linear(time.Millisecond, 3*time.Millisecond).(PolicyFunc)

	var got []time.Duration
	for attempt := 0; attempt < 6; attempt++ {
		got = append(got, fn(attempt))
	}
	assert.Equal(t, []time.Duration{
		0, time.Millisecond, 2 * time.Millisecond,
		3 * time.Millisecond, 3 * time.Millisecond, 3 * time.Millisecond,
	}, got)
}

func TestBackoffPolicyKeepsLastIntervalAfterStop(t *testing.T) {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 1)
	p := Backoff(b)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx, 0))
	require.NoError(t, p.Wait(ctx, 1))
	assert.Equal(t, time.Millisecond, p.last)

	// the schedule is exhausted, the policy must keep retrying
	require.NoError(t, p.Wait(ctx, 2))
	assert.Equal(t, time.Millisecond, p.last)

	// a new fetch resets the schedule
	require.NoError(t, p.Wait(ctx, 0))
	assert.Equal(t, time.Duration(0), p.last)
}

func TestExponentialBackoffGrows(t *testing.T) {
	p := ExponentialBackoff(time.Millisecond, 4*time.Millisecond)
	eb := p.b.(*backoff.ExponentialBackOff)
	eb.RandomizationFactor = 0

	ctx := context.Background()
	require.NoError(t, p.Wait(ctx, 0))

	var got []time.Duration
	for attempt := 1; attempt <= 6; attempt++ {
		require.NoError(t, p.Wait(ctx, attempt))
		got = append(got, p.last)
	}

	assert.Equal(t, time.Millisecond, got[0])
	assert.Equal(t, 4*time.Millisecond, got[len(got)-1])
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
}

func TestExponentialBackoffWithoutLimitKeepsGrowing(t *testing.T) {
	p := ExponentialBackoff(time.Millisecond, 0)
	eb := p.b.(*backoff.ExponentialBackOff)
	eb.RandomizationFactor = 0

	ctx := context.Background()
	require.NoError(t, p.Wait(ctx, 0))

	var got []time.Duration
	for attempt := 1; attempt <= 5; attempt++ {
		require.NoError(t, p.Wait(ctx, attempt))
		got = append(got, p.last)
	}

	assert.Equal(t, time.Millisecond, got[0])
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
	}
}
