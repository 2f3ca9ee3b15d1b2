package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, Delay: time.Millisecond}

	err := p.Do(context.Background(), func(int) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, Delay: time.Millisecond}

	err := p.Do(context.Background(), func(int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	calls := 0
	last := errors.New("still failing")
	p := Policy{Attempts: 3, Delay: time.Millisecond}

	err := p.Do(context.Background(), func(int) error {
		calls++
		return last
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, last, err)
}

func TestDo_DelayElapsesBetweenAttempts(t *testing.T) {
	const delay = 20 * time.Millisecond
	p := Policy{Attempts: 3, Delay: delay}

	start := time.Now()
	_ = p.Do(context.Background(), func(int) error {
		return errors.New("fail")
	})

	// Two pauses between three attempts.
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	p := Policy{
		Attempts:  5,
		Delay:     time.Millisecond,
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	}

	err := p.Do(context.Background(), func(int) error {
		calls++
		return fatal
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, fatal, err)
}

func TestDo_AttemptNumbersAreOneBased(t *testing.T) {
	var seen []int
	p := Policy{Attempts: 3, Delay: time.Millisecond}

	_ = p.Do(context.Background(), func(attempt int) error {
		seen = append(seen, attempt)
		return errors.New("fail")
	})

	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	p := Policy{}

	_ = p.Do(context.Background(), func(int) error {
		calls++
		return errors.New("fail")
	})

	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 3, Delay: time.Second}

	err := p.Do(ctx, func(int) error {
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
