package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{ timeout bool }

func (e timeoutErr) Error() string   { return "net" }
func (e timeoutErr) Timeout() bool   { return e.timeout }
func (e timeoutErr) Temporary() bool { return false }

var errPermanent = errors.New("permanent")

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	p := New(Config{}, func(err error) (bool, bool) {
		if errors.Is(err, errPermanent) {
			return false, true
		}
		return false, false
	})

	require.False(t, p.ShouldRetry(nil, 1))
	require.True(t, p.ShouldRetry(errors.New("boom"), 1))
	require.False(t, p.ShouldRetry(errors.New("boom"), 3))
	require.False(t, p.ShouldRetry(fmt.Errorf("wrap: %w", context.Canceled), 1))
	require.False(t, p.ShouldRetry(context.DeadlineExceeded, 1))
	require.True(t, p.ShouldRetry(timeoutErr{timeout: true}, 1))
	require.False(t, p.ShouldRetry(timeoutErr{timeout: false}, 1))
	require.False(t, p.ShouldRetry(fmt.Errorf("call: %w", errPermanent), 1))
}

func TestBackoffBounds(t *testing.T) {
	t.Parallel()

	p := New(Config{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second})
	require.Equal(t, 5, p.MaxAttempts())
	for attempt := 0; attempt < 6; attempt++ {
		d := p.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, time.Second)
	}
	require.GreaterOrEqual(t, p.Backoff(10), 500*time.Millisecond)
}

func TestSleepHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Minute), context.Canceled)
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
}
