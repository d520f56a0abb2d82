package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SEMOSS/procode-training/internal/platform/retry"
)

var quick = retry.Policy{
	Attempts:        3,
	Backoff:         time.Millisecond,
	ThrottleBackoff: 2 * time.Millisecond,
}

func always(action retry.Action) retry.Classify {
	return func(error) retry.Action { return action }
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	calls := 0
	val, err := retry.Do(context.Background(), quick, always(retry.Retry), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection reset")
		}
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, val)
	require.Equal(t, 3, calls)
}

func TestDo_StopIsPermanent(t *testing.T) {
	t.Parallel()
	bad := errors.New("bad request")
	calls := 0
	_, err := retry.Do(context.Background(), quick, always(retry.Stop), func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, bad
	})
	var perm *retry.PermanentError
	require.ErrorAs(t, err, &perm)
	require.ErrorIs(t, err, bad)
	require.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterAttempts(t *testing.T) {
	t.Parallel()
	var waits []time.Duration
	p := quick
	p.OnRetry = func(_ int, _ error, wait time.Duration) { waits = append(waits, wait) }

	transient := errors.New("503")
	_, err := retry.Do(context.Background(), p, always(retry.After), func(context.Context) (string, error) {
		return "", transient
	})
	require.ErrorIs(t, err, transient)
	require.Equal(t, []time.Duration{2 * time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	t.Parallel()
	calls := 0
	_, err := retry.Do(context.Background(), retry.Policy{}, always(retry.Retry), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{Attempts: 5, Backoff: time.Hour}
	_, err := retry.Do(ctx, p, always(retry.Retry), func(context.Context) (int, error) {
		cancel()
		return 0, errors.New("down")
	})
	require.ErrorIs(t, err, context.Canceled)
}
