package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccms/internal/domain"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	var delays []time.Duration
	got, attempts, err := Do(context.Background(), Policy{Attempts: 3, BaseDelay: time.Millisecond},
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		},
		func(_ int, _ error, next time.Duration) { delays = append(delays, next) },
	)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
	require.Len(t, delays, 2)
	assert.Equal(t, time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
}

func TestDoStopsAfterAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	_, attempts, err := Do(context.Background(), Policy{Attempts: 3, BaseDelay: time.Millisecond},
		func(context.Context) (int, error) {
			calls++
			return 0, errors.New("always")
		}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, attempts)
}

func TestDoPermanentError(t *testing.T) {
	t.Parallel()

	calls := 0
	_, _, err := Do(context.Background(), Policy{Attempts: 5, BaseDelay: time.Millisecond},
		func(context.Context) (int, error) {
			calls++
			return 0, Permanent(errors.New("bad request"))
		}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFromSettings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultPolicy(), FromSettings(domain.RetrySettings{}))
	assert.Equal(t, Policy{Attempts: 5, BaseDelay: 400 * time.Millisecond},
		FromSettings(domain.RetrySettings{Attempts: 5, BaseMS: 400}))
}
