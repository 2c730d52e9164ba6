package fault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return cfg
}

func TestRetryValRecoversFromTransient(t *testing.T) {
	calls := 0
	got, err := RetryVal(context.Background(), fastRetryConfig(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransient(errors.New("503"), 503)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetryValStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := RetryVal(context.Background(), fastRetryConfig(), func(context.Context) (string, error) {
		calls++
		return "", errors.New("400 bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryValExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := RetryVal(context.Background(), fastRetryConfig(), func(context.Context) (int, error) {
		calls++
		return 0, NewTransient(errors.New("503"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryValStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := RetryVal(ctx, fastRetryConfig(), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransient(errors.New("503"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
