package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func fastConfig() Config {
	return Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), zerolog.Nop(), func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), zerolog.Nop(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("503 service unavailable")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), zerolog.Nop(), func() error {
		calls++
		return fmt.Errorf("422 validation failed")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), zerolog.Nop(), func() error {
		calls++
		return fmt.Errorf("rate limit exceeded")
	})
	assert.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), zerolog.Nop(), func() error {
		return fmt.Errorf("timeout")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("connection reset by peer")))
	assert.True(t, IsRetryable(fmt.Errorf("HTTP 429 Too Many Requests")))
	assert.False(t, IsRetryable(fmt.Errorf("401 unauthorized")))
	assert.False(t, IsRetryable(nil))
}

func TestCalculateDelayCapped(t *testing.T) {
	cfg := Config{BaseDelay: time.Second, MaxDelay: 2 * time.Second, Multiplier: 10}
	d := calculateDelay(cfg, 5)
	assert.LessOrEqual(t, d, 2*time.Second)
}
