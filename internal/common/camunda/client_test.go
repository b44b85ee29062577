package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prospect-composer/internal/common/errors"
)

func createTestClient() *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"invalid argument", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(fmt.Errorf("%s", tt.err)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	err := mapZeebeError(fmt.Errorf("context deadline exceeded"), "publish", 2)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
	assert.Equal(t, "context deadline exceeded", stdErr.Metadata["cause"])

	err = mapZeebeError(fmt.Errorf("job not found"), "complete", 0)
	assert.EqualError(t, err, `zeebe operation "complete" failed: job not found`)

	err = mapZeebeError(fmt.Errorf("unavailable"), "complete", 2)
	assert.EqualError(t, err, `zeebe operation "complete" failed after 3 attempts: unavailable`)
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("succeeds after transient errors", func(t *testing.T) {
		c := createTestClient()
		calls := 0
		result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, fmt.Errorf("connection reset by peer")
			}
			return "ok", nil
		}, "topology")
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		c := createTestClient()
		calls := 0
		_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, fmt.Errorf("unavailable")
		}, "topology")
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		c := createTestClient()
		calls := 0
		_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, fmt.Errorf("invalid argument")
		}, "topology")
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops the wait", func(t *testing.T) {
		c := createTestClient()
		c.config.RetryConfig.BaseDelay = time.Hour
		c.config.RetryConfig.MaxDelay = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
			return nil, fmt.Errorf("unavailable")
		}, "topology")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
