// Package http wraps net/http with the timeout and retry policy the
// integrations share.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client retries requests that fail with a transport error, 429 or 5xx.
type Client struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

type Option func(*Client)

func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = backoff
	}
}

// WithTransport swaps the underlying client, mainly for httptest servers.
func WithTransport(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req, replaying its body through GetBody on retries. The final
// response is returned even when its status is retryable.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := c.wait(req.Context(), attempt); err != nil {
				return nil, err
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := c.httpClient.Do(req)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if attempt >= c.maxRetries || (req.Body != nil && req.GetBody == nil) {
			if err != nil {
				return nil, err
			}
			return resp, nil
		}
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	t := time.NewTimer(c.backoff * time.Duration(1<<(attempt-1)))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
