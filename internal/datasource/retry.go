package datasource

import (
	"context"
	"net/http"
	"time"
)

// BackoffFunc returns the wait before the next attempt after failure n (n starts at 1)
type BackoffFunc func(n int) time.Duration

// QuadraticBackoff waits base * n² after failure n
func QuadraticBackoff(base time.Duration) BackoffFunc {
	return func(n int) time.Duration {
		if n < 1 {
			n = 1
		}
		return base * time.Duration(n*n)
	}
}

// RetryPolicy bounds how provider requests are retried
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc
}

// DefaultRetryPolicy allows 3 attempts with 500ms, 2s waits in between
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     QuadraticBackoff(500 * time.Millisecond),
	}
}

// Delays returns the waits inserted before attempts 2..MaxAttempts
func (p RetryPolicy) Delays() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for n := 1; n < p.MaxAttempts; n++ {
		delays = append(delays, p.backoff()(n))
	}
	return delays
}

func (p RetryPolicy) backoff() BackoffFunc {
	if p.Backoff == nil {
		return QuadraticBackoff(500 * time.Millisecond)
	}
	return p.Backoff
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// RetryableStatus reports whether an HTTP status is worth another attempt:
// rate limiting and server errors only.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// shouldRetry is the policy's CheckRetry rule
func shouldRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		// Transport failures are retried
		return true, nil
	}
	return RetryableStatus(resp.StatusCode), nil
}
