package fetch

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryPolicy bounds how long a single page may keep failing. Rate limit
// answers wait RateLimitDelay and do not count against MaxRetries.
type RetryPolicy struct {
	MaxRetries      int
	TimeoutDelay    time.Duration
	ConnectionDelay time.Duration
	RateLimitDelay  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      10,
		TimeoutDelay:    5 * time.Second,
		ConnectionDelay: 10 * time.Second,
		RateLimitDelay:  60 * time.Second,
	}
}

type failure int

const (
	failureNone failure = iota
	failureTimeout
	failureConnection
	failureRateLimit
	failureTerminal
)

func (f failure) String() string {
	switch f {
	case failureNone:
		return "none"
	case failureTimeout:
		return "timeout"
	case failureConnection:
		return "connection"
	case failureRateLimit:
		return "rate_limit"
	default:
		return "terminal"
	}
}

func classify(resp *Response, err error) failure {
	if err != nil {
		switch {
		case errors.Is(err, ErrTimeout):
			return failureTimeout
		case errors.Is(err, ErrConnection):
			return failureConnection
		default:
			return failureTerminal
		}
	}
	if resp == nil {
		return failureTerminal
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return failureRateLimit
	}
	if resp.StatusCode != http.StatusOK || len(resp.Errors) > 0 {
		return failureTerminal
	}
	return failureNone
}

type retryState int

const (
	retryPending retryState = iota
	retryRetrying
	retrySucceeded
	retryExhausted
)

// retry tracks one page request: Pending -> Retrying(n) -> Succeeded | Exhausted.
type retry struct {
	policy   RetryPolicy
	state    retryState
	attempts int
}

func newRetry(policy RetryPolicy) *retry {
	return &retry{policy: policy, state: retryPending}
}

// next returns the delay before retrying after a failure of the given kind,
// or false once the transient budget is spent.
func (r *retry) next(kind failure) (time.Duration, bool) {
	if kind == failureRateLimit {
		r.state = retryRetrying
		return r.policy.RateLimitDelay, true
	}

	r.attempts++
	if r.attempts > r.policy.MaxRetries {
		r.state = retryExhausted
		return 0, false
	}
	r.state = retryRetrying
	if kind == failureConnection {
		return r.policy.ConnectionDelay, true
	}
	return r.policy.TimeoutDelay, true
}

func (r *retry) succeed() {
	r.state = retrySucceeded
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
