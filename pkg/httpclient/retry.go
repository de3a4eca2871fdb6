package httpclient

import (
	"context"
	"time"
)

// RetryPolicy runs an operation up to MaxAttempts times with exponential
// backoff (BaseDelay doubled per attempt). Sleep is injectable so tests run
// without real delays.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(time.Duration)
}

// DefaultRetryPolicy matches the call-site retry behavior used for listing
// pages: three attempts, one second base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Do invokes fn until it succeeds, attempts run out, or ctx is cancelled.
// The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = fn(); err == nil {
			return nil
		}
		if attempt < attempts-1 {
			sleep(p.BaseDelay * (1 << attempt))
		}
	}
	return err
}
