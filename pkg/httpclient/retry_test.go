package httpclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicySucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	policy := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       func(d time.Duration) { delays = append(delays, d) },
	}

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Fatalf("delays = %v, want [1s 2s]", delays)
	}
}

func TestRetryPolicyReturnsLastError(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, Sleep: func(time.Duration) {}}

	boom := errors.New("still down")
	err := policy.Do(context.Background(), func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want last error", err)
	}
}

func TestRetryPolicyStopsOnCancelledContext(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Sleep: func(time.Duration) {}}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := policy.Do(ctx, func() error {
		attempts++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

// staticClient returns one canned response.
type staticClient struct {
	body   []byte
	status int
	err    error
}

type staticResponse struct {
	body   []byte
	status int
}

func (r staticResponse) Body() []byte    { return r.body }
func (r staticResponse) StatusCode() int { return r.status }

func (c staticClient) Get(context.Context, string, map[string]string) (Response, error) {
	if c.err != nil {
		return nil, c.err
	}
	return staticResponse{body: c.body, status: c.status}, nil
}

func TestFetchEnforcesStatusContract(t *testing.T) {
	body, err := Fetch(context.Background(), staticClient{body: []byte("ok"), status: 200}, "https://a", nil)
	if err != nil || string(body) != "ok" {
		t.Fatalf("Fetch = (%q, %v)", body, err)
	}

	_, err = Fetch(context.Background(), staticClient{body: []byte("denied"), status: 403}, "https://a", nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if statusErr.StatusCode != 403 || statusErr.Snippet != "denied" {
		t.Fatalf("status error = %+v", statusErr)
	}
}

func TestFetchTruncatesSnippet(t *testing.T) {
	long := make([]byte, 2048)
	for i := range long {
		long[i] = 'x'
	}

	_, err := Fetch(context.Background(), staticClient{body: long, status: 500}, "https://a", nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if len(statusErr.Snippet) != 512 {
		t.Fatalf("snippet length = %d, want 512", len(statusErr.Snippet))
	}
}
