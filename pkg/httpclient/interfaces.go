package httpclient

import (
	"context"
	"fmt"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// StatusError reports a non-2xx response. Callers decide whether and how
// to retry; the client itself never does.
type StatusError struct {
	URL        string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d for %s: %s", e.StatusCode, e.URL, e.Snippet)
}

// Fetch performs a GET and enforces the 2xx contract, returning the body
// or a typed failure.
func Fetch(ctx context.Context, client Client, url string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &StatusError{URL: url, StatusCode: code, Snippet: bodySnippet(body)}
	}
	return body, nil
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	return string(body)
}
