package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/httpclient"
)

// httpPublisher POSTs each event as JSON to a webhook endpoint.
type httpPublisher struct {
	id       string
	endpoint string
	headers  map[string]string
	client   *resty.Client
}

func buildHTTPPublisher(_ context.Context, cfg Config, _ logger.Logger) (Publisher, error) {
	endpoint, err := cfg.RequireSetting("endpoint")
	if err != nil {
		return nil, err
	}

	timeout := 10 * time.Second
	if raw, ok := cfg.Setting("timeout_seconds"); ok {
		parsed, err := time.ParseDuration(raw + "s")
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("publisher %q: invalid timeout_seconds %q", cfg.ID, raw)
		}
		timeout = parsed
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if token, ok := cfg.Setting("auth_token"); ok {
		headers["Authorization"] = "Bearer " + token
	}

	return &httpPublisher{
		id:       cfg.ID,
		endpoint: endpoint,
		headers:  headers,
		client:   httpclient.NewRestyHTTPClient(timeout),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return "http" }

func (p *httpPublisher) Publish(ctx context.Context, event Event) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeaders(p.headers).
		SetBody(event).
		Post(p.endpoint)
	if err != nil {
		return fmt.Errorf("post event to %s: %w", p.endpoint, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s returned status %d", p.endpoint, resp.StatusCode())
	}
	return nil
}
