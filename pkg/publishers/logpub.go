package publishers

import (
	"context"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
)

// logPublisher writes events to the structured log. Useful as a default
// destination and in development setups without external infrastructure.
type logPublisher struct {
	id  string
	log logger.Logger
}

func buildLogPublisher(_ context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	return &logPublisher{id: cfg.ID, log: logger.Ensure(log)}, nil
}

func (p *logPublisher) ID() string   { return p.id }
func (p *logPublisher) Type() string { return "log" }

func (p *logPublisher) Publish(_ context.Context, event Event) error {
	p.log.InfoObj("event published", "event", event)
	return nil
}
