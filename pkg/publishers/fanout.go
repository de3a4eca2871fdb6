package publishers

import (
	"context"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
)

// Fanout delivers each event to every publisher. A failing publisher is
// logged and skipped so one broken destination never blocks the rest.
type Fanout struct {
	publishers []Publisher
	log        logger.Logger
}

// NewFanout builds a fanout over the given publishers.
func NewFanout(pubs []Publisher, log logger.Logger) *Fanout {
	return &Fanout{publishers: pubs, log: logger.Ensure(log)}
}

// Publish sends the event to all publishers and returns the number of
// successful deliveries.
func (f *Fanout) Publish(ctx context.Context, event Event) int {
	if f == nil {
		return 0
	}

	delivered := 0
	for _, pub := range f.publishers {
		if ctx.Err() != nil {
			break
		}
		if err := pub.Publish(ctx, event); err != nil {
			f.log.WarnObj("publish failed", "publish_error", map[string]any{
				"publisher": pub.ID(),
				"type":      pub.Type(),
				"event":     event.Type,
				"error":     err.Error(),
			})
			continue
		}
		delivered++
	}
	return delivered
}

// Len reports how many publishers are attached.
func (f *Fanout) Len() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}
