package publishers

import (
	"context"
	"fmt"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
)

// Builder constructs a publisher from its configuration entry.
type Builder func(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register binds a builder to a type name, replacing any previous binding.
func (r *Registry) Register(typ string, builder Builder) {
	r.builders[typ] = builder
}

// Build constructs a single publisher.
func (r *Registry) Build(ctx context.Context, cfg Config, log logger.Logger) (Publisher, error) {
	builder, ok := r.builders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown publisher type %q (id %q)", cfg.Type, cfg.ID)
	}
	return builder(ctx, cfg, log)
}

// BuildAll constructs every configured publisher, failing on the first
// broken entry so misconfiguration surfaces at startup.
func (r *Registry) BuildAll(ctx context.Context, cfgs []Config, log logger.Logger) ([]Publisher, error) {
	out := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := r.Build(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		out = append(out, pub)
	}
	return out, nil
}

// DefaultRegistry registers the built-in publisher types.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("log", buildLogPublisher)
	reg.Register("http", buildHTTPPublisher)
	reg.Register("sqs", buildSQSPublisher)
	reg.Register("sns", buildSNSPublisher)
	reg.Register("pubsub", buildPubSubPublisher)
	return reg
}
