package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
)

// pubsubPublisher publishes events to a Google Cloud Pub/Sub topic.
type pubsubPublisher struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
}

func buildPubSubPublisher(ctx context.Context, cfg Config, _ logger.Logger) (Publisher, error) {
	projectID, err := cfg.RequireSetting("project_id")
	if err != nil {
		return nil, err
	}
	topicID, err := cfg.RequireSetting("topic_id")
	if err != nil {
		return nil, err
	}

	var clientOpts []option.ClientOption
	if creds, ok := cfg.Setting("credentials_file"); ok {
		clientOpts = append(clientOpts, option.WithCredentialsFile(creds))
	}

	client, err := pubsub.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: pubsub client: %w", cfg.ID, err)
	}

	return &pubsubPublisher{
		id:     cfg.ID,
		client: client,
		topic:  client.Topic(topicID),
	}, nil
}

func (p *pubsubPublisher) ID() string   { return p.id }
func (p *pubsubPublisher) Type() string { return "pubsub" }

func (p *pubsubPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       body,
		Attributes: map[string]string{"event_type": event.Type},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish to pubsub topic: %w", err)
	}
	return nil
}
