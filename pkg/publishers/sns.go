package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
)

// snsPublisher publishes events to an AWS SNS topic with the event type
// attached as a message attribute for subscription filtering.
type snsPublisher struct {
	id       string
	topicARN string
	client   *sns.Client
}

func buildSNSPublisher(ctx context.Context, cfg Config, _ logger.Logger) (Publisher, error) {
	topicARN, err := cfg.RequireSetting("topic_arn")
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region, ok := cfg.Setting("region"); ok {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: load aws config: %w", cfg.ID, err)
	}

	return &snsPublisher{
		id:       cfg.ID,
		topicARN: topicARN,
		client:   sns.NewFromConfig(awsCfg),
	}, nil
}

func (p *snsPublisher) ID() string   { return p.id }
func (p *snsPublisher) Type() string { return "sns" }

func (p *snsPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Type),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish to sns topic: %w", err)
	}
	return nil
}
