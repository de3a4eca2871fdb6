package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
)

// sqsPublisher sends events to an AWS SQS queue as JSON message bodies.
type sqsPublisher struct {
	id       string
	queueURL string
	client   *sqs.Client
}

func buildSQSPublisher(ctx context.Context, cfg Config, _ logger.Logger) (Publisher, error) {
	queueURL, err := cfg.RequireSetting("queue_url")
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

	return &sqsPublisher{
		id:       cfg.ID,
		queueURL: queueURL,
		client:   sqs.NewFromConfig(awsCfg),
	}, nil
}

func (p *sqsPublisher) ID() string   { return p.id }
func (p *sqsPublisher) Type() string { return "sqs" }

func (p *sqsPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send to sqs queue: %w", err)
	}
	return nil
}
