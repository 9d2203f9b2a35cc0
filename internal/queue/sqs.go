package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/sirupsen/logrus"
)

// SQSAPI is the subset of the SQS client used here.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSPublisher publishes each topic to its own SQS queue.
type SQSPublisher struct {
	client SQSAPI
	queues map[string]string
	logger *logrus.Logger
}

// NewSQSPublisher creates a publisher. queues maps topic names to queue URLs.
func NewSQSPublisher(client SQSAPI, queues map[string]string, logger *logrus.Logger) *SQSPublisher {
	return &SQSPublisher{client: client, queues: queues, logger: logger}
}

func (p *SQSPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	queueURL, ok := p.queues[topic]
	if !ok || queueURL == "" {
		return fmt.Errorf("no queue configured for topic %q", topic)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"topic": {DataType: aws.String("String"), StringValue: aws.String(topic)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.WithFields(logrus.Fields{"topic": topic, "message_id": aws.ToString(out.MessageId)}).Info("Published message")
	return nil
}

// SQSConsumer long-polls one queue.
type SQSConsumer struct {
	client            SQSAPI
	queueURL          string
	maxMessages       int32
	waitSeconds       int32
	visibilityTimeout int32
	logger            *logrus.Logger
}

// NewSQSConsumer creates a consumer for queueURL. visibilityTimeout should
// exceed the longest expected handling time so in-flight messages are not
// redelivered early.
func NewSQSConsumer(client SQSAPI, queueURL string, visibilityTimeout time.Duration, logger *logrus.Logger) *SQSConsumer {
	return &SQSConsumer{
		client:            client,
		queueURL:          queueURL,
		maxMessages:       1,
		waitSeconds:       20,
		visibilityTimeout: int32(visibilityTimeout.Seconds()),
		logger:            logger,
	}
}

// Receive waits for up to one batch of messages.
func (c *SQSConsumer) Receive(ctx context.Context) ([]Message, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(c.queueURL),
		MaxNumberOfMessages:         c.maxMessages,
		WaitTimeSeconds:             c.waitSeconds,
		VisibilityTimeout:           c.visibilityTimeout,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameApproximateReceiveCount},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive from %s: %w", c.queueURL, err)
	}

	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		count, _ := strconv.Atoi(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
		msgs = append(msgs, Message{
			ID:            aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiveCount:  count,
			receiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs, nil
}

// Settle applies d to msg. Ack and Reject delete the message; Retry leaves
// it to reappear once its visibility timeout lapses.
func (c *SQSConsumer) Settle(ctx context.Context, msg Message, d Disposition) error {
	entry := c.logger.WithFields(logrus.Fields{"message_id": msg.ID, "disposition": d.String()})
	if d == Retry {
		entry.Warn("Leaving message for redelivery")
		return nil
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(msg.receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message %s: %w", msg.ID, err)
	}
	entry.Debug("Settled message")
	return nil
}

// Run receives messages until ctx is cancelled and passes each to submit.
// Receive errors back off exponentially up to 30 seconds.
func (c *SQSConsumer) Run(ctx context.Context, submit func(ctx context.Context, msg Message) error) error {
	c.logger.WithField("queue_url", c.queueURL).Info("Consumer started")
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}

		msgs, err := c.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			c.logger.WithError(err).Error("SQS receive failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, m := range msgs {
			if err := submit(ctx, m); err != nil {
				c.logger.WithError(err).WithField("message_id", m.ID).Error("Failed to submit message")
			}
		}
	}
}
