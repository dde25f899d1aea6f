package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/amangirdhar210/order-processing-system/models"
)

// EventProcessor handles one decoded order event.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *models.NotificationEvent) error
}

// SQSAPI is the subset of the SQS client the consumer uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSConsumer long-polls the notification queue and hands order events to
// the processor. Messages are deleted only after successful processing so
// transient failures are retried after the visibility timeout.
type SQSConsumer struct {
	client    SQSAPI
	queueURL  string
	processor EventProcessor
	logger    *zap.Logger
}

func NewSQSConsumer(client SQSAPI, queueURL string, processor EventProcessor, logger *zap.Logger) *SQSConsumer {
	return &SQSConsumer{
		client:    client,
		queueURL:  queueURL,
		processor: processor,
		logger:    logger,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Info("SQS consumer started", zap.String("queue", c.queueURL))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("SQS consumer shutting down")
			return
		default:
			c.poll(ctx)
		}
	}
}

func (c *SQSConsumer) poll(ctx context.Context) {
	output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     5,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("SQS receive error", zap.Error(err))
		time.Sleep(5 * time.Second)
		return
	}

	for _, msg := range output.Messages {
		c.processMessage(ctx, msg.Body, msg.ReceiptHandle)
	}
}

// snsEnvelope unwraps the SNS to SQS message wrapper.
type snsEnvelope struct {
	Message string `json:"Message"`
}

func (c *SQSConsumer) processMessage(ctx context.Context, body *string, receiptHandle *string) {
	if body == nil || *body == "" {
		c.logger.Error("received empty SQS message body")
		return
	}
	if receiptHandle == nil || *receiptHandle == "" {
		c.logger.Error("received empty SQS receipt handle")
		return
	}

	payload := []byte(*body)

	var envelope snsEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		c.logger.Error("failed to unmarshal SNS envelope", zap.Error(err))
		// Unparseable, delete to avoid an infinite redelivery loop.
		c.deleteMessage(ctx, receiptHandle)
		return
	}
	if envelope.Message != "" {
		payload = []byte(envelope.Message)
	}

	var event models.NotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Error("failed to unmarshal order event", zap.Error(err))
		c.deleteMessage(ctx, receiptHandle)
		return
	}

	if err := c.processor.ProcessEvent(ctx, &event); err != nil {
		c.logger.Error("failed to process event",
			zap.String("event_type", string(event.EventType)),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return
	}

	c.deleteMessage(ctx, receiptHandle)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete SQS message", zap.Error(err))
	}
}
