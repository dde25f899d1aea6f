package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	awspkg "github.com/amangirdhar210/order-processing-system/pkg/aws"

	"github.com/amangirdhar210/order-processing-system/models"
)

// EventPublisher publishes order lifecycle events downstream. Delivery is
// at-most-once; the caller decides what a failed publish means.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *models.NotificationEvent) error
}

// SnsService publishes notification events to an SNS topic.
type SnsService struct {
	publisher awspkg.SNSPublisher
	topicArn  string
	logger    *zap.Logger
}

func NewSnsService(publisher awspkg.SNSPublisher, topicArn string, logger *zap.Logger) *SnsService {
	return &SnsService{publisher: publisher, topicArn: topicArn, logger: logger}
}

func (s *SnsService) PublishEvent(ctx context.Context, event *models.NotificationEvent) error {
	message, err := json.Marshal(map[string]interface{}{
		"event_id":    event.EventID,
		"event_type":  event.EventType,
		"order_id":    event.OrderID,
		"user_id":     event.UserID,
		"occurred_at": event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	subject := fmt.Sprintf("Order Event: %s", event.EventType)
	attributes := map[string]string{
		"event_type": string(event.EventType),
		"order_id":   event.OrderID,
	}

	if err := s.publisher.Publish(ctx, s.topicArn, subject, message, attributes); err != nil {
		return err
	}

	s.logger.Info("Published order event",
		zap.String("event_type", string(event.EventType)),
		zap.String("order_id", event.OrderID),
	)
	return nil
}
