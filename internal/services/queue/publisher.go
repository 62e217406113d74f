package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/flyer-maker/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// EncodeFlyerEvent builds the AMQP message for a generated flyer.
func EncodeFlyerEvent(event *models.FlyerEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         models.EventFlyerGenerated,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.GeneratedAt,
	}, nil
}

// PublishFlyerGenerated sends a flyer.generated event to the default exchange.
func (q *QueueService) PublishFlyerGenerated(ctx context.Context, event *models.FlyerEvent) error {
	msg, err := EncodeFlyerEvent(event)
	if err != nil {
		q.failed.Add(1)
		return err
	}

	if q.channel == nil {
		q.failed.Add(1)
		return fmt.Errorf("failed to publish event: channel not available")
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		msg,
	)
	if err != nil {
		q.failed.Add(1)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	q.published.Add(1)

	q.logger.Info("Flyer event published", zap.String("session_id", event.SessionID))
	return nil
}
