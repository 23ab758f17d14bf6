package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultExchangeName is the topic exchange events are published to.
// Consumers bind with a routing key pattern over the event type.
const DefaultExchangeName = "taskdeck_events"

// AMQPPublisher publishes events to a RabbitMQ topic exchange. Delivery is
// fire-and-forget; publish failures are logged and dropped.
type AMQPPublisher struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	logger       *zap.Logger
}

// NewAMQPPublisher connects to RabbitMQ and declares the events exchange.
func NewAMQPPublisher(amqpURL string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		DefaultExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to declare events exchange: %w", err)
	}

	return &AMQPPublisher{
		conn:         conn,
		channel:      ch,
		exchangeName: DefaultExchangeName,
		logger:       logger,
	}, nil
}

// Publish sends the event with its type as the routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed_to_encode_event",
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchangeName,
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Warn("event_publish_failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
	}
}

// HealthCheck verifies the broker connection is still open.
func (p *AMQPPublisher) HealthCheck(_ context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("failed_to_close_amqp_channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
