package service

import (
	"encoding/json"
	"sync"
	"time"
	"victorina_backend/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	EventAttemptCompleted = "quiz.attempt.completed"
	EventFeedPublished    = "feed.published"
)

type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

// AMQPEventPublisher publishes JSON events to a topic exchange, using the
// event type as routing key.
type AMQPEventPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPEventPublisher(amqpURL, exchange string) (*AMQPEventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPEventPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPEventPublisher) Publish(eventType string, payload interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"type":       eventType,
		"occurredAt": time.Now().UTC(),
		"payload":    payload,
	})
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *AMQPEventPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// LogEventPublisher only logs events; it is used when no broker is configured.
type LogEventPublisher struct{}

func (LogEventPublisher) Publish(eventType string, payload interface{}) error {
	logger.Log.Debug("Event", zap.String("type", eventType), zap.Any("payload", payload))
	return nil
}
