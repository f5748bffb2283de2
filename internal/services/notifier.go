package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
)

type StatusNotifier interface {
	Publish(ctx context.Context, event models.EvaluationEvent) error
	Close() error
}

type amqpNotifier struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *zap.Logger
}

func NewAMQPNotifier(url, exchange string, log *zap.Logger) (StatusNotifier, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %q: %w", exchange, err)
	}

	log.Info("status events enabled", zap.String("exchange", exchange))

	return &amqpNotifier{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		logger:   log,
	}, nil
}

func (n *amqpNotifier) Publish(_ context.Context, event models.EvaluationEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.ch.Publish(
		n.exchange,
		event.RoutingKey(),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing %s event: %w", event.Status, err)
	}

	n.logger.Debug("status event published",
		zap.String("routing_key", event.RoutingKey()),
		zap.String("status", string(event.Status)),
	)
	return nil
}

func (n *amqpNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ch.Close(); err != nil {
		n.logger.Warn("closing channel", zap.Error(err))
	}
	return n.conn.Close()
}

type noopNotifier struct{}

// NewNoopNotifier is used when no broker is configured.
func NewNoopNotifier() StatusNotifier {
	return noopNotifier{}
}

func (noopNotifier) Publish(context.Context, models.EvaluationEvent) error { return nil }
func (noopNotifier) Close() error { return nil }
