package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/tracing"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger

	// amqp channels must not be shared by concurrent publishers.
	mu sync.Mutex
}

func NewRabbitMQ(host string, port int, user, password string, log *zap.Logger) (*RabbitMQ, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", user, password, host, port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	log.Info("✅ Connected to RabbitMQ", zap.String("host", host), zap.Int("port", port))

	return &RabbitMQ{
		conn:    conn,
		channel: channel,
		log:     log,
	}, nil
}

// DeclareQueue creates a durable queue if it doesn't exist
func (r *RabbitMQ) DeclareQueue(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.channel.QueueDeclare(
		name,  // queue name
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	r.log.Info("✅ Queue declared", zap.String("queue", name))
	return nil
}

// Publish sends a persistent JSON message to a queue, carrying the trace
// context of ctx in its headers.
func (r *RabbitMQ) Publish(ctx context.Context, queue string, message []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.channel.PublishWithContext(ctx,
		"",    // exchange
		queue, // routing key (queue name)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      tracing.InjectAMQP(ctx, nil),
			Body:         message,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	r.log.Debug("📤 Message published", zap.String("queue", queue))
	return nil
}

// Consume receives messages from a queue with manual acknowledgement.
func (r *RabbitMQ) Consume(queue string) (<-chan amqp.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages, err := r.channel.Consume(
		queue, // queue name
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume messages: %w", err)
	}

	r.log.Info("👂 Listening on queue", zap.String("queue", queue))
	return messages, nil
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
