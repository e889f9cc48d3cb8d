package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/subhadeepds/microservices-project/internal/models"
)

// Queues are named after the event types they carry.
var Queues = []string{
	models.EventOrderCreated,
	models.EventOrderUpdated,
	models.EventOrderDeleted,
	models.EventReconciliationFailed,
}

// Broker is the part of messaging.RabbitMQ the publisher uses.
type Broker interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue string, message []byte) error
}

type OrderPublisher struct {
	mq Broker
}

func NewOrderPublisher(mq Broker) (*OrderPublisher, error) {
	for _, q := range Queues {
		if err := mq.DeclareQueue(q); err != nil {
			return nil, err
		}
	}
	return &OrderPublisher{mq: mq}, nil
}

func (p *OrderPublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	switch event.Type {
	case models.EventOrderCreated, models.EventOrderUpdated, models.EventOrderDeleted:
	default:
		return fmt.Errorf("unknown order event type %q", event.Type)
	}
	return p.publish(ctx, event.Type, event)
}

func (p *OrderPublisher) PublishReconciliationAlert(ctx context.Context, alert models.ReconciliationAlert) error {
	return p.publish(ctx, models.EventReconciliationFailed, alert)
}

func (p *OrderPublisher) publish(ctx context.Context, queue string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.mq.Publish(ctx, queue, data)
}
