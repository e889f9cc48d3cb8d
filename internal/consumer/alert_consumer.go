package consumer

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/models"
	"github.com/subhadeepds/microservices-project/internal/tracing"
)

// AlertRecorder persists reconciliation alerts. Record reports false for an
// alert it has already stored.
type AlertRecorder interface {
	Record(ctx context.Context, alert models.ReconciliationAlert) (bool, error)
}

// AlertConsumer stores reconciliation.failed alerts so stock left partially
// adjusted can be repaired by hand.
type AlertConsumer struct {
	store AlertRecorder
	log   *zap.Logger
}

func NewAlertConsumer(store AlertRecorder, log *zap.Logger) *AlertConsumer {
	return &AlertConsumer{store: store, log: log}
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *AlertConsumer) Run(ctx context.Context, messages <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				c.log.Warn("⚠️ Alert channel closed")
				return
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *AlertConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	ctx = tracing.ExtractAMQP(ctx, msg.Headers)

	var alert models.ReconciliationAlert
	if err := json.Unmarshal(msg.Body, &alert); err != nil {
		c.log.Error("❌ Failed to parse alert", zap.Error(err))
		msg.Nack(false, false) // bad messages are not requeued
		return
	}

	log := c.log.With(
		zap.String("operation_id", alert.OperationID),
		zap.String("operation", alert.Operation),
		zap.Int64("product_id", alert.FailedAt.ProductID),
		zap.Int("delta", alert.FailedAt.Delta),
	)

	stored, err := c.store.Record(ctx, alert)
	if err != nil {
		log.Error("❌ Failed to record alert, requeueing", zap.Error(err))
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
	if !stored {
		log.Info("Duplicate alert ignored")
		return
	}
	log.Warn("🚨 Stock alert recorded", zap.Int("applied", len(alert.Applied)), zap.String("cause", alert.Cause))
}
