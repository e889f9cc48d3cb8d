package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/models"
)

type ackRecorder struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue []bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeRecorder struct {
	mu     sync.Mutex
	alerts []models.ReconciliationAlert
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, alert models.ReconciliationAlert) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, a := range f.alerts {
		if a.OperationID == alert.OperationID && a.FailedAt == alert.FailedAt {
			return false, nil
		}
	}
	f.alerts = append(f.alerts, alert)
	return true, nil
}

func delivery(t *testing.T, ack amqp.Acknowledger, v any) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

var sampleAlert = models.ReconciliationAlert{
	OperationID: "op-1",
	Operation:   "create",
	Applied:     []models.StockAdjustmentEvent{{ProductID: 1, Delta: -2}},
	FailedAt:    models.StockAdjustmentEvent{ProductID: 2, Delta: -1},
	Cause:       "Not enough stock for product ID 2",
}

func TestAlertConsumer_RecordsAndAcks(t *testing.T) {
	store := &fakeRecorder{}
	ack := &ackRecorder{}
	c := NewAlertConsumer(store, zap.NewNop())

	c.handle(context.Background(), delivery(t, ack, sampleAlert))

	require.Len(t, store.alerts, 1)
	assert.Equal(t, int64(2), store.alerts[0].FailedAt.ProductID)
	assert.Equal(t, 1, ack.acks)
	assert.Zero(t, ack.nacks)
}

func TestAlertConsumer_DuplicateIsAcked(t *testing.T) {
	store := &fakeRecorder{}
	ack := &ackRecorder{}
	c := NewAlertConsumer(store, zap.NewNop())

	c.handle(context.Background(), delivery(t, ack, sampleAlert))
	c.handle(context.Background(), delivery(t, ack, sampleAlert))

	assert.Len(t, store.alerts, 1)
	assert.Equal(t, 2, ack.acks)
}

func TestAlertConsumer_BadPayloadIsDropped(t *testing.T) {
	ack := &ackRecorder{}
	c := NewAlertConsumer(&fakeRecorder{}, zap.NewNop())

	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	assert.Equal(t, 1, ack.nacks)
	assert.Equal(t, []bool{false}, ack.requeue)
}

func TestAlertConsumer_StoreFailureRequeues(t *testing.T) {
	ack := &ackRecorder{}
	c := NewAlertConsumer(&fakeRecorder{err: errors.New("db down")}, zap.NewNop())

	c.handle(context.Background(), delivery(t, ack, sampleAlert))

	assert.Zero(t, ack.acks)
	assert.Equal(t, []bool{true}, ack.requeue)
}

func TestAlertConsumer_RunStopsWhenChannelCloses(t *testing.T) {
	store := &fakeRecorder{}
	ack := &ackRecorder{}
	c := NewAlertConsumer(store, zap.NewNop())

	messages := make(chan amqp.Delivery, 1)
	messages <- delivery(t, ack, sampleAlert)
	close(messages)

	done := make(chan struct{})
	go func() {
		c.Run(context.Background(), messages)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}
	assert.Len(t, store.alerts, 1)
}
