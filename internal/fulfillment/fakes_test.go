package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/subhadeepds/microservices-project/internal/client"
	"github.com/subhadeepds/microservices-project/internal/models"
)

type adjustCall struct {
	ProductID int64
	Delta     int
	Key       string
}

// fakeInventory behaves like the product service: stock never goes below
// zero and unknown products are 404s.
type fakeInventory struct {
	mu       sync.Mutex
	stock    map[int64]int
	names    map[int64]string
	down     map[int64]bool
	adjusts  []adjustCall
	getCalls int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		stock: map[int64]int{},
		names: map[int64]string{},
		down:  map[int64]bool{},
	}
}

func (f *fakeInventory) add(id int64, name string, stock int) *fakeInventory {
	f.names[id] = name
	f.stock[id] = stock
	return f
}

func (f *fakeInventory) GetProduct(_ context.Context, id int64) (*models.ProductSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++

	if f.down[id] {
		return nil, errors.New("connection refused")
	}
	stock, ok := f.stock[id]
	if !ok {
		return nil, fmt.Errorf("product-service /products/%d: %w", id, client.ErrNotFound)
	}
	return &models.ProductSnapshot{ID: id, Name: f.names[id], Stock: stock}, nil
}

func (f *fakeInventory) AdjustStock(_ context.Context, id int64, delta int, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adjusts = append(f.adjusts, adjustCall{ProductID: id, Delta: delta, Key: key})

	if f.down[id] {
		return fmt.Errorf("failed to update stock for product ID %d: %w", id, context.DeadlineExceeded)
	}
	stock, ok := f.stock[id]
	if !ok {
		return fmt.Errorf("failed to update stock for product ID %d: %w", id, client.ErrNotFound)
	}
	if stock+delta < 0 {
		return fmt.Errorf("failed to update stock for product ID %d: %w", id, &client.RemoteError{
			Service:    "product-service",
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("Not enough stock for product ID %d", id),
		})
	}
	f.stock[id] = stock + delta
	return nil
}

func (f *fakeInventory) stockOf(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[id]
}

func (f *fakeInventory) adjustCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adjusts)
}

type fakeCustomers struct {
	names map[int64]string
	err   error
}

func (f *fakeCustomers) GetCustomer(_ context.Context, id int64) (*models.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.names[id]
	if !ok {
		return nil, fmt.Errorf("customer-service /customers/%d: %w", id, client.ErrNotFound)
	}
	return &models.Customer{ID: id, Name: name}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
	alerts []models.ReconciliationAlert
	err    error
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, e models.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func (f *fakePublisher) PublishReconciliationAlert(_ context.Context, a models.ReconciliationAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
	return f.err
}

func int64Ptr(v int64) *int64 { return &v }

func order(customerID int64, lines map[int64]int) *models.Order {
	return &models.Order{CustomerID: int64Ptr(customerID), ProductQuantities: lines}
}
