package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/subhadeepds/microservices-project/internal/models"
)

// MemoryOrderRepository keeps orders in process. Ids come from a counter
// and are never reused.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[int64]models.Order
	nextID int64
	now    func() time.Time
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[int64]models.Order),
		now:    time.Now,
	}
}

func (r *MemoryOrderRepository) Save(_ context.Context, order models.Order) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := order.Clone()
	now := r.now().UTC()

	if saved.ID == 0 {
		r.nextID++
		saved.ID = r.nextID
		saved.CreatedAt = now
	} else {
		existing, ok := r.orders[saved.ID]
		if !ok {
			return models.Order{}, fmt.Errorf("order %d not found", saved.ID)
		}
		saved.CreatedAt = existing.CreatedAt
	}
	saved.UpdatedAt = now

	r.orders[saved.ID] = saved
	return saved.Clone(), nil
}

func (r *MemoryOrderRepository) Find(_ context.Context, id int64) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	c := o.Clone()
	return &c, nil
}

func (r *MemoryOrderRepository) FindAll(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.orders, id)
	return nil
}

func (r *MemoryOrderRepository) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.orders[id]
	return ok, nil
}
