package fulfillment

import (
	"context"

	"github.com/subhadeepds/microservices-project/internal/models"
)

// OrderStore is owned by the workflow. Save inserts when ID is zero and
// replaces the stored order otherwise. Find returns nil for a missing id.
type OrderStore interface {
	Save(ctx context.Context, order models.Order) (models.Order, error)
	Find(ctx context.Context, id int64) (*models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// Inventory is the product service as seen by the workflow. GetProduct
// returns client.ErrNotFound for an unknown product.
type Inventory interface {
	GetProduct(ctx context.Context, productID int64) (*models.ProductSnapshot, error)
	AdjustStock(ctx context.Context, productID int64, delta int, idempotencyKey string) error
}

type CustomerDirectory interface {
	GetCustomer(ctx context.Context, customerID int64) (*models.Customer, error)
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
	PublishReconciliationAlert(ctx context.Context, alert models.ReconciliationAlert) error
}
