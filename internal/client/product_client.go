package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/subhadeepds/microservices-project/internal/models"
)

// ProductClient talks to the product service, which owns stock.
type ProductClient struct {
	rest restClient
}

func NewProductClient(baseURL func() string, timeout time.Duration) *ProductClient {
	return &ProductClient{rest: newRestClient("product-service", baseURL, timeout)}
}

// GetProduct fetches a product's name and stock. A missing product yields ErrNotFound.
func (c *ProductClient) GetProduct(ctx context.Context, productID int64) (*models.ProductSnapshot, error) {
	var product models.ProductSnapshot
	if err := c.rest.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustStock applies a signed stock change. A zero delta is not sent.
// The idempotency key makes a caller-side retry of the same adjustment safe.
func (c *ProductClient) AdjustStock(ctx context.Context, productID int64, delta int, idempotencyKey string) error {
	if delta == 0 {
		return nil
	}

	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(HeaderIdempotencyKey, idempotencyKey)
	}

	path := fmt.Sprintf("/products/%d/stock?change=%d", productID, delta)
	if err := c.rest.do(ctx, http.MethodPut, path, header, nil); err != nil {
		return fmt.Errorf("failed to update stock for product ID %d: %w", productID, err)
	}
	return nil
}
