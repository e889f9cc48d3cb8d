package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/subhadeepds/microservices-project/internal/models"
)

type CustomerClient struct {
	rest restClient
}

func NewCustomerClient(baseURL func() string, timeout time.Duration) *CustomerClient {
	return &CustomerClient{rest: newRestClient("customer-service", baseURL, timeout)}
}

// GetCustomer fetches a customer. A missing customer yields ErrNotFound.
func (c *CustomerClient) GetCustomer(ctx context.Context, customerID int64) (*models.Customer, error) {
	var customer models.Customer
	if err := c.rest.do(ctx, http.MethodGet, fmt.Sprintf("/customers/%d", customerID), nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}
