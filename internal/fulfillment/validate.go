package fulfillment

import "github.com/subhadeepds/microservices-project/internal/models"

// Validate checks an incoming order before any side effect. The first
// failing rule wins.
func Validate(order *models.Order) error {
	if order == nil {
		return badRequest("Order cannot be null")
	}
	if order.CustomerID == nil {
		return badRequest("Customer ID is required")
	}
	if len(order.ProductQuantities) == 0 {
		return badRequest("Order must contain at least one product")
	}
	for _, id := range order.ProductIDs() {
		if id <= 0 {
			return badRequest("Invalid product ID %d", id)
		}
		if order.ProductQuantities[id] <= 0 {
			return badRequest("Quantity for product ID %d must be positive", id)
		}
	}
	return nil
}
