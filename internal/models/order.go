package models

import (
	"sort"
	"time"
)

// Order is the durable record owned by the order service. ProductQuantities
// maps product id to a positive quantity.
type Order struct {
	ID                int64         `json:"id"`
	CustomerID        *int64        `json:"customerId"`
	ProductQuantities map[int64]int `json:"productQuantities"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share the quantities map.
func (o Order) Clone() Order {
	c := o
	if o.CustomerID != nil {
		id := *o.CustomerID
		c.CustomerID = &id
	}
	if o.ProductQuantities != nil {
		c.ProductQuantities = make(map[int64]int, len(o.ProductQuantities))
		for k, v := range o.ProductQuantities {
			c.ProductQuantities[k] = v
		}
	}
	return c
}

// ProductIDs returns the order's product ids in ascending order.
func (o Order) ProductIDs() []int64 {
	ids := make([]int64, 0, len(o.ProductQuantities))
	for id := range o.ProductQuantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OrderDetail is the read projection assembled on every GET.
type OrderDetail struct {
	OrderID      int64           `json:"orderId"`
	CustomerName string          `json:"customerName"`
	Products     []ProductDetail `json:"products"`
}

type ProductDetail struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}
