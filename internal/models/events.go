package models

import "time"

const (
	EventOrderCreated         = "order.created"
	EventOrderUpdated         = "order.updated"
	EventOrderDeleted         = "order.deleted"
	EventReconciliationFailed = "reconciliation.failed"
)

// OrderEvent is published after an order mutation has been committed.
type OrderEvent struct {
	Type              string        `json:"type"`
	OrderID           int64         `json:"order_id"`
	CustomerID        int64         `json:"customer_id"`
	ProductQuantities map[int64]int `json:"product_quantities"`
	Subject           string        `json:"subject,omitempty"`
	OccurredAt        time.Time     `json:"occurred_at"`
}

// StockAdjustmentEvent describes one signed stock change.
type StockAdjustmentEvent struct {
	ProductID int64 `json:"product_id"`
	Delta     int   `json:"delta"` // negative = consume, positive = restock
}

// ReconciliationAlert reports inventory left partially adjusted by a failed
// order operation. Nothing compensates it automatically.
type ReconciliationAlert struct {
	OperationID string                 `json:"operation_id"`
	Operation   string                 `json:"operation"`
	OrderID     int64                  `json:"order_id,omitempty"`
	Applied     []StockAdjustmentEvent `json:"applied"`
	FailedAt    StockAdjustmentEvent   `json:"failed_at"`
	Cause       string                 `json:"cause"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

// StockAlert is a received ReconciliationAlert persisted for manual remediation.
type StockAlert struct {
	ID           int64     `json:"id" db:"id"`
	OperationID  string    `json:"operation_id" db:"operation_id"`
	Operation    string    `json:"operation" db:"operation"`
	OrderID      int64     `json:"order_id" db:"order_id"`
	ProductID    int64     `json:"product_id" db:"product_id"`
	Delta        int       `json:"delta" db:"delta"`
	AppliedCount int       `json:"applied_count" db:"applied_count"`
	Cause        string    `json:"cause" db:"cause"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
