package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/subhadeepds/microservices-project/internal/models"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(database *PostgresDB) *OrderRepository {
	return &OrderRepository{db: database.Conn}
}

type orderRow struct {
	ID         int64     `db:"id"`
	CustomerID int64     `db:"customer_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type orderLineRow struct {
	OrderID   int64 `db:"order_id"`
	ProductID int64 `db:"product_id"`
	Quantity  int   `db:"quantity"`
}

// Save inserts the order when its ID is zero and replaces it otherwise.
// Order lines are rewritten in the same transaction.
func (r *OrderRepository) Save(ctx context.Context, order models.Order) (models.Order, error) {
	return TxClosure(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) (models.Order, error) {
		var customerID int64
		if order.CustomerID != nil {
			customerID = *order.CustomerID
		}

		var row orderRow
		if order.ID == 0 {
			err := tx.GetContext(ctx, &row, `
				INSERT INTO orders (customer_id)
				VALUES ($1)
				RETURNING id, customer_id, created_at, updated_at
			`, customerID)
			if err != nil {
				return models.Order{}, fmt.Errorf("failed to insert order: %w", err)
			}
		} else {
			err := tx.GetContext(ctx, &row, `
				UPDATE orders SET customer_id = $1, updated_at = NOW()
				WHERE id = $2
				RETURNING id, customer_id, created_at, updated_at
			`, customerID, order.ID)
			if errors.Is(err, sql.ErrNoRows) {
				return models.Order{}, fmt.Errorf("order %d not found", order.ID)
			}
			if err != nil {
				return models.Order{}, fmt.Errorf("failed to update order: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM order_products WHERE order_id = $1`, row.ID); err != nil {
				return models.Order{}, fmt.Errorf("failed to clear order lines: %w", err)
			}
		}

		lines := make([]orderLineRow, 0, len(order.ProductQuantities))
		for _, pid := range order.ProductIDs() {
			lines = append(lines, orderLineRow{OrderID: row.ID, ProductID: pid, Quantity: order.ProductQuantities[pid]})
		}
		if len(lines) > 0 {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO order_products (order_id, product_id, quantity)
				VALUES (:order_id, :product_id, :quantity)
			`, lines)
			if err != nil {
				return models.Order{}, fmt.Errorf("failed to insert order lines: %w", err)
			}
		}

		saved := order.Clone()
		saved.ID = row.ID
		saved.CreatedAt = row.CreatedAt
		saved.UpdatedAt = row.UpdatedAt
		return saved, nil
	})
}

// Find returns a single order with its lines, or nil when it does not exist.
func (r *OrderRepository) Find(ctx context.Context, id int64) (*models.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `SELECT id, customer_id, created_at, updated_at FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	var lines []orderLineRow
	err = r.db.SelectContext(ctx, &lines, `SELECT order_id, product_id, quantity FROM order_products WHERE order_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}

	order := toOrder(row, lines)
	return &order, nil
}

// FindAll returns every order ordered by id.
func (r *OrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, customer_id, created_at, updated_at FROM orders ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	var lines []orderLineRow
	if err := r.db.SelectContext(ctx, &lines, `SELECT order_id, product_id, quantity FROM order_products`); err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}

	byOrder := make(map[int64][]orderLineRow, len(rows))
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, toOrder(row, byOrder[row.ID]))
	}
	return orders, nil
}

// Delete removes an order. Deleting a missing id is not an error.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("failed to check order: %w", err)
	}
	return exists, nil
}

func toOrder(row orderRow, lines []orderLineRow) models.Order {
	customerID := row.CustomerID
	order := models.Order{
		ID:                row.ID,
		CustomerID:        &customerID,
		ProductQuantities: make(map[int64]int, len(lines)),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	for _, l := range lines {
		order.ProductQuantities[l.ProductID] = l.Quantity
	}
	return order
}
