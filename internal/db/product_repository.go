package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/subhadeepds/microservices-project/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const productColumns = "id, name, description, price, stock, created_at"

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{db: database.Conn}
}

// GetAll returns all products
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, "SELECT "+productColumns+" FROM products ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return products, nil
}

// GetByID returns a single product, nil when it does not exist
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO products (name, description, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productColumns,
		req.Name, req.Description, *req.Price, *req.Stock,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, req models.ProductRequest) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, `
		UPDATE products SET name = $1, description = $2, price = $3, stock = $4
		WHERE id = $5
		RETURNING `+productColumns,
		req.Name, req.Description, *req.Price, *req.Stock, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &p, nil
}

// AdjustStock adds change to the product's stock in one conditional
// statement, so concurrent decrements can never drive stock below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, change int) (*models.Product, error) {
	return TxClosure(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) (*models.Product, error) {
		var p models.Product
		err := tx.GetContext(ctx, &p, `
			UPDATE products SET stock = stock + $1
			WHERE id = $2 AND stock + $1 >= 0
			RETURNING `+productColumns,
			change, id,
		)
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to adjust stock: %w", err)
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", id); err != nil {
			return nil, fmt.Errorf("failed to check product: %w", err)
		}
		if !exists {
			return nil, ErrProductNotFound
		}
		return nil, ErrInsufficientStock
	})
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
