package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/subhadeepds/microservices-project/internal/models"
)

var ErrCustomerNotFound = errors.New("customer not found")

const customerColumns = "id, name, email, phone, created_at"

type CustomerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(database *PostgresDB) *CustomerRepository {
	return &CustomerRepository{db: database.Conn}
}

func (r *CustomerRepository) GetAll(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	if err := r.db.SelectContext(ctx, &customers, "SELECT "+customerColumns+" FROM customers ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	return customers, nil
}

// GetByID returns nil when the customer does not exist.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := r.db.GetContext(ctx, &c, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, req models.CustomerRequest) (*models.Customer, error) {
	var c models.Customer
	err := r.db.GetContext(ctx, &c, `
		INSERT INTO customers (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING `+customerColumns,
		req.Name, req.Email, req.Phone,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepository) Update(ctx context.Context, id int64, req models.CustomerRequest) (*models.Customer, error) {
	var c models.Customer
	err := r.db.GetContext(ctx, &c, `
		UPDATE customers SET name = $1, email = $2, phone = $3
		WHERE id = $4
		RETURNING `+customerColumns,
		req.Name, req.Email, req.Phone, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
