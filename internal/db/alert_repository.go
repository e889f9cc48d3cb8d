package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/subhadeepds/microservices-project/internal/models"
)

// AlertRepository stores reconciliation alerts until someone repairs the
// stock by hand.
type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(database *PostgresDB) *AlertRepository {
	return &AlertRepository{db: database.Conn}
}

// Record stores the failing adjustment of an alert. A redelivered alert is
// ignored.
func (r *AlertRepository) Record(ctx context.Context, alert models.ReconciliationAlert) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_alerts (operation_id, operation, order_id, product_id, delta, applied_count, cause, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (operation_id, product_id, delta) DO NOTHING
	`,
		alert.OperationID, alert.Operation, alert.OrderID,
		alert.FailedAt.ProductID, alert.FailedAt.Delta, len(alert.Applied),
		alert.Cause, alert.OccurredAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record stock alert: %w", err)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *AlertRepository) List(ctx context.Context) ([]models.StockAlert, error) {
	alerts := []models.StockAlert{}
	err := r.db.SelectContext(ctx, &alerts, `
		SELECT id, operation_id, operation, order_id, product_id, delta, applied_count, cause, created_at
		FROM stock_alerts ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock alerts: %w", err)
	}
	return alerts, nil
}
