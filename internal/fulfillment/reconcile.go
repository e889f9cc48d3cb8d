package fulfillment

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/metrics"
)

// Adjustment is one signed stock change: negative consumes, positive restocks.
type Adjustment struct {
	ProductID int64
	Delta     int
}

// Consume returns the adjustments that take lines out of stock.
func Consume(lines map[int64]int) []Adjustment {
	return adjustments(lines, -1)
}

// Restore returns the adjustments that put lines back into stock.
func Restore(lines map[int64]int) []Adjustment {
	return adjustments(lines, 1)
}

// adjustments orders lines by product id so a failed batch always leaves
// the same inspectable prefix behind.
func adjustments(lines map[int64]int, sign int) []Adjustment {
	out := make([]Adjustment, 0, len(lines))
	for id, qty := range lines {
		out = append(out, Adjustment{ProductID: id, Delta: sign * qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// IdempotencyKey identifies one adjustment of one batch.
func IdempotencyKey(batchID string, adj Adjustment) string {
	return fmt.Sprintf("%s:%d", batchID, adj.ProductID)
}

// Reconciler applies adjustment batches to the inventory store one at a time.
// It stops at the first failure. It never retries and never compensates.
type Reconciler struct {
	inventory Inventory
	metrics   *metrics.Fulfillment
	log       *zap.Logger
}

func NewReconciler(inventory Inventory, m *metrics.Fulfillment, log *zap.Logger) *Reconciler {
	return &Reconciler{inventory: inventory, metrics: m, log: log}
}

// ApplyAll returns the number of adjustments applied. On failure the error
// is a *PartialFailure.
func (r *Reconciler) ApplyAll(ctx context.Context, batchID string, batch []Adjustment) (int, error) {
	for i, adj := range batch {
		err := r.inventory.AdjustStock(ctx, adj.ProductID, adj.Delta, IdempotencyKey(batchID, adj))
		if err != nil {
			r.metrics.AdjustmentFailed()
			r.log.Error("❌ Stock adjustment failed",
				zap.String("batch_id", batchID),
				zap.Int64("product_id", adj.ProductID),
				zap.Int("delta", adj.Delta),
				zap.Int("applied", i),
				zap.Error(err),
			)
			return i, &PartialFailure{
				Applied:  append([]Adjustment(nil), batch[:i]...),
				FailedAt: adj,
				Err:      err,
			}
		}

		r.metrics.AdjustmentApplied()
		r.log.Debug("✅ Stock adjusted",
			zap.String("batch_id", batchID),
			zap.Int64("product_id", adj.ProductID),
			zap.Int("delta", adj.Delta),
		)
	}
	return len(batch), nil
}
