// Package fulfillment runs order mutations against the inventory store and
// assembles order detail views.
//
// Stock is adjusted over the network with no distributed transaction. A
// failed batch is not compensated: the operation fails with a
// reconciliation error, an alert is published, and inventory stays partially
// adjusted until someone fixes it by hand.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/subhadeepds/microservices-project/internal/client"
	"github.com/subhadeepds/microservices-project/internal/identity"
	"github.com/subhadeepds/microservices-project/internal/metrics"
	"github.com/subhadeepds/microservices-project/internal/models"
)

const (
	UnknownCustomer    = "Unknown Customer"
	UnknownProduct     = "Unknown Product"
	UnavailableProduct = "Unavailable Product"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

type Service struct {
	store      OrderStore
	inventory  Inventory
	customers  CustomerDirectory
	reconciler *Reconciler
	publisher  EventPublisher
	metrics    *metrics.Fulfillment
	log        *zap.Logger
	tracer     trace.Tracer
	fanOut     int

	newOperationID func() string
	now            func() time.Time
}

type Option func(*Service)

// WithPublisher sends order events and reconciliation alerts to p.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Fulfillment) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFanOutLimit bounds concurrent lookups while building one detail view.
func WithFanOutLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanOut = n
		}
	}
}

func WithOperationIDs(fn func() string) Option {
	return func(s *Service) { s.newOperationID = fn }
}

func NewService(store OrderStore, inventory Inventory, customers CustomerDirectory, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:          store,
		inventory:      inventory,
		customers:      customers,
		log:            log,
		tracer:         otel.Tracer("fulfillment"),
		fanOut:         8,
		newOperationID: uuid.NewString,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reconciler = NewReconciler(inventory, s.metrics, log)
	return s
}

// Create validates the order, consumes its stock and then persists it.
func (s *Service) Create(ctx context.Context, order *models.Order) (saved models.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.create")
	defer func() { endSpan(span, err) }()

	if err := Validate(order); err != nil {
		return models.Order{}, err
	}

	opID := s.newOperationID()
	span.SetAttributes(attribute.String("operation.id", opID))

	consume := Consume(order.ProductQuantities)
	if _, err := s.reconciler.ApplyAll(ctx, opID+"-consume", consume); err != nil {
		return models.Order{}, s.reconciliationFailed(ctx, opCreate, opID, 0, nil, err)
	}

	toSave := order.Clone()
	toSave.ID = 0
	saved, err = s.store.Save(ctx, toSave)
	if err != nil {
		s.log.Error("❌ Stock consumed but order was not saved",
			zap.String("operation_id", opID),
			zap.Error(err),
		)
		return models.Order{}, fmt.Errorf("failed to save order: %w", err)
	}

	s.log.Info("✅ Order created",
		zap.Int64("order_id", saved.ID),
		zap.Int("lines", len(saved.ProductQuantities)),
	)
	s.publishOrder(ctx, models.EventOrderCreated, saved)
	return saved, nil
}

// Get returns the detail view of one order.
func (s *Service) Get(ctx context.Context, id int64) (detail models.OrderDetail, err error) {
	ctx, span := s.tracer.Start(ctx, "order.get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()

	order, err := s.store.Find(ctx, id)
	if err != nil {
		return models.OrderDetail{}, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return models.OrderDetail{}, notFound("Order not found with id %d", id)
	}
	return s.buildDetail(ctx, *order), nil
}

// List returns the detail view of every order.
func (s *Service) List(ctx context.Context) (details []models.OrderDetail, err error) {
	ctx, span := s.tracer.Start(ctx, "order.list")
	defer func() { endSpan(span, err) }()

	orders, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	details = make([]models.OrderDetail, 0, len(orders))
	for _, o := range orders {
		details = append(details, s.buildDetail(ctx, o))
	}
	return details, nil
}

// Update restores the stored order's stock, consumes the new lines and
// replaces the stored order. The two passes are not atomic with each other.
func (s *Service) Update(ctx context.Context, id int64, updated *models.Order) (saved models.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()

	if err := Validate(updated); err != nil {
		return models.Order{}, err
	}

	existing, err := s.store.Find(ctx, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to load order: %w", err)
	}
	if existing == nil {
		return models.Order{}, notFound("Order not found with id %d", id)
	}

	opID := s.newOperationID()
	span.SetAttributes(attribute.String("operation.id", opID))

	restore := Restore(existing.ProductQuantities)
	if _, err := s.reconciler.ApplyAll(ctx, opID+"-restore", restore); err != nil {
		return models.Order{}, s.reconciliationFailed(ctx, opUpdate, opID, id, nil, err)
	}

	consume := Consume(updated.ProductQuantities)
	if _, err := s.reconciler.ApplyAll(ctx, opID+"-consume", consume); err != nil {
		return models.Order{}, s.reconciliationFailed(ctx, opUpdate, opID, id, restore, err)
	}

	incoming := updated.Clone()
	merged := existing.Clone()
	merged.CustomerID = incoming.CustomerID
	merged.ProductQuantities = incoming.ProductQuantities

	saved, err = s.store.Save(ctx, merged)
	if err != nil {
		s.log.Error("❌ Stock reconciled but order update was not saved",
			zap.String("operation_id", opID),
			zap.Int64("order_id", id),
			zap.Error(err),
		)
		return models.Order{}, fmt.Errorf("failed to save order: %w", err)
	}

	s.log.Info("✅ Order updated", zap.Int64("order_id", saved.ID))
	s.publishOrder(ctx, models.EventOrderUpdated, saved)
	return saved, nil
}

// Delete puts the order's stock back and removes it. A failed restore
// leaves the order in place.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "order.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, err) }()

	existing, err := s.store.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if existing == nil {
		return notFound("Cannot delete, order not found with id %d", id)
	}

	opID := s.newOperationID()
	span.SetAttributes(attribute.String("operation.id", opID))

	if _, err := s.reconciler.ApplyAll(ctx, opID+"-restore", Restore(existing.ProductQuantities)); err != nil {
		return s.reconciliationFailed(ctx, opDelete, opID, id, nil, err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Error("❌ Stock restored but order was not deleted",
			zap.String("operation_id", opID),
			zap.Int64("order_id", id),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.log.Info("🗑️ Order deleted", zap.Int64("order_id", id))
	s.publishOrder(ctx, models.EventOrderDeleted, *existing)
	return nil
}

// reconciliationFailed turns a failed batch into the workflow error and
// raises the inconsistent-state alert. earlier lists adjustments fully
// applied by previous batches of the same operation.
func (s *Service) reconciliationFailed(ctx context.Context, operation, opID string, orderID int64, earlier []Adjustment, err error) error {
	s.metrics.ReconciliationFailed(operation)

	var pf *PartialFailure
	if !errors.As(err, &pf) {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	applied := append(append([]Adjustment(nil), earlier...), pf.Applied...)

	s.log.Error("🚨 Inventory left partially adjusted",
		zap.String("operation", operation),
		zap.String("operation_id", opID),
		zap.Int64("order_id", orderID),
		zap.Int("applied", len(applied)),
		zap.Int64("failed_product_id", pf.FailedAt.ProductID),
		zap.Error(pf.Err),
	)

	if s.publisher != nil {
		alert := models.ReconciliationAlert{
			OperationID: opID,
			Operation:   operation,
			OrderID:     orderID,
			Applied:     toEvents(applied),
			FailedAt:    models.StockAdjustmentEvent{ProductID: pf.FailedAt.ProductID, Delta: pf.FailedAt.Delta},
			Cause:       pf.Err.Error(),
			OccurredAt:  s.now().UTC(),
		}
		if perr := s.publisher.PublishReconciliationAlert(ctx, alert); perr != nil {
			s.log.Warn("⚠️ Failed to publish reconciliation alert", zap.String("operation_id", opID), zap.Error(perr))
		}
	}

	return &Error{
		Kind:    KindReconciliation,
		Message: fmt.Sprintf("Failed to update stock for product ID %d (%d adjustment(s) already applied)", pf.FailedAt.ProductID, len(applied)),
		Err:     pf,
	}
}

func (s *Service) publishOrder(ctx context.Context, eventType string, order models.Order) {
	if s.publisher == nil {
		return
	}

	event := models.OrderEvent{
		Type:              eventType,
		OrderID:           order.ID,
		ProductQuantities: order.ProductQuantities,
		OccurredAt:        s.now().UTC(),
	}
	if order.CustomerID != nil {
		event.CustomerID = *order.CustomerID
	}
	if p, ok := identity.FromContext(ctx); ok {
		event.Subject = p.Subject
	}

	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		// The order is already committed.
		s.log.Warn("⚠️ Failed to publish event", zap.String("type", eventType), zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

// buildDetail resolves the customer name and product names concurrently.
// A failed lookup degrades only its own field.
func (s *Service) buildDetail(ctx context.Context, order models.Order) models.OrderDetail {
	ids := order.ProductIDs()
	products := make([]models.ProductDetail, len(ids))
	customerName := UnknownCustomer

	var g errgroup.Group
	g.SetLimit(s.fanOut)

	g.Go(func() error {
		customerName = s.resolveCustomer(ctx, order)
		return nil
	})
	for i, id := range ids {
		qty := order.ProductQuantities[id]
		g.Go(func() error {
			products[i] = models.ProductDetail{
				ProductID:   id,
				ProductName: s.resolveProduct(ctx, id),
				Quantity:    qty,
			}
			return nil
		})
	}
	_ = g.Wait()

	return models.OrderDetail{
		OrderID:      order.ID,
		CustomerName: customerName,
		Products:     products,
	}
}

func (s *Service) resolveCustomer(ctx context.Context, order models.Order) string {
	if order.CustomerID == nil {
		s.metrics.Fallback("customer")
		return UnknownCustomer
	}

	customer, err := s.customers.GetCustomer(ctx, *order.CustomerID)
	if err != nil {
		s.metrics.Fallback("customer")
		s.log.Warn("⚠️ Customer lookup failed",
			zap.Int64("order_id", order.ID),
			zap.Int64("customer_id", *order.CustomerID),
			zap.Error(err),
		)
		return UnknownCustomer
	}
	if customer.Name == "" {
		s.metrics.Fallback("customer")
		return UnknownCustomer
	}
	return customer.Name
}

func (s *Service) resolveProduct(ctx context.Context, productID int64) string {
	product, err := s.inventory.GetProduct(ctx, productID)
	switch {
	case errors.Is(err, client.ErrNotFound):
		s.metrics.Fallback("product")
		return UnknownProduct
	case err != nil:
		s.metrics.Fallback("product")
		s.log.Warn("⚠️ Product lookup failed", zap.Int64("product_id", productID), zap.Error(err))
		return UnavailableProduct
	case product.Name == "":
		s.metrics.Fallback("product")
		return UnknownProduct
	}
	return product.Name
}

func toEvents(adjs []Adjustment) []models.StockAdjustmentEvent {
	out := make([]models.StockAdjustmentEvent, 0, len(adjs))
	for _, a := range adjs {
		out = append(out, models.StockAdjustmentEvent{ProductID: a.ProductID, Delta: a.Delta})
	}
	return out
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.kind", KindOf(err).String()))
	}
	span.End()
}
