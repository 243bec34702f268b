package command

import (
	"context"
	"fmt"

	"github.com/tair/supply-dashboard/internal/order/domain"
	"github.com/tair/supply-dashboard/internal/order/store"
	productdomain "github.com/tair/supply-dashboard/internal/product/domain"
	"github.com/tair/supply-dashboard/kafka"
	"github.com/tair/supply-dashboard/pkg/logger"
)

// OrderUpdater changes an order's status and returns it before and after.
type OrderUpdater interface {
	UpdateOrder(ctx context.Context, orderID string, req domain.UpdateOrderRequest) (*store.UpdateResult, error)
}

// StockAdjuster applies a signed quantity change to a product's stock.
type StockAdjuster interface {
	UpdateProductStock(ctx context.Context, productID, warehouseID string, quantityChange int) (*productdomain.Product, error)
}

// EventPublisher announces completed orders.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, event kafka.OrderCompletedEvent) error
}

// UpdateOrderCommand represents the command to change an order's status
type UpdateOrderCommand struct {
	OrderID     string
	Status      domain.Status
	WarehouseID string
	// RequestedBy is the username recorded on the completion event.
	RequestedBy string
}

// UpdateOrderResult reports the order update and its follow-ups. Follow-up
// failures never fail the command; they are reported here instead.
type UpdateOrderResult struct {
	Order      domain.Order
	Completed  bool
	Product    *productdomain.Product
	StockErr   error
	PublishErr error
}

// Warnings lists user-facing notes about follow-ups that did not succeed.
func (r *UpdateOrderResult) Warnings() []string {
	var out []string
	if r.StockErr != nil {
		out = append(out, "Order completed, but the product stock could not be updated")
	}
	if r.PublishErr != nil {
		out = append(out, "Order completed, but the completion event could not be published")
	}
	return out
}

// UpdateOrderHandler handles order status changes, including the stock
// increment that follows a transition into Completed.
type UpdateOrderHandler struct {
	orders    OrderUpdater
	stock     StockAdjuster
	publisher EventPublisher
}

// NewUpdateOrderHandler creates a new update order handler. publisher may be nil.
func NewUpdateOrderHandler(orders OrderUpdater, stock StockAdjuster, publisher EventPublisher) *UpdateOrderHandler {
	return &UpdateOrderHandler{
		orders:    orders,
		stock:     stock,
		publisher: publisher,
	}
}

// Handle executes the update order command
func (h *UpdateOrderHandler) Handle(ctx context.Context, cmd UpdateOrderCommand) (*UpdateOrderResult, error) {
	if cmd.OrderID == "" {
		return nil, domain.ErrMissingOrderID
	}

	req := domain.UpdateOrderRequest{Status: cmd.Status, WarehouseID: cmd.WarehouseID}
	updated, err := h.orders.UpdateOrder(ctx, cmd.OrderID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	result := &UpdateOrderResult{Order: updated.Current}
	// The refetched order may lag the write, so the requested status decides.
	if cmd.Status != domain.StatusCompleted || updated.Previous.Status == domain.StatusCompleted {
		return result, nil
	}
	result.Completed = true

	warehouseID := firstNonEmpty(cmd.WarehouseID, updated.Current.WarehouseID, updated.Previous.WarehouseID, productdomain.DefaultWarehouseID)
	productID := firstNonEmpty(updated.Current.ProductID, updated.Previous.ProductID)
	quantity := updated.Current.Quantity
	if quantity == 0 {
		quantity = updated.Previous.Quantity
	}

	product, err := h.stock.UpdateProductStock(ctx, productID, warehouseID, quantity)
	if err != nil {
		result.StockErr = err
		logger.Warn(ctx).
			Err(err).
			Str("order_id", cmd.OrderID).
			Str("product_id", productID).
			Str("warehouse_id", warehouseID).
			Int("quantity", quantity).
			Msg("Order completed but stock update failed")
	} else {
		result.Product = product
	}

	if h.publisher != nil {
		event := kafka.OrderCompletedEvent{
			OrderID:        cmd.OrderID,
			ProductID:      productID,
			WarehouseID:    warehouseID,
			Quantity:       quantity,
			PreviousStatus: string(updated.Previous.Status),
			StockApplied:   result.StockErr == nil,
			CompletedBy:    cmd.RequestedBy,
		}
		if product != nil {
			event.StockLevel = product.StockLevel
		}
		if err := h.publisher.PublishOrderCompleted(ctx, event); err != nil {
			result.PublishErr = err
			logger.Warn(ctx).
				Err(err).
				Str("order_id", cmd.OrderID).
				Msg("Order completed but event publish failed")
		}
	}

	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
