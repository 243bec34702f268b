package command

import (
	"context"
	"fmt"

	"github.com/tair/supply-dashboard/internal/order/domain"
	productdomain "github.com/tair/supply-dashboard/internal/product/domain"
)

// OrderCreator places orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
}

// ProductLookup finds a product in the loaded product list.
type ProductLookup interface {
	FindInList(productID string) (productdomain.Product, bool)
}

// CreateOrderCommand represents the command to place an order
type CreateOrderCommand struct {
	ProductID   string
	WarehouseID string
	Quantity    int
	ProductName string
	Supplier    string
}

// CreateOrderHandler handles create order command
type CreateOrderHandler struct {
	orders   OrderCreator
	products ProductLookup
}

// NewCreateOrderHandler creates a new create order handler
func NewCreateOrderHandler(orders OrderCreator, products ProductLookup) *CreateOrderHandler {
	return &CreateOrderHandler{orders: orders, products: products}
}

// Handle fills in the product name, supplier and warehouse from the product
// list when the caller left them out, then places the order.
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	req := domain.CreateOrderRequest{
		ProductID:   cmd.ProductID,
		WarehouseID: cmd.WarehouseID,
		Quantity:    cmd.Quantity,
		ProductName: cmd.ProductName,
		Supplier:    cmd.Supplier,
	}

	if p, ok := h.products.FindInList(cmd.ProductID); ok {
		if req.ProductName == "" {
			req.ProductName = p.ProductName
		}
		if req.Supplier == "" {
			req.Supplier = p.Supplier
		}
		if req.WarehouseID == "" {
			req.WarehouseID = p.WarehouseID
		}
	}
	if req.WarehouseID == "" {
		req.WarehouseID = productdomain.DefaultWarehouseID
	}

	order, err := h.orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}
