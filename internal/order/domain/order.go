package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

var (
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrMissingOrderID  = errors.New("order ID is required")
	ErrMissingProduct  = errors.New("product ID and warehouse ID are required")
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(raw string) (Status, error) {
	for _, s := range Statuses {
		if strings.EqualFold(string(s), strings.TrimSpace(raw)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// Order represents a purchase order for one product
type Order struct {
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Supplier    string `json:"supplier,omitempty"`
	Quantity    int    `json:"quantity"`
	Status      Status `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// IsCompleted checks if the order has been fulfilled
func (o Order) IsCompleted() bool {
	return o.Status == StatusCompleted
}

// CreateOrderRequest is the body sent when placing an order.
type CreateOrderRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	ProductName string `json:"product_name,omitempty"`
	Supplier    string `json:"supplier,omitempty"`
}

func (r CreateOrderRequest) Validate() error {
	if r.ProductID == "" || r.WarehouseID == "" {
		return ErrMissingProduct
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// UpdateOrderRequest is the body sent when changing an order's status.
type UpdateOrderRequest struct {
	Status      Status `json:"status"`
	WarehouseID string `json:"warehouse_id"`
}

func (r UpdateOrderRequest) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	return nil
}

// Filter keeps orders whose product ID or status contains query,
// case-insensitively. An empty query keeps everything.
func Filter(orders []Order, query string) []Order {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return orders
	}

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.ProductID), q) ||
			strings.Contains(strings.ToLower(string(o.Status)), q) {
			out = append(out, o)
		}
	}
	return out
}
