package kafka

import "time"

// OrderCompletedEvent is emitted after an order moves to Completed and its
// quantity has been applied to warehouse stock.
type OrderCompletedEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	OrderID        string    `json:"order_id"`
	ProductID      string    `json:"product_id"`
	WarehouseID    string    `json:"warehouse_id"`
	Quantity       int       `json:"quantity"`
	PreviousStatus string    `json:"previous_status"`
	StockLevel     int       `json:"stock_level"`
	StockApplied   bool      `json:"stock_applied"`
	CompletedBy    string    `json:"completed_by,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeOrderCompleted = "order.completed"
)

// Kafka topics
const (
	TopicOrderCompleted = "order-completed"
)
