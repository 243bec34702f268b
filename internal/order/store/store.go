package store

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/cache"
	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/internal/order/domain"
	"github.com/tair/supply-dashboard/pkg/logger"
)

// UpdateResult carries the order before and after a status change.
type UpdateResult struct {
	Previous domain.Order
	Current  domain.Order
}

// StatusChanged reports whether the update moved the order into status.
func (r UpdateResult) StatusChanged(status domain.Status) bool {
	return r.Current.Status == status && r.Previous.Status != status
}

// Store holds the order list, its count and a per-order cache.
type Store struct {
	api      apiclient.API
	selected *cache.Keyed[domain.Order]
	now      func() time.Time

	mu        sync.RWMutex
	orders    []domain.Order
	total     int
	loaded    bool
	isLoading bool
	err       string
}

func New(api apiclient.API, m *metrics.Registry) *Store {
	return &Store{
		api: api,
		selected: cache.NewKeyed[domain.Order]("order", func(err error) string {
			return apiclient.Message(err, "Failed to fetch order details")
		}, m),
		now: time.Now,
	}
}

// FetchOrders replaces the order list and resets the count to its length.
func (s *Store) FetchOrders(ctx context.Context) error {
	s.mu.Lock()
	s.isLoading = true
	s.err = ""
	s.mu.Unlock()

	var orders []domain.Order
	err := s.api.Get(ctx, "/orders", nil, &orders)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false

	if err != nil {
		s.err = apiclient.Message(err, "Failed to fetch orders")
		logger.Error(ctx).Err(err).Msg("Failed to fetch orders")
		return fmt.Errorf("fetch orders: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	s.orders = orders
	s.total = len(orders)
	s.loaded = true
	return nil
}

// FetchOrderByID returns the cached order or fetches it once. A fetched
// order replaces its entry in the list, or is prepended when absent.
func (s *Store) FetchOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, domain.ErrMissingOrderID
	}

	o, err := s.selected.Load(ctx, orderID, s.fetchOne(orderID))
	if err != nil {
		logger.Error(ctx).Err(err).Str("order_id", orderID).Msg("Failed to fetch order")
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	return &o, nil
}

func (s *Store) refreshOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.selected.Reload(ctx, orderID, s.fetchOne(orderID))
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) fetchOne(orderID string) cache.Fetcher[domain.Order] {
	return func(ctx context.Context) (domain.Order, error) {
		var order domain.Order
		if err := s.api.Get(ctx, "/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
			return domain.Order{}, err
		}
		s.upsert(order)
		return order, nil
	}
}

func (s *Store) upsert(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].OrderID == order.OrderID {
			s.orders[i] = order
			return
		}
	}
	s.orders = append([]domain.Order{order}, s.orders...)
}

// CreateOrder places a new order. The backend only echoes the assigned ID,
// so the local copy is assembled from the request and starts Pending.
func (s *Store) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.isLoading = true
	s.err = ""
	s.mu.Unlock()

	var created struct {
		OrderID string `json:"order_id"`
	}
	err := s.api.Post(ctx, "/orders", req, &created)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false

	if err != nil {
		s.err = apiclient.Message(err, "Failed to create order")
		logger.Error(ctx).
			Err(err).
			Str("product_id", req.ProductID).
			Int("quantity", req.Quantity).
			Msg("Failed to create order")
		return nil, fmt.Errorf("create order: %w", err)
	}

	order := domain.Order{
		OrderID:     created.OrderID,
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		ProductName: req.ProductName,
		Supplier:    req.Supplier,
		Quantity:    req.Quantity,
		Status:      domain.StatusPending,
		CreatedAt:   s.now().UTC().Format(time.RFC3339Nano),
	}

	s.orders = append([]domain.Order{order}, s.orders...)
	s.total++
	if order.OrderID != "" {
		s.selected.Set(order.OrderID, order)
	}

	logger.Info(ctx).
		Str("order_id", order.OrderID).
		Str("product_id", order.ProductID).
		Int("quantity", order.Quantity).
		Msg("Order created")

	return &order, nil
}

// UpdateOrder changes an order's status on the backend and then re-reads
// it, so the returned Current reflects what the backend stored.
func (s *Store) UpdateOrder(ctx context.Context, orderID string, req domain.UpdateOrderRequest) (*UpdateResult, error) {
	if orderID == "" {
		return nil, domain.ErrMissingOrderID
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	previous, err := s.FetchOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.selected.SetLoading(orderID, true)

	var ack struct {
		Message string `json:"message"`
		OrderID string `json:"order_id"`
	}
	if err := s.api.Put(ctx, "/orders/"+url.PathEscape(orderID), nil, req, &ack); err != nil {
		s.selected.Fail(orderID, apiclient.Message(err, "Failed to update order"))
		logger.Error(ctx).
			Err(err).
			Str("order_id", orderID).
			Str("status", string(req.Status)).
			Msg("Failed to update order")
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}

	current, err := s.refreshOrder(ctx, orderID)
	if err != nil {
		s.selected.Fail(orderID, "Failed to refresh order data after update")
		return nil, fmt.Errorf("refresh order %s: %w", orderID, err)
	}

	logger.Info(ctx).
		Str("order_id", orderID).
		Str("previous_status", string(previous.Status)).
		Str("status", string(current.Status)).
		Str("message", ack.Message).
		Msg("Order updated")

	return &UpdateResult{Previous: *previous, Current: *current}, nil
}

// DeleteOrder removes the order on the backend, then from the list, the
// cache and the count.
func (s *Store) DeleteOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return domain.ErrMissingOrderID
	}

	s.selected.SetLoading(orderID, true)
	if err := s.api.Delete(ctx, "/orders/"+url.PathEscape(orderID), nil); err != nil {
		s.selected.Fail(orderID, apiclient.Message(err, "Failed to delete order"))
		logger.Error(ctx).Err(err).Str("order_id", orderID).Msg("Failed to delete order")
		return fmt.Errorf("delete order %s: %w", orderID, err)
	}

	s.selected.Delete(orderID)

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.orders[:0]
	for _, o := range s.orders {
		if o.OrderID != orderID {
			kept = append(kept, o)
		}
	}
	s.orders = kept
	if s.total > 0 {
		s.total--
	}

	logger.Info(ctx).Str("order_id", orderID).Msg("Order deleted")
	return nil
}

// Orders returns a copy of the order list.
func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Search filters the order list by product ID or status.
func (s *Store) Search(query string) []domain.Order {
	return domain.Filter(s.Orders(), query)
}

// Total is the order count, adjusted locally on create and delete.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) IsOrderLoading(orderID string) bool {
	return s.selected.IsLoading(orderID)
}

func (s *Store) OrderError(orderID string) string {
	return s.selected.Err(orderID)
}

// Cached returns an order from the per-order cache without fetching.
func (s *Store) Cached(orderID string) (domain.Order, bool) {
	return s.selected.Get(orderID)
}
