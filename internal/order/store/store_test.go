package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/order/domain"
)

type backend struct {
	mu       sync.Mutex
	orders   map[string]domain.Order
	order    []string
	gets     map[string]int
	nextID   string
	failPut  bool
	failDrop bool
}

func newBackend(orders ...domain.Order) *backend {
	b := &backend{orders: make(map[string]domain.Order), gets: make(map[string]int), nextID: "o-new"}
	for _, o := range orders {
		b.orders[o.OrderID] = o
		b.order = append(b.order, o.OrderID)
	}
	return b
}

func (b *backend) getCount(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gets[id]
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := strings.TrimPrefix(r.URL.Path, "/orders/")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/orders":
		list := []domain.Order{}
		for _, id := range b.order {
			list = append(list, b.orders[id])
		}
		writeEnvelope(w, list)

	case r.Method == http.MethodGet:
		b.gets[id]++
		o, ok := b.orders[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeEnvelope(w, o)

	case r.Method == http.MethodPost:
		var req domain.CreateOrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		writeEnvelope(w, map[string]any{"order_id": b.nextID, "message": "Order created"})

	case r.Method == http.MethodPut:
		if b.failPut {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"message": "upstream down"})
			return
		}
		var req domain.UpdateOrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		o := b.orders[id]
		o.Status = req.Status
		b.orders[id] = o
		writeEnvelope(w, map[string]any{"message": "Order updated", "order_id": id})

	case r.Method == http.MethodDelete:
		if b.failDrop {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		delete(b.orders, id)
		writeEnvelope(w, map[string]any{"message": "Order deleted"})
	}
}

func newStore(t *testing.T, b *backend) *Store {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	s := New(apiclient.New(srv.URL, time.Second), nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func order(id string, status domain.Status) domain.Order {
	return domain.Order{OrderID: id, ProductID: "p1", WarehouseID: "w1", Quantity: 4, Status: status}
}

func TestFetchOrdersSetsTotal(t *testing.T) {
	s := newStore(t, newBackend(order("o1", domain.StatusPending), order("o2", domain.StatusCompleted)))

	require.NoError(t, s.FetchOrders(context.Background()))
	assert.Equal(t, 2, s.Total())
	assert.Len(t, s.Orders(), 2)
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Error())
}

func TestFetchOrderByIDPrependsWhenAbsent(t *testing.T) {
	b := newBackend(order("o1", domain.StatusPending), order("o2", domain.StatusPending))
	s := newStore(t, b)

	o, err := s.FetchOrderByID(context.Background(), "o2")
	require.NoError(t, err)
	assert.Equal(t, "o2", o.OrderID)
	require.Len(t, s.Orders(), 1)

	_, err = s.FetchOrderByID(context.Background(), "o2")
	require.NoError(t, err)
	assert.Equal(t, 1, b.getCount("o2"))
}

func TestFetchOrderByIDReplacesListEntry(t *testing.T) {
	b := newBackend(order("o1", domain.StatusPending))
	s := newStore(t, b)
	require.NoError(t, s.FetchOrders(context.Background()))

	b.mu.Lock()
	o := b.orders["o1"]
	o.Status = domain.StatusProcessing
	b.orders["o1"] = o
	b.mu.Unlock()

	_, err := s.FetchOrderByID(context.Background(), "o1")
	require.NoError(t, err)
	list := s.Orders()
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusProcessing, list[0].Status)
}

func TestFetchOrderByIDFailureIsKeyed(t *testing.T) {
	s := newStore(t, newBackend())

	_, err := s.FetchOrderByID(context.Background(), "ghost")
	require.Error(t, err)
	assert.NotEmpty(t, s.OrderError("ghost"))
	assert.False(t, s.IsOrderLoading("ghost"))
}

func TestCreateOrderPrependsPendingOrder(t *testing.T) {
	s := newStore(t, newBackend(order("o1", domain.StatusCompleted)))
	require.NoError(t, s.FetchOrders(context.Background()))

	created, err := s.CreateOrder(context.Background(), domain.CreateOrderRequest{
		ProductID:   "p9",
		WarehouseID: "w1",
		Quantity:    3,
		ProductName: "Hinge",
		Supplier:    "Acme",
	})
	require.NoError(t, err)

	assert.Equal(t, "o-new", created.OrderID)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, "2024-05-01T12:00:00Z", created.CreatedAt)
	assert.Equal(t, 2, s.Total())

	list := s.Orders()
	require.Len(t, list, 2)
	assert.Equal(t, "o-new", list[0].OrderID)

	cached, ok := s.Cached("o-new")
	require.True(t, ok)
	assert.Equal(t, "Hinge", cached.ProductName)
}

func TestCreateOrderRejectsBadQuantity(t *testing.T) {
	s := newStore(t, newBackend())

	_, err := s.CreateOrder(context.Background(), domain.CreateOrderRequest{ProductID: "p1", WarehouseID: "w1"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, 0, s.Total())
}

func TestUpdateOrderRefetchesAfterWrite(t *testing.T) {
	b := newBackend(order("o1", domain.StatusProcessing))
	s := newStore(t, b)

	res, err := s.UpdateOrder(context.Background(), "o1", domain.UpdateOrderRequest{Status: domain.StatusCompleted, WarehouseID: "w1"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusProcessing, res.Previous.Status)
	assert.Equal(t, domain.StatusCompleted, res.Current.Status)
	assert.True(t, res.StatusChanged(domain.StatusCompleted))
	assert.Equal(t, 2, b.getCount("o1"))
	assert.False(t, s.IsOrderLoading("o1"))

	cached, ok := s.Cached("o1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, cached.Status)
}

func TestUpdateOrderAlreadyCompletedIsNotAChange(t *testing.T) {
	s := newStore(t, newBackend(order("o1", domain.StatusCompleted)))

	res, err := s.UpdateOrder(context.Background(), "o1", domain.UpdateOrderRequest{Status: domain.StatusCompleted})
	require.NoError(t, err)
	assert.False(t, res.StatusChanged(domain.StatusCompleted))
}

func TestUpdateOrderFailure(t *testing.T) {
	b := newBackend(order("o1", domain.StatusPending))
	b.failPut = true
	s := newStore(t, b)

	_, err := s.UpdateOrder(context.Background(), "o1", domain.UpdateOrderRequest{Status: domain.StatusCancelled})
	require.Error(t, err)
	assert.Equal(t, "upstream down", s.OrderError("o1"))
	assert.False(t, s.IsOrderLoading("o1"))

	cached, _ := s.Cached("o1")
	assert.Equal(t, domain.StatusPending, cached.Status)
}

func TestUpdateOrderKeepsFetchError(t *testing.T) {
	s := newStore(t, newBackend())

	_, err := s.UpdateOrder(context.Background(), "ghost", domain.UpdateOrderRequest{Status: domain.StatusCompleted})
	require.Error(t, err)
	assert.True(t, apiclient.IsNotFound(err))

	_, fetchErr := s.FetchOrderByID(context.Background(), "ghost")
	require.Error(t, fetchErr)
	assert.Equal(t, apiclient.Message(fetchErr, "Failed to fetch order details"), s.OrderError("ghost"))
	assert.NotEqual(t, "Failed to find order", s.OrderError("ghost"))
	assert.False(t, s.IsOrderLoading("ghost"))
}

func TestUpdateOrderRejectsUnknownStatus(t *testing.T) {
	s := newStore(t, newBackend(order("o1", domain.StatusPending)))

	_, err := s.UpdateOrder(context.Background(), "o1", domain.UpdateOrderRequest{Status: "Shipped"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestDeleteOrder(t *testing.T) {
	s := newStore(t, newBackend(order("o1", domain.StatusPending), order("o2", domain.StatusPending)))
	require.NoError(t, s.FetchOrders(context.Background()))
	_, err := s.FetchOrderByID(context.Background(), "o1")
	require.NoError(t, err)

	require.NoError(t, s.DeleteOrder(context.Background(), "o1"))

	assert.Equal(t, 1, s.Total())
	list := s.Orders()
	require.Len(t, list, 1)
	assert.Equal(t, "o2", list[0].OrderID)
	_, ok := s.Cached("o1")
	assert.False(t, ok)
}

func TestDeleteOrderFailureKeepsOrder(t *testing.T) {
	b := newBackend(order("o1", domain.StatusPending))
	b.failDrop = true
	s := newStore(t, b)
	require.NoError(t, s.FetchOrders(context.Background()))

	require.Error(t, s.DeleteOrder(context.Background(), "o1"))
	assert.Equal(t, 1, s.Total())
	assert.NotEmpty(t, s.OrderError("o1"))
}
