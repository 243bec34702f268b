package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/product/domain"
)

type backend struct {
	mu       sync.Mutex
	products map[string]domain.Product
	gets     int32
	puts     []domain.StockUpdate
	failList bool
	failPut  bool
}

func newBackend(products ...domain.Product) *backend {
	b := &backend{products: make(map[string]domain.Product)}
	for _, p := range products {
		b.products[p.Key()] = p
	}
	return b
}

func writeEnvelope(w http.ResponseWriter, success bool, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":   success,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/warehouses/warehouse_main_01/products":
		if b.failList {
			writeEnvelope(w, false, map[string]any{"message": "inventory offline"})
			return
		}
		list := []domain.Product{}
		for _, p := range b.products {
			list = append(list, p)
		}
		writeEnvelope(w, true, map[string]any{"message": "ok", "data": list})

	case r.Method == http.MethodGet && len(r.URL.Path) > len("/products/"):
		atomic.AddInt32(&b.gets, 1)
		key := domain.Key(r.URL.Path[len("/products/"):], r.URL.Query().Get("warehouseId"))
		p, ok := b.products[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Product not found"})
			return
		}
		writeEnvelope(w, true, map[string]any{"message": "ok", "data": p})

	case r.Method == http.MethodPut:
		if b.failPut {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var upd domain.StockUpdate
		json.NewDecoder(r.Body).Decode(&upd)
		b.puts = append(b.puts, upd)
		key := domain.Key(r.URL.Path[len("/products/"):], r.URL.Query().Get("warehouseId"))
		p := b.products[key]
		p.StockLevel = upd.StockLevel
		b.products[key] = p
		writeEnvelope(w, true, map[string]any{"message": "updated"})

	default:
		http.NotFound(w, r)
	}
}

func newStore(t *testing.T, b *backend) *Store {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return New(apiclient.New(srv.URL, time.Second), "", nil)
}

var bolt = domain.Product{
	ProductID:        "p1",
	WarehouseID:      "warehouse_main_01",
	ProductName:      "Steel Bolt",
	Category:         "Hardware",
	Supplier:         "Acme",
	StockLevel:       5,
	ReorderThreshold: 10,
}

func TestFetchProducts(t *testing.T) {
	s := newStore(t, newBackend(bolt))

	require.NoError(t, s.FetchProducts(context.Background()))
	assert.True(t, s.Loaded())
	assert.False(t, s.IsLoading())
	assert.Empty(t, s.Error())
	require.Equal(t, 1, s.Total())
	assert.Equal(t, "Steel Bolt", s.Products()[0].ProductName)
}

func TestFetchProductsFailureKeepsPreviousList(t *testing.T) {
	b := newBackend(bolt)
	s := newStore(t, b)
	require.NoError(t, s.FetchProducts(context.Background()))

	b.mu.Lock()
	b.failList = true
	b.mu.Unlock()

	err := s.FetchProducts(context.Background())
	require.Error(t, err)
	assert.Equal(t, "inventory offline", s.Error())
	assert.Equal(t, 1, s.Total())
	assert.False(t, s.IsLoading())
}

func TestFetchProductByIDCachesResult(t *testing.T) {
	b := newBackend(bolt)
	s := newStore(t, b)

	for i := 0; i < 3; i++ {
		p, err := s.FetchProductByID(context.Background(), "p1", "warehouse_main_01")
		require.NoError(t, err)
		assert.Equal(t, 5, p.StockLevel)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.gets))
}

func TestFetchProductByIDRequiresBothKeys(t *testing.T) {
	s := newStore(t, newBackend())

	_, err := s.FetchProductByID(context.Background(), "p1", "")
	assert.ErrorIs(t, err, ErrMissingKey)
	_, err = s.FetchProductByID(context.Background(), "", "w1")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestFetchProductByIDFailureIsKeyed(t *testing.T) {
	s := newStore(t, newBackend(bolt))

	_, err := s.FetchProductByID(context.Background(), "missing", "warehouse_main_01")
	require.Error(t, err)
	assert.True(t, apiclient.IsNotFound(err))
	assert.Equal(t, "Product not found", s.ProductError("missing", "warehouse_main_01"))
	assert.Empty(t, s.ProductError("p1", "warehouse_main_01"))
	assert.False(t, s.IsProductLoading("missing", "warehouse_main_01"))
}

func TestUpdateProductStockAddsQuantity(t *testing.T) {
	b := newBackend(bolt)
	s := newStore(t, b)
	require.NoError(t, s.FetchProducts(context.Background()))

	updated, err := s.UpdateProductStock(context.Background(), "p1", "warehouse_main_01", 7)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.StockLevel)

	b.mu.Lock()
	require.Len(t, b.puts, 1)
	assert.Equal(t, 12, b.puts[0].StockLevel)
	b.mu.Unlock()

	cached, ok := s.Cached("p1", "warehouse_main_01")
	require.True(t, ok)
	assert.Equal(t, 12, cached.StockLevel)
	assert.Equal(t, 12, s.Products()[0].StockLevel)
	assert.Equal(t, domain.StockStatusOK, cached.StockStatus())
}

func TestUpdateProductStockStartsFromBackendLevel(t *testing.T) {
	b := newBackend(bolt)
	s := newStore(t, b)

	first, err := s.FetchProductByID(context.Background(), "p1", "warehouse_main_01")
	require.NoError(t, err)
	assert.Equal(t, 5, first.StockLevel)

	b.mu.Lock()
	restocked := b.products[bolt.Key()]
	restocked.StockLevel = 50
	b.products[bolt.Key()] = restocked
	b.mu.Unlock()

	updated, err := s.UpdateProductStock(context.Background(), "p1", "warehouse_main_01", 7)
	require.NoError(t, err)
	assert.Equal(t, 57, updated.StockLevel)

	b.mu.Lock()
	require.Len(t, b.puts, 1)
	assert.Equal(t, 57, b.puts[0].StockLevel)
	assert.Equal(t, 57, b.products[bolt.Key()].StockLevel)
	b.mu.Unlock()

	cached, ok := s.Cached("p1", "warehouse_main_01")
	require.True(t, ok)
	assert.Equal(t, 57, cached.StockLevel)
}

func TestUpdateProductStockFailureLeavesLocalState(t *testing.T) {
	b := newBackend(bolt)
	b.failPut = true
	s := newStore(t, b)

	_, err := s.UpdateProductStock(context.Background(), "p1", "warehouse_main_01", 3)
	require.Error(t, err)

	cached, ok := s.Cached("p1", "warehouse_main_01")
	require.True(t, ok)
	assert.Equal(t, 5, cached.StockLevel)
	assert.NotEmpty(t, s.ProductError("p1", "warehouse_main_01"))
}

func TestSearch(t *testing.T) {
	copper := bolt
	copper.ProductID = "p2"
	copper.ProductName = "Copper Wire"
	copper.Category = "Electrical"
	copper.Supplier = "Wireco"

	s := newStore(t, newBackend(bolt, copper))
	require.NoError(t, s.FetchProducts(context.Background()))

	got := s.Search("ACME")
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ProductID)
	assert.Len(t, s.Search(""), 2)
}
