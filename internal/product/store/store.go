package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/cache"
	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/internal/product/domain"
	"github.com/tair/supply-dashboard/pkg/logger"
)

// ErrMissingKey is returned when a product lookup lacks either half of its key.
var ErrMissingKey = errors.New("product ID and warehouse ID are required")

// Store holds the warehouse product list plus a per-product cache.
type Store struct {
	api         apiclient.API
	warehouseID string
	selected    *cache.Keyed[domain.Product]

	mu        sync.RWMutex
	products  []domain.Product
	loaded    bool
	isLoading bool
	err       string
}

// New creates a product store reading the list from warehouseID.
func New(api apiclient.API, warehouseID string, m *metrics.Registry) *Store {
	if warehouseID == "" {
		warehouseID = domain.DefaultWarehouseID
	}
	return &Store{
		api:         api,
		warehouseID: warehouseID,
		selected: cache.NewKeyed[domain.Product]("product", func(err error) string {
			return apiclient.Message(err, "Failed to fetch product details")
		}, m),
	}
}

// WarehouseID returns the warehouse the list is read from.
func (s *Store) WarehouseID() string {
	return s.warehouseID
}

// FetchProducts replaces the product list with the backend's current view.
// On failure the previous list is kept and the error is recorded.
func (s *Store) FetchProducts(ctx context.Context) error {
	s.mu.Lock()
	s.isLoading = true
	s.err = ""
	s.mu.Unlock()

	var products []domain.Product
	err := s.api.Get(ctx, "/warehouses/"+url.PathEscape(s.warehouseID)+"/products", nil, &products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false

	if err != nil {
		s.err = apiclient.Message(err, "Failed to fetch products")
		logger.Error(ctx).
			Err(err).
			Str("warehouse_id", s.warehouseID).
			Msg("Failed to fetch products")
		return fmt.Errorf("fetch products: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	s.products = products
	s.loaded = true
	return nil
}

// FetchProductByID returns the cached product or fetches it once.
func (s *Store) FetchProductByID(ctx context.Context, productID, warehouseID string) (*domain.Product, error) {
	if productID == "" || warehouseID == "" {
		return nil, ErrMissingKey
	}

	key := domain.Key(productID, warehouseID)
	p, err := s.selected.Load(ctx, key, s.fetchProduct(productID, warehouseID))
	if err != nil {
		logger.Error(ctx).
			Err(err).
			Str("product_id", productID).
			Str("warehouse_id", warehouseID).
			Msg("Failed to fetch product")
		return nil, fmt.Errorf("fetch product %s: %w", key, err)
	}
	return &p, nil
}

// UpdateProductStock adds quantityChange to the product's stock level and
// sends the new level to the backend. Local state changes only after the
// backend accepts the update.
func (s *Store) UpdateProductStock(ctx context.Context, productID, warehouseID string, quantityChange int) (*domain.Product, error) {
	if productID == "" || warehouseID == "" {
		return nil, ErrMissingKey
	}

	// The backend takes an absolute level, so the base must be current.
	key := domain.Key(productID, warehouseID)
	current, err := s.selected.Reload(ctx, key, s.fetchProduct(productID, warehouseID))
	if err != nil {
		logger.Error(ctx).
			Err(err).
			Str("product_id", productID).
			Str("warehouse_id", warehouseID).
			Msg("Failed to read product before stock update")
		return nil, fmt.Errorf("update stock %s: %w", key, err)
	}

	updated := current
	updated.StockLevel += quantityChange

	s.selected.SetLoading(key, true)
	query := url.Values{"warehouseId": {warehouseID}}
	if err := s.api.Put(ctx, "/products/"+url.PathEscape(productID), query, domain.StockUpdate{StockLevel: updated.StockLevel}, nil); err != nil {
		s.selected.Fail(key, apiclient.Message(err, "Failed to update product stock"))
		logger.Error(ctx).
			Err(err).
			Str("product_id", productID).
			Str("warehouse_id", warehouseID).
			Int("quantity_change", quantityChange).
			Msg("Failed to update product stock")
		return nil, fmt.Errorf("update stock %s: %w", key, err)
	}

	s.selected.Set(key, updated)
	s.selected.SetLoading(key, false)

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ProductID == productID && s.products[i].WarehouseID == warehouseID {
			s.products[i].StockLevel = updated.StockLevel
		}
	}
	s.mu.Unlock()

	logger.Info(ctx).
		Str("product_id", productID).
		Str("warehouse_id", warehouseID).
		Int("quantity_change", quantityChange).
		Int("stock_level", updated.StockLevel).
		Msg("Product stock updated")

	return &updated, nil
}

// Products returns a copy of the product list.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Search filters the product list by name, category or supplier.
func (s *Store) Search(query string) []domain.Product {
	return domain.Filter(s.Products(), query)
}

// FindInList looks a product up in the loaded list only.
func (s *Store) FindInList(productID string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ProductID == productID {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Loaded reports whether a list fetch has ever succeeded.
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

func (s *Store) IsProductLoading(productID, warehouseID string) bool {
	return s.selected.IsLoading(domain.Key(productID, warehouseID))
}

func (s *Store) ProductError(productID, warehouseID string) string {
	return s.selected.Err(domain.Key(productID, warehouseID))
}

// Cached returns a product from the per-product cache without fetching.
func (s *Store) Cached(productID, warehouseID string) (domain.Product, bool) {
	return s.selected.Get(domain.Key(productID, warehouseID))
}

func (s *Store) fetchProduct(productID, warehouseID string) cache.Fetcher[domain.Product] {
	return func(ctx context.Context) (domain.Product, error) {
		var product domain.Product
		query := url.Values{"warehouseId": {warehouseID}}
		if err := s.api.Get(ctx, "/products/"+url.PathEscape(productID), query, &product); err != nil {
			return domain.Product{}, err
		}
		return product, nil
	}
}
