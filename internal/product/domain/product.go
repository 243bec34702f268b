package domain

import (
	"strings"
)

// DefaultWarehouseID is the warehouse the product list is read from.
const DefaultWarehouseID = "warehouse_main_01"

const (
	StockStatusLow = "Low Stock"
	StockStatusOK  = "In Stock"
)

// Product is a stock line in one warehouse, identified by
// (ProductID, WarehouseID).
type Product struct {
	ProductID        string `json:"product_id"`
	WarehouseID      string `json:"warehouse_id"`
	ProductName      string `json:"product_name"`
	Category         string `json:"category"`
	Supplier         string `json:"supplier"`
	StockLevel       int    `json:"stock_level"`
	ReorderThreshold int    `json:"reorder_threshold"`
	LastUpdated      string `json:"last_updated,omitempty"`
}

// Key returns the cache key for a product in a warehouse.
func Key(productID, warehouseID string) string {
	return productID + "_" + warehouseID
}

func (p Product) Key() string {
	return Key(p.ProductID, p.WarehouseID)
}

// IsLowStock checks if the product has fallen under its reorder threshold
func (p Product) IsLowStock() bool {
	return p.StockLevel < p.ReorderThreshold
}

func (p Product) StockStatus() string {
	if p.IsLowStock() {
		return StockStatusLow
	}
	return StockStatusOK
}

// StockUpdate is the partial update sent when stock changes.
type StockUpdate struct {
	StockLevel int `json:"stock_level"`
}

// Filter keeps products whose name, category or supplier contains query,
// case-insensitively. An empty query keeps everything.
func Filter(products []Product, query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.ProductName), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Supplier), q) {
			out = append(out, p)
		}
	}
	return out
}
