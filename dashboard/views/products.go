package views

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tair/supply-dashboard/dashboard/middleware"
	"github.com/tair/supply-dashboard/internal/product/domain"
)

const (
	viewProducts      = "products"
	viewProductDetail = "product-detail"
)

// ProductRow is a product as listed, with its derived stock label.
type ProductRow struct {
	domain.Product
	StockStatus string `json:"stock_status"`
	IsLowStock  bool   `json:"is_low_stock"`
}

type productList struct {
	WarehouseID string       `json:"warehouse_id"`
	Query       string       `json:"query,omitempty"`
	Products    []ProductRow `json:"products"`
	Total       int          `json:"total"`
	Shown       int          `json:"shown"`
	LowStock    int          `json:"low_stock"`
}

func toRows(products []domain.Product) []ProductRow {
	rows := make([]ProductRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, ProductRow{Product: p, StockStatus: p.StockStatus(), IsLowStock: p.IsLowStock()})
	}
	return rows
}

// Products refreshes the warehouse product list and renders it filtered by ?q=.
// A failed refresh still renders the last loaded list with the error.
//
// @Summary List products
// @Description Warehouse product list filtered by q (session required)
// @Tags Products
// @Produce json
// @Param q query string false "Filter by name, supplier or id"
// @Success 200 {object} Page
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/products [get]
func (h *Handler) Products(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	query := c.Query("q")

	_ = ws.Products.FetchProducts(c.UserContext())

	rows := toRows(ws.Products.Search(query))
	low := 0
	for _, r := range toRows(ws.Products.Products()) {
		if r.IsLowStock {
			low++
		}
	}

	return render(c, fiber.StatusOK, Page{
		View: viewProducts,
		Data: productList{
			WarehouseID: ws.Products.WarehouseID(),
			Query:       query,
			Products:    rows,
			Total:       ws.Products.Total(),
			Shown:       len(rows),
			LowStock:    low,
		},
		Error: ws.Products.Error(),
	})
}

// Product renders one product, fetching it on first view.
//
// @Summary Get product
// @Description Product detail, fetched on first view (session required)
// @Tags Products
// @Produce json
// @Param warehouseId path string true "Warehouse ID"
// @Param productId path string true "Product ID"
// @Success 200 {object} Page
// @Failure 404 {object} object{view=string,error=string}
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/products/{warehouseId}/{productId} [get]
func (h *Handler) Product(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	productID := param(c, "productId")
	warehouseID := param(c, "warehouseId")

	p, err := ws.Products.FetchProductByID(c.UserContext(), productID, warehouseID)
	if err != nil {
		msg := ws.Products.ProductError(productID, warehouseID)
		if msg == "" {
			msg = errorMessage(err, "Failed to fetch product details")
		}
		status := fiber.StatusOK
		if backendStatus(err) == fiber.StatusNotFound {
			status = fiber.StatusNotFound
			msg = "Product not found"
		}
		return render(c, status, Page{View: viewProductDetail, Error: msg})
	}

	return render(c, fiber.StatusOK, Page{
		View: viewProductDetail,
		Data: ProductRow{Product: *p, StockStatus: p.StockStatus(), IsLowStock: p.IsLowStock()},
	})
}
