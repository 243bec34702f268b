package views

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tair/supply-dashboard/dashboard/middleware"
	"github.com/tair/supply-dashboard/internal/forecast/domain"
	productdomain "github.com/tair/supply-dashboard/internal/product/domain"
	"github.com/tair/supply-dashboard/internal/workspace"
)

const viewForecasts = "forecasts"

// Forecast panel labels differ from the product list labels.
const (
	forecastStockLow        = "Low Stock"
	forecastStockSufficient = "Sufficient Stock"
)

type productOption struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
}

type selectedProduct struct {
	productdomain.Product
	StockStatus string `json:"stock_status"`
}

type forecastPage struct {
	Products        []productOption    `json:"products"`
	Selected        *selectedProduct   `json:"selected,omitempty"`
	Forecast        []domain.DataPoint `json:"forecast,omitempty"`
	Peak            float64            `json:"peak,omitempty"`
	Total           float64            `json:"total,omitempty"`
	IsLoading       bool               `json:"is_loading"`
	Summary         *domain.Summary    `json:"summary,omitempty"`
	SummaryLoading  bool               `json:"summary_loading"`
	SummaryError    string             `json:"summary_error,omitempty"`
	ForecastFetched bool               `json:"forecast_fetched"`
}

type summaryRequest struct {
	ProductName string `json:"product_name" form:"product_name"`
}

// Forecasts renders the product selector and whatever forecast and summary
// are cached for ?product=. Nothing is fetched from the forecast service here.
//
// @Summary Forecast view
// @Description Product selector with the cached forecast for product (session required)
// @Tags Forecasts
// @Produce json
// @Param product query string false "Selected product ID"
// @Success 200 {object} Page
// @Router /dashboard/forecasts [get]
func (h *Handler) Forecasts(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	if !ws.Products.Loaded() && !ws.Products.IsLoading() {
		_ = ws.Products.FetchProducts(c.UserContext())
	}

	page, errMsg := forecastView(ws, c.Query("product"))
	if errMsg == "" {
		errMsg = ws.Products.Error()
	}
	return render(c, fiber.StatusOK, Page{View: viewForecasts, Data: page, Error: errMsg})
}

// FetchForecast loads the forecast for a product, once per workspace.
//
// @Summary Fetch forecast
// @Description Load the demand forecast for a product (session required)
// @Tags Forecasts
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} Page
// @Failure 404 {object} object{view=string,error=string}
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/forecasts/{productId} [post]
func (h *Handler) FetchForecast(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	productID := param(c, "productId")

	status := fiber.StatusOK
	if _, err := ws.Forecasts.FetchForecast(c.UserContext(), productID); err != nil {
		status = backendStatus(err)
	}

	page, errMsg := forecastView(ws, productID)
	return render(c, status, Page{View: viewForecasts, Data: page, Error: errMsg})
}

// Summary asks for the narrative summary of a product's forecast.
//
// @Summary Generate forecast summary
// @Description Ask for the narrative summary of a product forecast (session required)
// @Tags Forecasts
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body object{product_name=string} true "Form fields"
// @Success 200 {object} Page
// @Failure 400 {object} object{view=string,error=string}
// @Failure 502 {object} object{view=string,error=string}
// @Router /dashboard/forecasts/{productId}/summary [post]
func (h *Handler) Summary(c *fiber.Ctx) error {
	ws := middleware.WorkspaceFrom(c)
	productID := param(c, "productId")

	var req summaryRequest
	_ = c.BodyParser(&req)
	if req.ProductName == "" {
		if p, ok := ws.Products.FindInList(productID); ok {
			req.ProductName = p.ProductName
		}
	}

	status := fiber.StatusOK
	if _, err := ws.Summaries.FetchSummary(c.UserContext(), productID, req.ProductName); err != nil {
		status = backendStatus(err)
		if ws.Summaries.Error(productID) == "" {
			return fail(c, fiber.StatusBadRequest, Page{View: viewForecasts}, err, "Failed to generate summary")
		}
	}

	page, _ := forecastView(ws, productID)
	return render(c, status, Page{View: viewForecasts, Data: page, Error: page.SummaryError})
}

func forecastView(ws *workspace.Workspace, productID string) (forecastPage, string) {
	products := ws.Products.Products()
	page := forecastPage{Products: make([]productOption, 0, len(products))}
	for _, p := range products {
		page.Products = append(page.Products, productOption{ProductID: p.ProductID, ProductName: p.ProductName})
	}
	if productID == "" {
		return page, ""
	}

	if p, ok := ws.Products.FindInList(productID); ok {
		label := forecastStockSufficient
		if p.IsLowStock() {
			label = forecastStockLow
		}
		page.Selected = &selectedProduct{Product: p, StockStatus: label}
	}

	if points, ok := ws.Forecasts.Forecast(productID); ok {
		page.Forecast = points
		page.Peak = domain.Peak(points)
		page.Total = domain.Total(points)
		page.ForecastFetched = true
	}
	page.IsLoading = ws.Forecasts.IsLoading(productID)

	if s, ok := ws.Summaries.Summary(productID); ok {
		page.Summary = &s
	}
	page.SummaryLoading = ws.Summaries.IsLoading(productID)
	page.SummaryError = ws.Summaries.Error(productID)

	return page, ws.Forecasts.Error(productID)
}
