package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tair/supply-dashboard/dashboard/config"
	_ "github.com/tair/supply-dashboard/dashboard/docs"
	"github.com/tair/supply-dashboard/dashboard/health"
	"github.com/tair/supply-dashboard/dashboard/middleware"
	"github.com/tair/supply-dashboard/dashboard/views"
	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/internal/workspace"
)

// RouteDefinition defines a dashboard view route
type RouteDefinition struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	RequireAuth bool   `json:"require_auth"`
	RateLimited bool   `json:"rate_limited"`

	handler func(*views.Handler) fiber.Handler
}

// Routes holds all view route definitions
var Routes = []RouteDefinition{
	// Public routes
	{Method: fiber.MethodGet, Path: "/auth/login", Description: "Login form with remembered email",
		handler: func(h *views.Handler) fiber.Handler { return h.LoginPage }},
	{Method: fiber.MethodPost, Path: "/auth/login", Description: "Sign in", RateLimited: true,
		handler: func(h *views.Handler) fiber.Handler { return h.Login }},
	{Method: fiber.MethodPost, Path: "/auth/new-password", Description: "Set a new password on first sign-in", RateLimited: true,
		handler: func(h *views.Handler) fiber.Handler { return h.NewPassword }},
	{Method: fiber.MethodPost, Path: "/auth/confirm-email", Description: "Confirm a new account", RateLimited: true,
		handler: func(h *views.Handler) fiber.Handler { return h.ConfirmEmail }},
	{Method: fiber.MethodPost, Path: "/auth/confirm-email/resend", Description: "Resend the confirmation code", RateLimited: true,
		handler: func(h *views.Handler) fiber.Handler { return h.ResendConfirmation }},
	{Method: fiber.MethodPost, Path: "/auth/forgot-password", Description: "Send a password reset code", RateLimited: true,
		handler: func(h *views.Handler) fiber.Handler { return h.ForgotPassword }},
	{Method: fiber.MethodPost, Path: "/auth/forgot-password/confirm", Description: "Reset the password with a code", RateLimited: true,
		handler: func(h *views.Handler) fiber.Handler { return h.ConfirmForgotPassword }},
	{Method: fiber.MethodPost, Path: "/auth/logout", Description: "Sign out",
		handler: func(h *views.Handler) fiber.Handler { return h.Logout }},
	{Method: fiber.MethodGet, Path: middleware.NotAuthorizedPath, Description: "Shown when admin access is denied",
		handler: func(h *views.Handler) fiber.Handler { return h.NotAuthorized }},

	// Products
	{Method: fiber.MethodGet, Path: "/dashboard/products", Description: "Warehouse product list (?q= filters)", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.Products }},
	{Method: fiber.MethodGet, Path: "/dashboard/products/:warehouseId/:productId", Description: "Product detail", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.Product }},

	// Orders
	{Method: fiber.MethodGet, Path: "/dashboard/orders", Description: "Order list (?q= filters)", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.Orders }},
	{Method: fiber.MethodPost, Path: "/dashboard/orders", Description: "Place an order", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.CreateOrder }},
	{Method: fiber.MethodGet, Path: "/dashboard/orders/:orderId", Description: "Order detail", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.Order }},
	{Method: fiber.MethodPut, Path: "/dashboard/orders/:orderId", Description: "Change order status", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.UpdateOrder }},
	{Method: fiber.MethodDelete, Path: "/dashboard/orders/:orderId", Description: "Delete an order", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.DeleteOrder }},

	// Forecasts
	{Method: fiber.MethodGet, Path: "/dashboard/forecasts", Description: "Forecast view (?product= selects)", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.Forecasts }},
	{Method: fiber.MethodPost, Path: "/dashboard/forecasts/:productId", Description: "Fetch a product forecast", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.FetchForecast }},
	{Method: fiber.MethodPost, Path: "/dashboard/forecasts/:productId/summary", Description: "Generate a forecast summary", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.Summary }},

	// Profile
	{Method: fiber.MethodGet, Path: "/dashboard/profile", Description: "Profile", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.Profile }},
	{Method: fiber.MethodPut, Path: "/dashboard/profile", Description: "Update preferred username", RequireAuth: true,
		handler: func(h *views.Handler) fiber.Handler { return h.UpdateProfile }},
}

// Dependencies are what the routes need from main
type Dependencies struct {
	Registry  *workspace.Registry
	Health    *health.HealthChecker
	Metrics   *metrics.Registry
	Redis     redis.Cmdable
	RateLimit config.RateLimitConfig
	Session   middleware.SessionConfig
}

// SetupRoutes configures all routes of the dashboard
func SetupRoutes(app *fiber.App, deps Dependencies) {
	// Health, metrics and docs are served before the session middleware so
	// they never create workspaces.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(deps.Health.QuickCheck())
	})

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "alive",
		})
	})

	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		healthStatus := deps.Health.CheckAllServices(ctx)

		statusCode := fiber.StatusOK
		if healthStatus.Status == "unhealthy" {
			statusCode = fiber.StatusServiceUnavailable
		}
		return c.Status(statusCode).JSON(healthStatus)
	})

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	// Swagger UI
	app.Get("/swagger/*", adaptor.HTTPHandler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Supply Dashboard",
			"version": "1.0.0",
			"docs":    "/swagger/index.html",
			"routes":  Routes,
		})
	})

	app.Use(middleware.SessionMiddleware(deps.Registry, deps.Session))
	app.Use(middleware.RouteGuard(middleware.DefaultGuardConfig(), deps.Metrics))

	handler := views.NewHandler(deps.Registry)
	limiter := middleware.AuthRateLimiter(deps.Redis, deps.RateLimit.MaxRequests, deps.RateLimit.Window)

	for _, route := range Routes {
		handlers := []fiber.Handler{route.handler(handler)}
		if route.RateLimited {
			handlers = append([]fiber.Handler{limiter}, handlers...)
		}
		app.Add(route.Method, route.Path, handlers...)
	}
}
