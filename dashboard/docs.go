package main

//go:generate swag init -g docs.go -d .,./views -o ./docs

// @title Supply Dashboard API
// @version 1.0
// @description Backend for the supply chain dashboard. Pages are JSON view-models scoped to the browser session cookie.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/supply-dashboard
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/supply-dashboard/blob/main/LICENSE

// @host localhost:8000
// @BasePath /

// @tag.name Auth
// @tag.description Sign-in, account confirmation and password reset

// @tag.name Products
// @tag.description Warehouse stock

// @tag.name Orders
// @tag.description Order placement and status changes

// @tag.name Forecasts
// @tag.description Demand forecasts and their summaries

// @tag.name Profile
// @tag.description Signed-in user profile

// @tag.name Health
// @tag.description Health check endpoints
