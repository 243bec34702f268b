package workspace

import (
	"net/http"
	"time"

	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/auth"
	authdomain "github.com/tair/supply-dashboard/internal/auth/domain"
	forecaststore "github.com/tair/supply-dashboard/internal/forecast/store"
	"github.com/tair/supply-dashboard/internal/identity"
	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/internal/notify"
	orderstore "github.com/tair/supply-dashboard/internal/order/store"
	"github.com/tair/supply-dashboard/internal/order/usecase/command"
	productstore "github.com/tair/supply-dashboard/internal/product/store"
)

// ClientID identifies the browser a workspace belongs to.
type ClientID string

// Settings are the per-deployment values every workspace is built with.
type Settings struct {
	BackendURL  string
	Timeout     time.Duration
	WarehouseID string
	AdminGroups []string
}

// Dependencies are shared by all workspaces.
type Dependencies struct {
	Settings    Settings
	Provider    identity.Provider
	Preferences authdomain.PreferenceRepository
	// Publisher may be nil when event publishing is disabled.
	Publisher command.EventPublisher
	Metrics   *metrics.Registry
	// Transport is reused by every workspace's backend client when set.
	Transport http.RoundTripper
}

// Workspace is the state of one browser session: its auth store, entity
// stores and the handlers that coordinate them.
type Workspace struct {
	ID          ClientID
	Flash       *notify.Flash
	Auth        *auth.Store
	API         apiclient.API
	Products    *productstore.Store
	Orders      *orderstore.Store
	Forecasts   *forecaststore.ForecastStore
	Summaries   *forecaststore.SummaryStore
	UpdateOrder *command.UpdateOrderHandler
	CreateOrder *command.CreateOrderHandler
	CreatedAt   time.Time
}

// NewWorkspace assembles a workspace from its parts.
func NewWorkspace(
	id ClientID,
	flash *notify.Flash,
	authStore *auth.Store,
	api apiclient.API,
	products *productstore.Store,
	orders *orderstore.Store,
	forecasts *forecaststore.ForecastStore,
	summaries *forecaststore.SummaryStore,
	updateOrder *command.UpdateOrderHandler,
	createOrder *command.CreateOrderHandler,
) *Workspace {
	return &Workspace{
		ID:          id,
		Flash:       flash,
		Auth:        authStore,
		API:         api,
		Products:    products,
		Orders:      orders,
		Forecasts:   forecasts,
		Summaries:   summaries,
		UpdateOrder: updateOrder,
		CreateOrder: createOrder,
		CreatedAt:   time.Now(),
	}
}
