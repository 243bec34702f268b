package workspace

import (
	"net/http"

	"github.com/google/wire"

	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/auth"
	forecaststore "github.com/tair/supply-dashboard/internal/forecast/store"
	"github.com/tair/supply-dashboard/internal/notify"
	orderstore "github.com/tair/supply-dashboard/internal/order/store"
	"github.com/tair/supply-dashboard/internal/order/usecase/command"
	productstore "github.com/tair/supply-dashboard/internal/product/store"
)

// ProvideFlash provides the session's notice queue
func ProvideFlash() *notify.Flash {
	return notify.NewFlash()
}

// ProvideAuthStore provides the session's auth store
func ProvideAuthStore(id ClientID, deps *Dependencies, flash *notify.Flash) *auth.Store {
	return auth.NewStore(deps.Provider, deps.Preferences, flash, string(id), deps.Settings.AdminGroups)
}

// ProvideAPIClient provides a backend client authorized with the session's token
func ProvideAPIClient(deps *Dependencies, authStore *auth.Store) *apiclient.Client {
	opts := []apiclient.Option{
		apiclient.WithTokenSource(authStore.Token),
		apiclient.WithMetrics(deps.Metrics),
	}
	if deps.Transport != nil {
		opts = append(opts, apiclient.WithHTTPClient(&http.Client{Transport: deps.Transport}))
	}
	return apiclient.New(deps.Settings.BackendURL, deps.Settings.Timeout, opts...)
}

// Store Providers
func ProvideProductStore(api apiclient.API, deps *Dependencies) *productstore.Store {
	return productstore.New(api, deps.Settings.WarehouseID, deps.Metrics)
}

func ProvideOrderStore(api apiclient.API, deps *Dependencies) *orderstore.Store {
	return orderstore.New(api, deps.Metrics)
}

func ProvideForecastStore(api apiclient.API, deps *Dependencies) *forecaststore.ForecastStore {
	return forecaststore.NewForecastStore(api, deps.Metrics)
}

func ProvideSummaryStore(api apiclient.API, deps *Dependencies) *forecaststore.SummaryStore {
	return forecaststore.NewSummaryStore(api, deps.Metrics)
}

// Command Handlers Providers
func ProvideUpdateOrderHandler(orders *orderstore.Store, products *productstore.Store, deps *Dependencies) *command.UpdateOrderHandler {
	return command.NewUpdateOrderHandler(orders, products, deps.Publisher)
}

func ProvideCreateOrderHandler(orders *orderstore.Store, products *productstore.Store) *command.CreateOrderHandler {
	return command.NewCreateOrderHandler(orders, products)
}

// Wire sets
var ClientSet = wire.NewSet(
	ProvideFlash,
	ProvideAuthStore,
	ProvideAPIClient,
	wire.Bind(new(apiclient.API), new(*apiclient.Client)),
)

var StoreSet = wire.NewSet(
	ProvideProductStore,
	ProvideOrderStore,
	ProvideForecastStore,
	ProvideSummaryStore,
)

var CommandHandlerSet = wire.NewSet(
	ProvideUpdateOrderHandler,
	ProvideCreateOrderHandler,
)

var WorkspaceSet = wire.NewSet(
	ClientSet,
	StoreSet,
	CommandHandlerSet,
	NewWorkspace,
)
