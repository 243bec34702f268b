package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/cache"
	"github.com/tair/supply-dashboard/internal/forecast/domain"
	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/pkg/logger"
)

var (
	ErrMissingProductID   = errors.New("product ID is required")
	ErrMissingProductName = errors.New("product name is required")
)

// ForecastStore caches demand forecasts per product. A forecast is fetched
// at most once per product while it stays cached.
type ForecastStore struct {
	api       apiclient.API
	forecasts *cache.Keyed[[]domain.DataPoint]
}

func NewForecastStore(api apiclient.API, m *metrics.Registry) *ForecastStore {
	return &ForecastStore{
		api: api,
		forecasts: cache.NewKeyed[[]domain.DataPoint]("forecast", func(err error) string {
			return apiclient.Message(err, "Failed to fetch forecast")
		}, m),
	}
}

// FetchForecast returns the cached forecast or fetches it. An empty product
// ID is rejected without a backend call.
func (s *ForecastStore) FetchForecast(ctx context.Context, productID string) ([]domain.DataPoint, error) {
	if productID == "" {
		return nil, ErrMissingProductID
	}

	points, err := s.forecasts.Load(ctx, productID, func(ctx context.Context) ([]domain.DataPoint, error) {
		var points []domain.DataPoint
		if err := s.api.Get(ctx, "/predict/"+url.PathEscape(productID), nil, &points); err != nil {
			return nil, err
		}
		if points == nil {
			points = []domain.DataPoint{}
		}
		return points, nil
	})
	if err != nil {
		logger.Error(ctx).Err(err).Str("product_id", productID).Msg("Failed to fetch forecast")
		return nil, fmt.Errorf("fetch forecast %s: %w", productID, err)
	}
	return points, nil
}

// Forecast returns a cached forecast without fetching.
func (s *ForecastStore) Forecast(productID string) ([]domain.DataPoint, bool) {
	return s.forecasts.Get(productID)
}

func (s *ForecastStore) IsLoading(productID string) bool {
	return s.forecasts.IsLoading(productID)
}

func (s *ForecastStore) Error(productID string) string {
	return s.forecasts.Err(productID)
}
