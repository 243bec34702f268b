package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tair/supply-dashboard/internal/apiclient"
	"github.com/tair/supply-dashboard/internal/cache"
	"github.com/tair/supply-dashboard/internal/forecast/domain"
	"github.com/tair/supply-dashboard/internal/metrics"
	"github.com/tair/supply-dashboard/pkg/logger"
)

// SummaryStore caches generated forecast narratives per product.
type SummaryStore struct {
	api       apiclient.API
	summaries *cache.Keyed[domain.Summary]
}

func NewSummaryStore(api apiclient.API, m *metrics.Registry) *SummaryStore {
	return &SummaryStore{
		api: api,
		summaries: cache.NewKeyed[domain.Summary]("summary", func(err error) string {
			return apiclient.Message(err, "Failed to fetch summary")
		}, m),
	}
}

// FetchSummary returns the cached summary or asks the backend to generate
// one. Both arguments are required.
func (s *SummaryStore) FetchSummary(ctx context.Context, productID, productName string) (*domain.Summary, error) {
	if productID == "" {
		return nil, ErrMissingProductID
	}
	if productName == "" {
		return nil, ErrMissingProductName
	}

	summary, err := s.summaries.Load(ctx, productID, func(ctx context.Context) (domain.Summary, error) {
		var summary domain.Summary
		path := "/predict/" + url.PathEscape(productID) + "/summary"
		if err := s.api.Post(ctx, path, domain.SummaryRequest{ProductName: productName}, &summary); err != nil {
			return domain.Summary{}, err
		}
		if summary.ProductID == "" {
			summary.ProductID = productID
		}
		return summary, nil
	})
	if err != nil {
		logger.Error(ctx).
			Err(err).
			Str("product_id", productID).
			Str("product_name", productName).
			Msg("Failed to fetch summary")
		return nil, fmt.Errorf("fetch summary %s: %w", productID, err)
	}
	return &summary, nil
}

// Summary returns a cached summary without fetching.
func (s *SummaryStore) Summary(productID string) (domain.Summary, bool) {
	return s.summaries.Get(productID)
}

func (s *SummaryStore) IsLoading(productID string) bool {
	return s.summaries.IsLoading(productID)
}

func (s *SummaryStore) Error(productID string) string {
	return s.summaries.Err(productID)
}
