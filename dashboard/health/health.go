package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/supply-dashboard/pkg/logger"
)

// Target is a dependency the dashboard needs to serve pages
type Target struct {
	Name string
	URL  string
	// Reachable treats any response below 500 as healthy, for services
	// without a health endpoint.
	Reachable bool
	// Ping replaces the HTTP check when set.
	Ping func(ctx context.Context) error
}

// ServiceHealth represents the health status of a dependency
type ServiceHealth struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"` // healthy, unhealthy
	URL       string        `json:"url,omitempty"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// DashboardHealth represents the overall dashboard health
type DashboardHealth struct {
	Service  string                   `json:"service"`
	Status   string                   `json:"status"` // healthy, degraded, unhealthy
	Services map[string]ServiceHealth `json:"services"`
	Uptime   time.Duration            `json:"uptime_seconds"`
}

// HealthChecker checks health of the dashboard's dependencies
type HealthChecker struct {
	service   string
	targets   []Target
	client    *http.Client
	startTime time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(service string, targets ...Target) *HealthChecker {
	return &HealthChecker{
		service: service,
		targets: targets,
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		startTime: time.Now(),
	}
}

// CheckService checks health of a single dependency
func (h *HealthChecker) CheckService(ctx context.Context, target Target) ServiceHealth {
	start := time.Now()
	result := ServiceHealth{
		Name:      target.Name,
		URL:       target.URL,
		Timestamp: start,
	}

	if err := h.ping(ctx, target); err != nil {
		result.Status = "unhealthy"
		result.Error = err.Error()
	} else {
		result.Status = "healthy"
	}
	result.Latency = time.Since(start)
	return result
}

func (h *HealthChecker) ping(ctx context.Context, target Target) error {
	if target.Ping != nil {
		return target.Ping(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || (target.Reachable && resp.StatusCode < 500) {
		return nil
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

// CheckAllServices checks every dependency concurrently
func (h *HealthChecker) CheckAllServices(ctx context.Context) DashboardHealth {
	services := make(map[string]ServiceHealth, len(h.targets))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, target := range h.targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			health := h.CheckService(ctx, t)

			mu.Lock()
			services[t.Name] = health
			mu.Unlock()

			if health.Status == "healthy" {
				logger.Debug(ctx).
					Str("dependency", t.Name).
					Dur("latency", health.Latency).
					Msg("Dependency health check")
			} else {
				logger.Warn(ctx).
					Str("dependency", t.Name).
					Str("error", health.Error).
					Msg("Dependency health check failed")
			}
		}(target)
	}

	wg.Wait()

	return DashboardHealth{
		Service:  h.service,
		Status:   determineOverallStatus(services),
		Services: services,
		Uptime:   time.Since(h.startTime),
	}
}

func determineOverallStatus(services map[string]ServiceHealth) string {
	healthyCount := 0
	for _, svc := range services {
		if svc.Status == "healthy" {
			healthyCount++
		}
	}

	if healthyCount == len(services) {
		return "healthy"
	} else if healthyCount > 0 {
		return "degraded"
	}
	return "unhealthy"
}

// QuickCheck reports the dashboard itself without touching dependencies
func (h *HealthChecker) QuickCheck() map[string]interface{} {
	return map[string]interface{}{
		"status":    "healthy",
		"service":   h.service,
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now(),
	}
}
