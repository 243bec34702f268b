package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the dashboard collectors. A nil *Registry is valid and
// records nothing, so stores can be built without metrics in tests.
type Registry struct {
	reg *prometheus.Registry

	backendRequests  *prometheus.CounterVec
	backendLatency   *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	guardDecisions   *prometheus.CounterVec
	identityCalls    *prometheus.CounterVec
	activeWorkspaces prometheus.Gauge
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		backendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_backend_requests_total",
				Help: "Requests sent to the inventory backend",
			},
			[]string{"method", "status"},
		),
		backendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_backend_request_duration_seconds",
				Help:    "Latency of inventory backend requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_cache_lookups_total",
				Help: "Keyed cache lookups by store and result",
			},
			[]string{"store", "result"},
		),
		guardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_route_guard_decisions_total",
				Help: "Route guard outcomes",
			},
			[]string{"decision"},
		),
		identityCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_identity_calls_total",
				Help: "Identity provider calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		activeWorkspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_active_workspaces",
			Help: "Browser sessions currently holding client state",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.backendRequests,
		r.backendLatency,
		r.cacheLookups,
		r.guardDecisions,
		r.identityCalls,
		r.activeWorkspaces,
	)

	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer is used by tests to inspect collected values. A nil registry
// gathers nothing.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.Gatherers{}
	}
	return r.reg
}

func (r *Registry) ObserveBackend(method string, statusCode int, d time.Duration) {
	if r == nil {
		return
	}
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	r.backendRequests.WithLabelValues(method, status).Inc()
	r.backendLatency.WithLabelValues(method).Observe(d.Seconds())
}

func (r *Registry) CacheHit(store string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(store, "hit").Inc()
}

func (r *Registry) CacheMiss(store string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(store, "miss").Inc()
}

func (r *Registry) GuardDecision(decision string) {
	if r == nil {
		return
	}
	r.guardDecisions.WithLabelValues(decision).Inc()
}

func (r *Registry) IdentityCall(operation string, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.identityCalls.WithLabelValues(operation, outcome).Inc()
}

func (r *Registry) SetActiveWorkspaces(n int) {
	if r == nil {
		return
	}
	r.activeWorkspaces.Set(float64(n))
}
