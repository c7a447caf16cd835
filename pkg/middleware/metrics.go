package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harborlight/siteshell/pkg/gate"
	"github.com/harborlight/siteshell/pkg/loader"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "siteshell").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "siteshell",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the shell's Prometheus metrics.
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	navigations      *prometheus.CounterVec
	moduleLoads      *prometheus.CounterVec
	moduleLoadTime   *prometheus.HistogramVec
	modulesLoading   prometheus.Gauge
	renderFailures   *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	wsErrors         *prometheus.CounterVec
	fragmentScrolls  *prometheus.CounterVec
	reloadBroadcasts prometheus.Counter
}

// NewMetrics registers the shell metrics with the configured registry.
// Registering twice with the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	histogram := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, labels)
	}

	m := &Metrics{
		httpRequests:    counter("http_requests_total", "Total HTTP requests by route and status", "route", "status"),
		httpDuration:    histogram("http_request_duration_seconds", "HTTP request duration in seconds", "route"),
		navigations:     counter("navigations_total", "Navigations by module and resulting gate state", "module", "state"),
		moduleLoads:     counter("module_loads_total", "Module fetches by module and outcome", "module", "state"),
		moduleLoadTime:  histogram("module_load_duration_seconds", "Module fetch duration in seconds", "module"),
		modulesLoading:  gauge("modules_loading", "Module fetches currently in flight"),
		renderFailures:  counter("render_failures_total", "Failures caught by the render gate", "kind"),
		activeSessions:  gauge("active_sessions", "Number of active websocket sessions"),
		wsErrors:        counter("websocket_errors_total", "Total websocket errors by type", "type"),
		fragmentScrolls: counter("fragment_scrolls_total", "Deferred fragment scrolls by outcome", "outcome"),
	}
	m.reloadBroadcasts = factory.NewCounter(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "reload_broadcasts_total",
		Help:        "Reload instructions broadcast to all sessions",
		ConstLabels: config.ConstLabels,
	})
	return m
}

// Handler records request count and duration labelled by chi route pattern.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// LoadStarted implements loader.Observer.
func (m *Metrics) LoadStarted(string) {
	m.modulesLoading.Inc()
}

// LoadFinished implements loader.Observer.
func (m *Metrics) LoadFinished(id string, state loader.State, d time.Duration) {
	m.modulesLoading.Dec()
	m.moduleLoads.WithLabelValues(id, state.String()).Inc()
	m.moduleLoadTime.WithLabelValues(id).Observe(d.Seconds())
}

// Report implements gate.Reporter.
func (m *Metrics) Report(_ context.Context, f gate.Failure) {
	m.renderFailures.WithLabelValues(string(f.Kind)).Inc()
}

// RecordNavigation records one navigation and the gate state it produced.
func (m *Metrics) RecordNavigation(moduleID string, state gate.State) {
	m.navigations.WithLabelValues(moduleID, state.String()).Inc()
}

// RecordSessionCreate records a new session.
func (m *Metrics) RecordSessionCreate() {
	m.activeSessions.Inc()
}

// RecordSessionDestroy records a closed session.
func (m *Metrics) RecordSessionDestroy() {
	m.activeSessions.Dec()
}

// RecordWebSocketError records a websocket error by category.
func (m *Metrics) RecordWebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}

// RecordReloadBroadcast records a reload sent to every session.
func (m *Metrics) RecordReloadBroadcast() {
	m.reloadBroadcasts.Inc()
}

// FragmentScheduled implements scroll.Observer.
func (m *Metrics) FragmentScheduled() {
	m.fragmentScrolls.WithLabelValues("scheduled").Inc()
}

// FragmentCancelled implements scroll.Observer.
func (m *Metrics) FragmentCancelled() {
	m.fragmentScrolls.WithLabelValues("cancelled").Inc()
}

// FragmentFired implements scroll.Observer.
func (m *Metrics) FragmentFired(found bool) {
	if found {
		m.fragmentScrolls.WithLabelValues("scrolled").Inc()
		return
	}
	m.fragmentScrolls.WithLabelValues("missing").Inc()
}
