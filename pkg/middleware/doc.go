// Package middleware provides the observability layer of the shell server.
//
// This package includes:
//   - Prometheus metrics for HTTP requests, navigations, module loads,
//     render failures, sessions and fragment scrolls
//   - OpenTelemetry tracing for HTTP requests
//   - slog request logging
//
// # Prometheus Metrics
//
// Metrics is both an HTTP middleware and the observer the shell components
// report to:
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	l := loader.New(src, loader.WithObserver(m))
//	r.Use(m.Handler)
//
// Exposed series (namespace "siteshell"):
//   - siteshell_http_requests_total{route,status}
//   - siteshell_http_request_duration_seconds{route}
//   - siteshell_navigations_total{module,state}
//   - siteshell_module_loads_total{module,state}
//   - siteshell_module_load_duration_seconds{module}
//   - siteshell_render_failures_total{kind}
//   - siteshell_active_sessions
//   - siteshell_websocket_errors_total{type}
//   - siteshell_fragment_scrolls_total{outcome}
//
// # OpenTelemetry
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// passed with WithTracerProvider. Configure it in main() before serving.
package middleware
