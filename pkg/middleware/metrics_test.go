package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/harborlight/siteshell/pkg/gate"
	"github.com/harborlight/siteshell/pkg/loader"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(WithRegistry(reg)), reg
}

func TestHandlerRecordsRoutePattern(t *testing.T) {
	m, _ := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	for _, path := range []string{"/healthz", "/healthz", "/static/a.css"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/healthz", "200")); got != 2 {
		t.Errorf("http_requests_total{/healthz,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/static/*", "404")); got != 1 {
		t.Errorf("http_requests_total{/static/*,404} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.httpDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestLoaderObserver(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.LoadStarted("give")
	m.LoadStarted("specs")
	if got := testutil.ToFloat64(m.modulesLoading); got != 2 {
		t.Errorf("modules_loading = %v, want 2", got)
	}

	m.LoadFinished("give", loader.Ready, 10*time.Millisecond)
	m.LoadFinished("specs", loader.Failed, time.Second)

	if got := testutil.ToFloat64(m.modulesLoading); got != 0 {
		t.Errorf("modules_loading = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.moduleLoads.WithLabelValues("give", "ready")); got != 1 {
		t.Errorf("module_loads_total{give,ready} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.moduleLoads.WithLabelValues("specs", "failed")); got != 1 {
		t.Errorf("module_loads_total{specs,failed} = %v, want 1", got)
	}
}

func TestGateReporterAndNavigations(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.Report(context.Background(), gate.Failure{ModuleID: "x", Kind: gate.KindRender, Err: errors.New("boom")})
	m.Report(context.Background(), gate.Failure{ModuleID: "y", Kind: gate.KindLoad})
	m.RecordNavigation("home", gate.Idle)
	m.RecordNavigation("home", gate.Idle)
	m.RecordNavigation("give", gate.Suspended)

	if got := testutil.ToFloat64(m.renderFailures.WithLabelValues("render")); got != 1 {
		t.Errorf("render_failures_total{render} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.renderFailures.WithLabelValues("load")); got != 1 {
		t.Errorf("render_failures_total{load} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.navigations.WithLabelValues("home", "idle")); got != 2 {
		t.Errorf("navigations_total{home,idle} = %v, want 2", got)
	}
}

func TestSessionAndScrollCounters(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.RecordSessionCreate()
	m.RecordSessionCreate()
	m.RecordSessionDestroy()
	m.RecordWebSocketError("read")
	m.RecordReloadBroadcast()
	m.FragmentScheduled()
	m.FragmentCancelled()
	m.FragmentScheduled()
	m.FragmentFired(true)
	m.FragmentFired(false)

	expected := `
# HELP siteshell_active_sessions Number of active websocket sessions
# TYPE siteshell_active_sessions gauge
siteshell_active_sessions 1
# HELP siteshell_fragment_scrolls_total Deferred fragment scrolls by outcome
# TYPE siteshell_fragment_scrolls_total counter
siteshell_fragment_scrolls_total{outcome="cancelled"} 1
siteshell_fragment_scrolls_total{outcome="missing"} 1
siteshell_fragment_scrolls_total{outcome="scheduled"} 2
siteshell_fragment_scrolls_total{outcome="scrolled"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"siteshell_active_sessions", "siteshell_fragment_scrolls_total"); err != nil {
		t.Error(err)
	}
	if got := testutil.ToFloat64(m.wsErrors.WithLabelValues("read")); got != 1 {
		t.Errorf("websocket_errors_total{read} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reloadBroadcasts); got != 1 {
		t.Errorf("reload_broadcasts_total = %v, want 1", got)
	}
}

func TestNamespaceOption(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("site"), WithSubsystem("shell"))
	m.RecordSessionCreate()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "site_shell_active_sessions" {
			found = true
		}
	}
	if !found {
		t.Error("site_shell_active_sessions not registered")
	}
}
