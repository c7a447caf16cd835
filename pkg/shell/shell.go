package shell

import (
	"context"
	"html/template"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/harborlight/siteshell/pkg/chrome"
	"github.com/harborlight/siteshell/pkg/gate"
	"github.com/harborlight/siteshell/pkg/loader"
	"github.com/harborlight/siteshell/pkg/routes"
	"github.com/harborlight/siteshell/pkg/scroll"
)

// Region ids of the chrome.
const (
	HeaderRegion = chrome.HeaderID
	FooterRegion = chrome.FooterID
)

// NavigationRecorder receives one record per navigation.
type NavigationRecorder interface {
	RecordNavigation(moduleID string, state gate.State)
}

// Option configures a Shell.
type Option func(*Shell)

// WithChrome sets the navigation chrome. Default: chrome.DefaultConfig.
func WithChrome(c *chrome.Chrome) Option {
	return func(s *Shell) {
		s.chrome = c
	}
}

// WithReporter adds a failure reporter. The log reporter is always present.
func WithReporter(r gate.Reporter) Option {
	return func(s *Shell) {
		s.reporters = append(s.reporters, r)
	}
}

// WithNavigationRecorder sets the navigation recorder.
func WithNavigationRecorder(r NavigationRecorder) Option {
	return func(s *Shell) {
		s.recorder = r
	}
}

// WithScrollObserver sets the observer passed to every scroll coordinator.
func WithScrollObserver(o scroll.Observer) Option {
	return func(s *Shell) {
		s.scrollObserver = o
	}
}

// WithFragmentDelay sets the deferred fragment scroll delay.
func WithFragmentDelay(d time.Duration) Option {
	return func(s *Shell) {
		s.fragmentDelay = d
	}
}

// WithAmbientSmooth declares whether pages use smooth scrolling.
func WithAmbientSmooth(enabled bool) Option {
	return func(s *Shell) {
		s.ambientSmooth = enabled
	}
}

// WithViewText overrides the placeholder and failure copy.
func WithViewText(t gate.ViewText) Option {
	return func(s *Shell) {
		s.text = &t
	}
}

// WithAfterFunc replaces the scroll timer source.
func WithAfterFunc(f scroll.AfterFunc) Option {
	return func(s *Shell) {
		s.afterFunc = f
	}
}

// WithTracerProvider sets the tracer provider for navigation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Shell) {
		if tp != nil {
			s.tracer = tp.Tracer("siteshell/shell")
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Shell is the process-wide application definition.
type Shell struct {
	table  *routes.Table
	loader atomic.Pointer[loader.Loader]
	chrome *chrome.Chrome

	reporters      []gate.Reporter
	reporter       gate.Reporter
	recorder       NavigationRecorder
	scrollObserver scroll.Observer
	fragmentDelay  time.Duration
	ambientSmooth  bool
	afterFunc      scroll.AfterFunc
	text           *gate.ViewText
	placeholder    template.HTML
	tracer         trace.Tracer
	logger         *slog.Logger
}

// New creates a Shell over table, loading modules with l.
func New(table *routes.Table, l *loader.Loader, opts ...Option) *Shell {
	s := &Shell{
		table:         table,
		fragmentDelay: scroll.DefaultFragmentDelay,
		ambientSmooth: true,
		tracer:        otel.Tracer("siteshell/shell"),
		logger:        slog.Default().With("component", "shell"),
	}
	s.loader.Store(l)
	for _, opt := range opts {
		opt(s)
	}
	if s.chrome == nil {
		s.chrome, _ = chrome.New(chrome.DefaultConfig())
	}
	s.reporter = Reporters(append([]gate.Reporter{gate.LogReporter(s.logger), spanReporter}, s.reporters...)...)
	s.placeholder = gate.New(s.gateOptions()...).Placeholder()
	return s
}

// Table returns the route table.
func (s *Shell) Table() *routes.Table {
	return s.table
}

// Chrome returns the navigation chrome.
func (s *Shell) Chrome() *chrome.Chrome {
	return s.chrome
}

// Loader returns the current loader generation.
func (s *Shell) Loader() *loader.Loader {
	return s.loader.Load()
}

// SwapLoader installs a new loader generation and returns the previous one.
// The caller closes the previous loader. Instances pick up the new loader on
// their next navigation.
func (s *Shell) SwapLoader(l *loader.Loader) *loader.Loader {
	old := s.loader.Swap(l)
	s.logger.Info("loader generation swapped")
	return old
}

// Route returns the module id for path.
func (s *Shell) Route(path string) routes.RouteEntry {
	return s.table.Match(path)
}

// WriteDocument renders doc for loc with chrome and the loading placeholder
// in the content region. Content arrives over the session once connected.
func (s *Shell) WriteDocument(w io.Writer, doc *Document, loc routes.Location) error {
	header, err := s.chrome.Header(loc)
	if err != nil {
		return err
	}
	footer, err := s.chrome.Footer(loc)
	if err != nil {
		return err
	}
	return doc.Render(w, header, s.placeholder, footer)
}

// Check resolves every routed module and waits for all of them.
func (s *Shell) Check(ctx context.Context) error {
	return s.Loader().Warm(ctx, s.table.ModuleIDs())
}

func (s *Shell) gateOptions() []gate.Option {
	opts := []gate.Option{
		gate.WithLogger(s.logger),
		gate.WithReporter(s.reporter),
	}
	if s.text != nil {
		opts = append(opts, gate.WithText(*s.text))
	}
	return opts
}
