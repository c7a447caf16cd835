package loader

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/harborlight/siteshell/pkg/loader"

// Default limits.
const (
	DefaultFetchTimeout    = 30 * time.Second
	DefaultWarmConcurrency = 4
)

// Observer receives load lifecycle notifications, e.g. for metrics.
type Observer interface {
	LoadStarted(moduleID string)
	LoadFinished(moduleID string, state State, d time.Duration)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver sets the load observer.
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		l.observer = o
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Loader) {
		if tp != nil {
			l.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithFetchTimeout bounds each fetch. Zero disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.fetchTimeout = d
	}
}

// WithWarmConcurrency limits concurrent fetches started by Warm.
func WithWarmConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.warmConcurrency = n
		}
	}
}

// Loader owns the module handle cache.
type Loader struct {
	source          Source
	logger          *slog.Logger
	observer        Observer
	tracer          trace.Tracer
	fetchTimeout    time.Duration
	warmConcurrency int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	handles map[string]*Handle
	closed  bool

	fetches atomic.Int64
}

// New creates a Loader that fetches modules from source.
func New(source Source, opts ...Option) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		source:          source,
		logger:          slog.Default().With("component", "loader"),
		tracer:          otel.Tracer(tracerName),
		fetchTimeout:    DefaultFetchTimeout,
		warmConcurrency: DefaultWarmConcurrency,
		ctx:             ctx,
		cancel:          cancel,
		handles:         make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve returns the handle for id, starting its fetch on first use.
// It never blocks on the fetch.
func (l *Loader) Resolve(id string) *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.handles[id]; ok {
		return h
	}

	h := newHandle(id)
	l.handles[id] = h
	if l.closed {
		h.settle(nil, &LoadError{ModuleID: id, Err: ErrLoaderClosed})
		return h
	}

	l.wg.Add(1)
	go l.fetch(h)
	return h
}

// Lookup returns the existing handle for id without starting a fetch.
func (l *Loader) Lookup(id string) (*Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[id]
	return h, ok
}

// State returns the state of id, Unloaded if it was never resolved.
func (l *Loader) State(id string) State {
	if h, ok := l.Lookup(id); ok {
		return h.State()
	}
	return Unloaded
}

// Fetches returns how many source fetches have been started.
func (l *Loader) Fetches() int64 {
	return l.fetches.Load()
}

// Stats counts handles per state.
func (l *Loader) Stats() map[State]int {
	l.mu.Lock()
	handles := make([]*Handle, 0, len(l.handles))
	for _, h := range l.handles {
		handles = append(handles, h)
	}
	l.mu.Unlock()

	stats := make(map[State]int)
	for _, h := range handles {
		stats[h.State()]++
	}
	return stats
}

// Warm resolves every id and waits for all of them, at most
// WarmConcurrency at a time. It returns the first load failure.
func (l *Loader) Warm(ctx context.Context, ids []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.warmConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			_, err := l.Resolve(id).Wait(gctx)
			return err
		})
	}
	return g.Wait()
}

// Close cancels in-flight fetches and waits for them to settle.
// Handles resolved after Close fail with ErrLoaderClosed.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}

func (l *Loader) fetch(h *Handle) {
	defer l.wg.Done()
	l.fetches.Add(1)

	id := h.ID()
	start := time.Now()
	if l.observer != nil {
		l.observer.LoadStarted(id)
	}

	ctx, span := l.tracer.Start(l.ctx, "loader.fetch",
		trace.WithAttributes(attribute.String("siteshell.module", id)))
	defer span.End()

	if l.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.fetchTimeout)
		defer cancel()
	}

	content, err := l.safeFetch(ctx, id)
	h.settle(content, err)

	d := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		l.logger.Error("module load failed", "module", id, "duration", d, "error", err)
	} else {
		span.SetStatus(codes.Ok, "")
		l.logger.Debug("module loaded", "module", id, "duration", d)
	}
	if l.observer != nil {
		l.observer.LoadFinished(id, h.State(), d)
	}
}

// safeFetch calls the source, converting panics and nil content into a LoadError.
func (l *Loader) safeFetch(ctx context.Context, id string) (content Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			content = nil
			err = &LoadError{
				ModuleID: id,
				Err:      fmt.Errorf("%v", r),
				Panic:    r,
				Stack:    debug.Stack(),
			}
		}
	}()

	content, err = l.source.Fetch(ctx, id)
	if err != nil {
		return nil, &LoadError{ModuleID: id, Err: err}
	}
	if content == nil {
		return nil, &LoadError{ModuleID: id, Err: ErrNilContent}
	}
	return content, nil
}
