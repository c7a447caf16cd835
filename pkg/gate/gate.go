package gate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/harborlight/siteshell/pkg/loader"
	"github.com/harborlight/siteshell/pkg/routes"
)

// State is the gate state.
type State int

const (
	// Idle means content is mounted and rendering normally.
	Idle State = iota
	// Suspended means the placeholder is shown while the module loads.
	Suspended
	// Failed means the recovery view is shown until Reset.
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Suspended:
		return "suspended"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is the markup the gate produced for the content region.
type View struct {
	State    State
	ModuleID string
	HTML     template.HTML
}

// Failure describes a caught failure for diagnostics.
type Failure struct {
	ModuleID string
	Location routes.Location
	Kind     FailureKind
	Err      error
}

// Reporter receives caught failures. Report must not block for long; a panic
// inside Report is recovered and logged.
type Reporter interface {
	Report(ctx context.Context, f Failure)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, f Failure)

// Report calls f(ctx, failure).
func (f ReporterFunc) Report(ctx context.Context, failure Failure) {
	f(ctx, failure)
}

// LogReporter logs failures at error level, stack included when present.
func LogReporter(logger *slog.Logger) Reporter {
	return ReporterFunc(func(ctx context.Context, f Failure) {
		attrs := []any{
			"module", f.ModuleID,
			"location", f.Location.String(),
			"kind", string(f.Kind),
			"error", f.Err,
		}
		if stack := stackOf(f.Err); len(stack) > 0 {
			attrs = append(attrs, "stack", string(stack))
		}
		logger.ErrorContext(ctx, "content failure", attrs...)
	})
}

// Option configures a Gate.
type Option func(*Gate)

// WithReporter sets the failure reporter. Default: LogReporter.
func WithReporter(r Reporter) Option {
	return func(g *Gate) {
		g.reporter = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithText overrides the placeholder and failure copy.
func WithText(text ViewText) Option {
	return func(g *Gate) {
		g.text = text
	}
}

// Gate is the suspension and failure boundary of one mounted application.
type Gate struct {
	reporter    Reporter
	logger      *slog.Logger
	text        ViewText
	placeholder template.HTML
	failure     template.HTML

	mu      sync.Mutex
	state   State
	lastErr error
}

// New creates a Gate in the Idle state.
func New(opts ...Option) *Gate {
	g := &Gate{
		logger: slog.Default().With("component", "gate"),
		text:   DefaultViewText(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.reporter == nil {
		g.reporter = LogReporter(g.logger)
	}
	g.placeholder = g.text.placeholderHTML()
	g.failure = g.text.failureHTML()
	return g
}

// Render produces the view for handle h at loc.
func (g *Gate) Render(ctx context.Context, h *loader.Handle, loc routes.Location) View {
	id := h.ID()
	if g.HasFailed() {
		return g.failedView(id)
	}

	switch h.State() {
	case loader.Ready:
		content, _ := h.Result()
		html, err := renderSafely(id, content, loc)
		if err != nil {
			return g.fail(ctx, id, loc, err)
		}
		g.setState(Idle)
		return View{State: Idle, ModuleID: id, HTML: html}

	case loader.Failed:
		_, err := h.Result()
		return g.fail(ctx, id, loc, err)

	default:
		g.setState(Suspended)
		return View{State: Suspended, ModuleID: id, HTML: g.placeholder}
	}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// HasFailed reports whether the gate is in the Failed state.
func (g *Gate) HasFailed() bool {
	return g.State() == Failed
}

// LastError returns the failure that moved the gate to Failed, or nil.
func (g *Gate) LastError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Reset clears a failure. It is the explicit recovery action and must not
// be called on ordinary navigation.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Idle
	g.lastErr = nil
}

// Placeholder returns the loading placeholder markup.
func (g *Gate) Placeholder() template.HTML {
	return g.placeholder
}

// FailureView returns the recovery view markup.
func (g *Gate) FailureView() template.HTML {
	return g.failure
}

func (g *Gate) setState(s State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Failed {
		g.state = s
	}
}

func (g *Gate) failedView(id string) View {
	return View{State: Failed, ModuleID: id, HTML: g.failure}
}

func (g *Gate) fail(ctx context.Context, id string, loc routes.Location, err error) View {
	g.mu.Lock()
	g.state = Failed
	g.lastErr = err
	g.mu.Unlock()

	g.report(ctx, Failure{
		ModuleID: id,
		Location: loc,
		Kind:     KindOf(err),
		Err:      err,
	})
	return g.failedView(id)
}

// report hands the failure to the reporter. Secondary failures are swallowed.
func (g *Gate) report(ctx context.Context, f Failure) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("failure reporter panicked", "panic", r, "module", f.ModuleID)
		}
	}()
	g.reporter.Report(ctx, f)
}

// renderSafely renders content into a buffer, converting errors and panics
// into a RenderError. Partial output is discarded.
func renderSafely(id string, content loader.Content, loc routes.Location) (html template.HTML, err error) {
	defer func() {
		if r := recover(); r != nil {
			html = ""
			err = &RenderError{
				ModuleID: id,
				Err:      fmt.Errorf("%w: %v", ErrRenderPanic, r),
				Panic:    r,
				Stack:    debug.Stack(),
			}
		}
	}()

	if content == nil {
		return "", &RenderError{ModuleID: id, Err: loader.ErrNilContent}
	}
	var buf bytes.Buffer
	if err := content.Render(&buf, loc); err != nil {
		return "", &RenderError{ModuleID: id, Err: err}
	}
	return template.HTML(buf.String()), nil
}

func stackOf(err error) []byte {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Stack
	}
	var le *loader.LoadError
	if errors.As(err, &le) {
		return le.Stack
	}
	return nil
}
