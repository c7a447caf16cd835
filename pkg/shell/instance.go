package shell

import (
	"context"
	"html/template"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/harborlight/siteshell/pkg/gate"
	"github.com/harborlight/siteshell/pkg/loader"
	"github.com/harborlight/siteshell/pkg/protocol"
	"github.com/harborlight/siteshell/pkg/routes"
	"github.com/harborlight/siteshell/pkg/scroll"
)

// Sink receives the messages an Instance produces, in order.
type Sink interface {
	Send(m protocol.Message)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(m protocol.Message)

// Send calls f(m).
func (f SinkFunc) Send(m protocol.Message) {
	f(m)
}

// Dispatcher runs fn on the Instance owner's event loop.
type Dispatcher func(fn func())

// Instance is one mounted application.
type Instance struct {
	shell    *Shell
	sink     Sink
	dispatch Dispatcher
	gate     *gate.Gate
	scroll   *scroll.Coordinator
	logger   *slog.Logger

	loc      routes.Location
	mountSeq uint64
	module   string
	regions  map[string]string
	done     chan struct{}
	closed   bool
}

// NewInstance mounts a new application that writes to sink. Callbacks from
// other goroutines are run through dispatch.
func (s *Shell) NewInstance(sink Sink, dispatch Dispatcher, logger *slog.Logger) *Instance {
	if logger == nil {
		logger = s.logger
	}
	i := &Instance{
		shell:    s,
		sink:     sink,
		dispatch: dispatch,
		gate:     gate.New(s.gateOptions()...),
		logger:   logger,
		regions:  make(map[string]string, 3),
		done:     make(chan struct{}),
	}

	scrollOpts := []scroll.Option{
		scroll.WithDelay(s.fragmentDelay),
		scroll.WithAmbientSmooth(s.ambientSmooth),
		scroll.WithDispatcher(scroll.Dispatcher(dispatch)),
		scroll.WithLogger(logger),
	}
	if s.afterFunc != nil {
		scrollOpts = append(scrollOpts, scroll.WithAfterFunc(s.afterFunc))
	}
	if s.scrollObserver != nil {
		scrollOpts = append(scrollOpts, scroll.WithObserver(s.scrollObserver))
	}
	i.scroll = scroll.New(&viewport{inst: i}, scrollOpts...)
	return i
}

// Location returns the current location.
func (i *Instance) Location() routes.Location {
	return i.loc
}

// Module returns the module id routed for the current location.
func (i *Instance) Module() string {
	return i.module
}

// GateState returns the render gate state.
func (i *Instance) GateState() gate.State {
	return i.gate.State()
}

// Navigate replaces the current location with the one parsed from raw and
// updates every region.
func (i *Instance) Navigate(ctx context.Context, raw string) {
	if i.closed {
		return
	}
	loc := routes.ParseLocation(raw)
	i.loc = loc
	i.mountSeq++
	seq := i.mountSeq

	entry := i.shell.table.Match(loc.Path)
	ctx, span := i.shell.tracer.Start(ctx, "shell.navigate", trace.WithAttributes(
		attribute.String("siteshell.path", loc.Path),
		attribute.String("siteshell.module", entry.ModuleID),
		attribute.Bool("siteshell.fallback", entry.IsFallback),
	))
	defer span.End()

	i.renderChrome(loc)

	h := i.shell.Loader().Resolve(entry.ModuleID)
	view := i.gate.Render(ctx, h, loc)
	i.module = entry.ModuleID
	i.sendRegion(ContentID, view.HTML)

	span.SetAttributes(attribute.String("siteshell.gate_state", view.State.String()))
	if view.State == gate.Failed {
		span.SetStatus(codes.Error, "content failure")
	}
	if i.shell.recorder != nil {
		i.shell.recorder.RecordNavigation(entry.ModuleID, view.State)
	}
	i.logger.Debug("navigate", "location", loc.String(), "module", entry.ModuleID, "state", view.State)

	i.scroll.Navigate(loc)

	if view.State == gate.Suspended {
		go i.awaitHandle(seq, h)
	}
}

// awaitHandle waits off-loop for h and resumes on the loop.
func (i *Instance) awaitHandle(seq uint64, h *loader.Handle) {
	select {
	case <-h.Done():
		i.dispatch(func() { i.resume(seq, h) })
	case <-i.done:
	}
}

// resume renders h if the navigation that requested it is still current.
func (i *Instance) resume(seq uint64, h *loader.Handle) {
	if i.closed || seq != i.mountSeq {
		i.logger.Debug("dropping stale module resolution", "module", h.ID())
		return
	}
	view := i.gate.Render(context.Background(), h, i.loc)
	i.sendRegion(ContentID, view.HTML)
	if i.shell.recorder != nil {
		i.shell.recorder.RecordNavigation(h.ID(), view.State)
	}
}

// Reload is the explicit recovery action. It clears a gate failure and asks
// the client to reload the document.
func (i *Instance) Reload() {
	if i.closed {
		return
	}
	i.logger.Info("recovery reload", "location", i.loc.String(), "had_failed", i.gate.HasFailed())
	i.gate.Reset()
	i.sink.Send(protocol.Reload{})
}

// Close unmounts the application. Pending scrolls are cancelled and the
// smooth-scroll flag is restored.
func (i *Instance) Close() {
	if i.closed {
		return
	}
	i.closed = true
	i.scroll.Close()
	close(i.done)
}

func (i *Instance) renderChrome(loc routes.Location) {
	header, err := i.shell.chrome.Header(loc)
	if err != nil {
		i.logger.Error("render header", "error", err)
	} else {
		i.sendRegion(HeaderRegion, header)
	}
	footer, err := i.shell.chrome.Footer(loc)
	if err != nil {
		i.logger.Error("render footer", "error", err)
	} else {
		i.sendRegion(FooterRegion, footer)
	}
}

func (i *Instance) sendRegion(id string, html template.HTML) {
	i.regions[id] = string(html)
	i.sink.Send(protocol.Region{ID: id, HTML: string(html)})
}

// hasElement reports whether any mounted region contains id.
func (i *Instance) hasElement(id string) bool {
	for _, region := range []string{ContentID, HeaderRegion, FooterRegion} {
		if HasElement(i.regions[region], id) {
			return true
		}
	}
	return false
}

// viewport turns scroll commands into protocol messages.
type viewport struct {
	inst *Instance
}

func (v *viewport) ScrollTo(x, y int, b scroll.Behavior) {
	v.inst.sink.Send(protocol.Scroll{X: x, Y: y, Behavior: string(b)})
}

func (v *viewport) ScrollIntoView(id string, b scroll.Behavior) bool {
	if !v.inst.hasElement(id) {
		return false
	}
	v.inst.sink.Send(protocol.ScrollTo{ID: id, Behavior: string(b)})
	return true
}

func (v *viewport) SetSmoothScroll(enabled bool) {
	v.inst.sink.Send(protocol.Smooth{Enabled: enabled})
}
