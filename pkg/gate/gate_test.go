package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/harborlight/siteshell/pkg/loader"
	"github.com/harborlight/siteshell/pkg/routes"
)

type recorder struct {
	failures []Failure
}

func (r *recorder) Report(_ context.Context, f Failure) {
	r.failures = append(r.failures, f)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func text(s string) loader.Content {
	return loader.ContentFunc(func(w io.Writer, _ routes.Location) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

// settled resolves id from src and waits for the handle to settle.
func settled(t *testing.T, src loader.Source, id string) *loader.Handle {
	t.Helper()
	l := loader.New(src, loader.WithLogger(quietLogger()))
	t.Cleanup(l.Close)
	h := l.Resolve(id)
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("handle %q did not settle", id)
	}
	return h
}

func loading(t *testing.T, id string) (*loader.Handle, func()) {
	t.Helper()
	release := make(chan struct{})
	src := loader.SourceFunc(func(ctx context.Context, id string) (loader.Content, error) {
		select {
		case <-release:
			return text("<p>" + id + "</p>"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	l := loader.New(src, loader.WithLogger(quietLogger()))
	t.Cleanup(l.Close)
	return l.Resolve(id), func() { close(release) }
}

var home = routes.Location{Path: "/"}

func TestRenderReady(t *testing.T) {
	rec := &recorder{}
	g := New(WithReporter(rec))

	h := settled(t, loader.Builtin{"home": text("<h1>Home</h1>")}, "home")
	view := g.Render(context.Background(), h, home)

	if view.State != Idle || view.HTML != "<h1>Home</h1>" || view.ModuleID != "home" {
		t.Errorf("Render() = %+v", view)
	}
	if g.State() != Idle || len(rec.failures) != 0 {
		t.Errorf("State() = %v, failures = %d", g.State(), len(rec.failures))
	}
}

func TestRenderSuspendsThenResumes(t *testing.T) {
	g := New(WithReporter(&recorder{}))
	h, release := loading(t, "give")

	view := g.Render(context.Background(), h, home)
	if view.State != Suspended || g.State() != Suspended {
		t.Fatalf("Render() state = %v, want suspended", view.State)
	}
	for _, want := range []string{`role="status"`, `aria-busy="true"`, "Loading content..."} {
		if !strings.Contains(string(view.HTML), want) {
			t.Errorf("placeholder missing %q: %s", want, view.HTML)
		}
	}
	if strings.Contains(string(view.HTML), "<button") || strings.Contains(string(view.HTML), "<a ") {
		t.Error("placeholder must not be interactive")
	}

	release()
	<-h.Done()

	view = g.Render(context.Background(), h, home)
	if view.State != Idle || view.HTML != "<p>give</p>" {
		t.Errorf("Render() after load = %+v", view)
	}
}

func TestRenderLoadFailure(t *testing.T) {
	rec := &recorder{}
	g := New(WithReporter(rec))

	h := settled(t, loader.Builtin{}, "missions")
	loc := routes.Location{Path: "/missions"}
	view := g.Render(context.Background(), h, loc)

	if view.State != Failed || !g.HasFailed() {
		t.Fatalf("Render() state = %v, want failed", view.State)
	}
	if len(rec.failures) != 1 {
		t.Fatalf("reported %d failures, want 1", len(rec.failures))
	}
	f := rec.failures[0]
	if f.Kind != KindLoad || f.ModuleID != "missions" || f.Location != loc {
		t.Errorf("Failure = %+v", f)
	}
	if !errors.Is(g.LastError(), loader.ErrModuleNotFound) {
		t.Errorf("LastError() = %v", g.LastError())
	}
}

func TestRenderErrorAndPanic(t *testing.T) {
	tests := []struct {
		name    string
		content loader.Content
		isPanic bool
	}{
		{
			name: "error",
			content: loader.ContentFunc(func(w io.Writer, _ routes.Location) error {
				io.WriteString(w, "<p>partial")
				return errors.New("template exploded")
			}),
		},
		{
			name: "panic",
			content: loader.ContentFunc(func(io.Writer, routes.Location) error {
				var m map[string]int
				m["x"] = 1
				return nil
			}),
			isPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			g := New(WithReporter(rec))
			h := settled(t, loader.Builtin{"specs": tt.content}, "specs")

			view := g.Render(context.Background(), h, home)
			if view.State != Failed {
				t.Fatalf("state = %v, want failed", view.State)
			}
			if strings.Contains(string(view.HTML), "partial") {
				t.Error("partial content output must be discarded")
			}
			if len(rec.failures) != 1 || rec.failures[0].Kind != KindRender {
				t.Fatalf("failures = %+v", rec.failures)
			}

			var re *RenderError
			if !errors.As(g.LastError(), &re) {
				t.Fatalf("LastError() = %v, want *RenderError", g.LastError())
			}
			if tt.isPanic {
				if !errors.Is(re, ErrRenderPanic) || len(re.Stack) == 0 {
					t.Errorf("RenderError = %v, want panic with stack", re)
				}
			}
		})
	}
}

func TestFailureViewHidesDetails(t *testing.T) {
	g := New(WithReporter(&recorder{}))
	h := settled(t, loader.Builtin{
		"x": loader.ContentFunc(func(io.Writer, routes.Location) error {
			return errors.New("secret connection string")
		}),
	}, "x")

	html := string(g.Render(context.Background(), h, home).HTML)
	if strings.Contains(html, "secret") {
		t.Error("failure view must not show raw error details")
	}
	if n := strings.Count(html, "<button"); n != 1 {
		t.Errorf("failure view has %d actions, want exactly 1", n)
	}
	if !strings.Contains(html, `data-shell-action="reload"`) || !strings.Contains(html, `role="alert"`) {
		t.Errorf("failure view = %s", html)
	}
}

func TestFailureIsSticky(t *testing.T) {
	rec := &recorder{}
	g := New(WithReporter(rec))

	bad := settled(t, loader.Builtin{}, "broken")
	good := settled(t, loader.Builtin{"home": text("<h1>Home</h1>")}, "home")

	g.Render(context.Background(), bad, routes.Location{Path: "/broken"})

	// Navigating to a healthy route does not clear the failure.
	view := g.Render(context.Background(), good, home)
	if view.State != Failed || view.HTML != g.FailureView() {
		t.Fatalf("Render(good) after failure = %+v, want failure view", view)
	}
	if len(rec.failures) != 1 {
		t.Errorf("reported %d failures, want 1 (no re-render attempt)", len(rec.failures))
	}

	g.Reset()
	if g.State() != Idle || g.LastError() != nil {
		t.Fatalf("after Reset: state = %v, lastErr = %v", g.State(), g.LastError())
	}
	view = g.Render(context.Background(), good, home)
	if view.State != Idle || view.HTML != "<h1>Home</h1>" {
		t.Errorf("Render(good) after Reset = %+v", view)
	}
}

func TestReporterPanicIsSwallowed(t *testing.T) {
	g := New(
		WithLogger(quietLogger()),
		WithReporter(ReporterFunc(func(context.Context, Failure) {
			panic("diagnostics offline")
		})),
	)
	h := settled(t, loader.Builtin{}, "ghost")

	view := g.Render(context.Background(), h, home)
	if view.State != Failed {
		t.Errorf("state = %v, want failed", view.State)
	}
}

func TestLogReporter(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	g := New(WithLogger(logger))

	h := settled(t, loader.Builtin{
		"faith": loader.ContentFunc(func(io.Writer, routes.Location) error { panic("nil deref") }),
	}, "faith")
	g.Render(context.Background(), h, routes.Location{Path: "/faith", Fragment: "top"})

	out := buf.String()
	for _, want := range []string{"content failure", "module=faith", "location=/faith#top", "kind=render", "stack="} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestWithText(t *testing.T) {
	g := New(WithText(ViewText{
		LoadingLabel:   "Chargement",
		FailureTitle:   "Erreur",
		FailureMessage: "Une erreur est survenue.",
		ReloadAction:   "Recharger",
	}))
	if !strings.Contains(string(g.Placeholder()), "Chargement") {
		t.Errorf("Placeholder() = %s", g.Placeholder())
	}
	if !strings.Contains(string(g.FailureView()), "Recharger") {
		t.Errorf("FailureView() = %s", g.FailureView())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Suspended: "suspended", Failed: "failed", State(7): "unknown"} {
		if s.String() != want {
			t.Errorf("String() = %q, want %q", s.String(), want)
		}
	}
}
