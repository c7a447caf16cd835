package scroll

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/harborlight/siteshell/pkg/routes"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// cmd is one recorded viewport call.
type cmd struct {
	Op       string
	X, Y     int
	ID       string
	Behavior Behavior
	Enabled  bool
}

type recordingViewport struct {
	mu       sync.Mutex
	elements map[string]bool
	cmds     []cmd
	x, y     int
	smooth   bool
}

func newViewport(ids ...string) *recordingViewport {
	v := &recordingViewport{elements: map[string]bool{}, smooth: true}
	for _, id := range ids {
		v.elements[id] = true
	}
	return v
}

func (v *recordingViewport) ScrollTo(x, y int, b Behavior) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.x, v.y = x, y
	v.cmds = append(v.cmds, cmd{Op: "scrollTo", X: x, Y: y, Behavior: b})
}

func (v *recordingViewport) ScrollIntoView(id string, b Behavior) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.elements[id] {
		return false
	}
	v.x, v.y = 0, 500
	v.cmds = append(v.cmds, cmd{Op: "scrollIntoView", ID: id, Behavior: b})
	return true
}

func (v *recordingViewport) SetSmoothScroll(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.smooth = enabled
	v.cmds = append(v.cmds, cmd{Op: "smooth", Enabled: enabled})
}

func (v *recordingViewport) recorded() []cmd {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]cmd(nil), v.cmds...)
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// advance fires every timer that has not been stopped.
func (c *fakeClock) advance() {
	for _, t := range c.timers {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

var reset = []cmd{
	{Op: "smooth", Enabled: false},
	{Op: "scrollTo", X: 0, Y: 0, Behavior: Instant},
	{Op: "smooth", Enabled: true},
}

func TestNavigateWithoutFragment(t *testing.T) {
	vp := newViewport()
	vp.x, vp.y = 0, 1200
	clock := &fakeClock{}
	c := New(vp, WithAfterFunc(clock.AfterFunc))
	defer c.Close()

	intent := c.Navigate(routes.Location{Path: "/give"})

	if intent.Deferred {
		t.Errorf("Intent = %+v, want not deferred", intent)
	}
	if vp.x != 0 || vp.y != 0 {
		t.Errorf("position = (%d,%d), want (0,0)", vp.x, vp.y)
	}
	if len(clock.timers) != 0 {
		t.Errorf("scheduled %d timers, want 0", len(clock.timers))
	}
	if diff := cmp.Diff(reset, vp.recorded()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigateWithFragment(t *testing.T) {
	tests := []struct {
		name     string
		elements []string
		want     []cmd
	}{
		{
			name:     "element exists",
			elements: []string{"team"},
			want:     append(append([]cmd(nil), reset...), cmd{Op: "scrollIntoView", ID: "team", Behavior: Smooth}),
		},
		{
			name: "element missing",
			want: reset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := newViewport(tt.elements...)
			clock := &fakeClock{}
			c := New(vp, WithAfterFunc(clock.AfterFunc), WithDelay(250*time.Millisecond))
			defer c.Close()

			intent := c.Navigate(routes.Location{Path: "/give", Fragment: "team"})
			want := Intent{Fragment: "team", Deferred: true, Delay: 250 * time.Millisecond}
			if intent != want {
				t.Errorf("Intent = %+v, want %+v", intent, want)
			}

			// The reset happens before the deferred attempt.
			if diff := cmp.Diff(reset, vp.recorded()); diff != "" {
				t.Fatalf("before timer (-want +got):\n%s", diff)
			}
			if !c.Pending() || len(clock.timers) != 1 || clock.timers[0].d != 250*time.Millisecond {
				t.Fatalf("timers = %+v", clock.timers)
			}

			clock.advance()
			if diff := cmp.Diff(tt.want, vp.recorded()); diff != "" {
				t.Errorf("after timer (-want +got):\n%s", diff)
			}
			if c.Pending() {
				t.Error("Pending() = true after fire")
			}
		})
	}
}

func TestRapidNavigationCancelsEarlierFragment(t *testing.T) {
	vp := newViewport("a", "b")
	clock := &fakeClock{}
	c := New(vp, WithAfterFunc(clock.AfterFunc))
	defer c.Close()

	c.Navigate(routes.Location{Path: "/specs", Fragment: "a"})
	c.Navigate(routes.Location{Path: "/specs", Fragment: "b"})

	if !clock.timers[0].stopped {
		t.Error("first timer was not stopped")
	}
	clock.advance()

	var scrolled []string
	for _, got := range vp.recorded() {
		if got.Op == "scrollIntoView" {
			scrolled = append(scrolled, got.ID)
		}
	}
	if diff := cmp.Diff([]string{"b"}, scrolled); diff != "" {
		t.Errorf("fragment scrolls (-want +got):\n%s", diff)
	}
}

func TestStaleCallbackIsNoop(t *testing.T) {
	vp := newViewport("a")
	clock := &fakeClock{}
	c := New(vp, WithAfterFunc(clock.AfterFunc))
	defer c.Close()

	c.Navigate(routes.Location{Path: "/", Fragment: "a"})
	stale := clock.timers[0].f
	c.Navigate(routes.Location{Path: "/manifesto"})

	// Simulates a callback that was already queued when the timer was stopped.
	stale()

	for _, got := range vp.recorded() {
		if got.Op == "scrollIntoView" {
			t.Fatalf("stale fragment scroll applied: %+v", got)
		}
	}
}

func TestSmoothFlagNeverStuckOff(t *testing.T) {
	vp := newViewport("x")
	clock := &fakeClock{}
	c := New(vp, WithAfterFunc(clock.AfterFunc))

	for i := 0; i < 5; i++ {
		c.Navigate(routes.Location{Path: "/", Fragment: "x"})
		if !vp.smooth {
			t.Fatalf("smooth flag off after navigation %d", i)
		}
	}
	clock.advance()
	c.Close()
	if !vp.smooth {
		t.Error("smooth flag off after Close")
	}
}

func TestResetRestoresSmoothOnPanic(t *testing.T) {
	vp := &panickingViewport{recordingViewport: newViewport()}
	c := New(vp, WithAfterFunc((&fakeClock{}).AfterFunc))

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic from viewport")
			}
		}()
		c.Navigate(routes.Location{Path: "/"})
	}()

	if !vp.smooth {
		t.Error("smooth flag left disabled after panic")
	}
	// The lock was released by the deferred unlock.
	c.Close()
}

type panickingViewport struct {
	*recordingViewport
}

func (p *panickingViewport) ScrollTo(int, int, Behavior) {
	panic("viewport detached")
}

func TestAmbientSmoothDisabled(t *testing.T) {
	vp := newViewport()
	c := New(vp, WithAmbientSmooth(false), WithAfterFunc((&fakeClock{}).AfterFunc))
	c.Navigate(routes.Location{Path: "/"})
	c.Close()

	want := []cmd{{Op: "scrollTo", Behavior: Instant}}
	if diff := cmp.Diff(want, vp.recorded()); diff != "" {
		t.Errorf("commands (-want +got):\n%s", diff)
	}
}

func TestCloseCancelsPending(t *testing.T) {
	vp := newViewport("a")
	clock := &fakeClock{}
	obs := &countingObserver{}
	c := New(vp, WithAfterFunc(clock.AfterFunc), WithObserver(obs))

	c.Navigate(routes.Location{Path: "/", Fragment: "a"})
	stale := clock.timers[0].f
	c.Close()
	c.Close()
	stale()

	if c.Pending() {
		t.Error("Pending() = true after Close")
	}
	if got := c.Navigate(routes.Location{Path: "/", Fragment: "a"}); got != (Intent{}) {
		t.Errorf("Navigate after Close = %+v, want zero", got)
	}
	if obs.scheduled != 1 || obs.cancelled != 1 || obs.fired != 0 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestDispatcherRunsCallbacks(t *testing.T) {
	vp := newViewport("faq")
	clock := &fakeClock{}
	var queue []func()
	c := New(vp,
		WithAfterFunc(clock.AfterFunc),
		WithDispatcher(func(fn func()) { queue = append(queue, fn) }),
	)
	defer c.Close()

	c.Navigate(routes.Location{Path: "/", Fragment: "faq"})
	clock.advance()

	if len(queue) != 1 {
		t.Fatalf("dispatched %d callbacks, want 1", len(queue))
	}
	if len(vp.recorded()) != len(reset) {
		t.Fatal("fragment scroll ran before dispatch")
	}
	queue[0]()
	if got := vp.recorded(); got[len(got)-1].ID != "faq" {
		t.Errorf("last command = %+v", got[len(got)-1])
	}
}

func TestRealTimer(t *testing.T) {
	vp := newViewport("top")
	done := make(chan struct{})
	obs := &countingObserver{onFire: func() { close(done) }}
	c := New(vp, WithDelay(5*time.Millisecond), WithObserver(obs))
	defer c.Close()

	c.Navigate(routes.Location{Path: "/", Fragment: "top"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fragment scroll never fired")
	}
	if obs.found != 1 {
		t.Errorf("found = %d, want 1", obs.found)
	}
}

type countingObserver struct {
	mu                   sync.Mutex
	scheduled, cancelled int
	fired, found         int
	onFire               func()
}

func (o *countingObserver) FragmentScheduled() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scheduled++
}

func (o *countingObserver) FragmentCancelled() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelled++
}

func (o *countingObserver) FragmentFired(found bool) {
	o.mu.Lock()
	o.fired++
	if found {
		o.found++
	}
	fn := o.onFire
	o.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func TestIntentFor(t *testing.T) {
	tests := []struct {
		loc  routes.Location
		want Intent
	}{
		{routes.Location{Path: "/"}, Intent{}},
		{routes.Location{Path: "/give", Fragment: "team"}, Intent{Fragment: "team", Deferred: true, Delay: time.Second}},
	}
	for _, tt := range tests {
		if got := IntentFor(tt.loc, time.Second); got != tt.want {
			t.Errorf("IntentFor(%v) = %+v, want %+v", tt.loc, got, tt.want)
		}
	}
}
