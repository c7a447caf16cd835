package scroll

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harborlight/siteshell/pkg/routes"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelay sets the fragment scroll delay.
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithAfterFunc replaces the timer source.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.after = f
		}
	}
}

// WithDispatcher routes timer callbacks through d. Without one they run on
// the timer goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Coordinator) {
		if d != nil {
			c.dispatch = d
		}
	}
}

// WithAmbientSmooth declares whether the page uses smooth scrolling by
// default. When false the Coordinator never touches the flag.
func WithAmbientSmooth(enabled bool) Option {
	return func(c *Coordinator) {
		c.ambientSmooth = enabled
	}
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Coordinator applies scroll intents to a Viewport.
type Coordinator struct {
	vp            Viewport
	delay         time.Duration
	after         AfterFunc
	dispatch      Dispatcher
	ambientSmooth bool
	observer      Observer
	logger        *slog.Logger

	mu         sync.Mutex
	gen        uint64
	pending    Timer
	suppressed bool
	closed     bool
}

// New creates a Coordinator for vp.
func New(vp Viewport, opts ...Option) *Coordinator {
	c := &Coordinator{
		vp:            vp,
		delay:         DefaultFragmentDelay,
		after:         realAfterFunc,
		dispatch:      inline,
		ambientSmooth: true,
		logger:        slog.Default().With("component", "scroll"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Navigate reacts to a location change. The reset to the origin happens
// before Navigate returns; a fragment scroll, if any, is scheduled.
func (c *Coordinator) Navigate(loc routes.Location) Intent {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Intent{}
	}
	c.cancelLocked()

	intent := IntentFor(loc, c.delay)
	c.resetLocked()
	if intent.Deferred {
		c.scheduleLocked(intent)
	}
	return intent
}

// Pending reports whether a fragment scroll is waiting to fire.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Close cancels pending work and restores the smooth-scroll flag.
// It is safe to call more than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancelLocked()
	c.restoreSmoothLocked()
}

// resetLocked jumps to the origin with ambient smoothing suspended.
func (c *Coordinator) resetLocked() {
	release := c.suspendSmoothLocked()
	defer release()
	c.vp.ScrollTo(0, 0, Instant)
}

// suspendSmoothLocked disables ambient smoothing and returns its release.
func (c *Coordinator) suspendSmoothLocked() func() {
	if !c.ambientSmooth || c.suppressed {
		return func() {}
	}
	c.suppressed = true
	c.vp.SetSmoothScroll(false)
	return c.restoreSmoothLocked
}

func (c *Coordinator) restoreSmoothLocked() {
	if !c.suppressed {
		return
	}
	c.suppressed = false
	c.vp.SetSmoothScroll(true)
}

func (c *Coordinator) cancelLocked() {
	c.gen++
	if c.pending == nil {
		return
	}
	c.pending.Stop()
	c.pending = nil
	if c.observer != nil {
		c.observer.FragmentCancelled()
	}
}

func (c *Coordinator) scheduleLocked(intent Intent) {
	gen := c.gen
	fragment := intent.Fragment

	// A stopped timer may already be running; fired keeps it to one dispatch.
	var fired atomic.Bool
	c.pending = c.after(intent.Delay, func() {
		if fired.CompareAndSwap(false, true) {
			c.dispatch(func() {
				c.fire(gen, fragment)
			})
		}
	})
	if c.observer != nil {
		c.observer.FragmentScheduled()
	}
}

func (c *Coordinator) fire(gen uint64, fragment string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		return
	}
	c.pending = nil

	found := c.vp.ScrollIntoView(fragment, Smooth)
	if !found {
		c.logger.Debug("fragment target not mounted", "fragment", fragment)
	}
	if c.observer != nil {
		c.observer.FragmentFired(found)
	}
}
