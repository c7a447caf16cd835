package scroll

import "time"

// Viewport is the surface the Coordinator moves.
type Viewport interface {
	// ScrollTo moves to the absolute position (x, y).
	ScrollTo(x, y int, b Behavior)
	// ScrollIntoView reveals the element with the given id. It reports
	// false, and does nothing, when no such element exists.
	ScrollIntoView(id string, b Behavior) bool
	// SetSmoothScroll toggles the page's ambient smooth-scroll styling.
	SetSmoothScroll(enabled bool)
}

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once adapted.
type AfterFunc func(d time.Duration, f func()) Timer

// Dispatcher runs fn on the owner's event loop.
type Dispatcher func(fn func())

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func inline(fn func()) {
	fn()
}

// Observer is notified of fragment scroll outcomes.
type Observer interface {
	FragmentScheduled()
	FragmentCancelled()
	FragmentFired(found bool)
}
