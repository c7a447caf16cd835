package scroll

import (
	"time"

	"github.com/harborlight/siteshell/pkg/routes"
)

// DefaultFragmentDelay is how long a fragment scroll waits for content to mount.
const DefaultFragmentDelay = 300 * time.Millisecond

// Behavior is the movement style of a viewport command.
type Behavior string

const (
	// Instant jumps without animation.
	Instant Behavior = "instant"
	// Smooth animates the movement.
	Smooth Behavior = "smooth"
)

// Intent is the scroll plan derived from one location.
type Intent struct {
	// Fragment is the element id to reveal, empty for top-of-page.
	Fragment string
	// Deferred is true when a fragment scroll follows the reset.
	Deferred bool
	// Delay is the wait before the fragment attempt.
	Delay time.Duration
}

// IntentFor derives the scroll intent for loc.
func IntentFor(loc routes.Location, delay time.Duration) Intent {
	if !loc.HasFragment() {
		return Intent{}
	}
	return Intent{Fragment: loc.Fragment, Deferred: true, Delay: delay}
}
