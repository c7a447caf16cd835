package loader

import (
	"context"
	"sync"
	"time"
)

// State is the resolution state of a module handle.
type State int

const (
	// Unloaded means no handle exists for the module yet.
	Unloaded State = iota
	// Loading means the fetch is in flight.
	Loading
	// Ready means the content is available.
	Ready
	// Failed means the fetch failed; the error is cached.
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle is the cached resolution state of one module.
// It is written once by the Loader and read by everyone else.
type Handle struct {
	id   string
	done chan struct{}

	mu        sync.RWMutex
	state     State
	content   Content
	err       error
	createdAt time.Time
	settledAt time.Time
}

func newHandle(id string) *Handle {
	return &Handle{
		id:        id,
		done:      make(chan struct{}),
		state:     Loading,
		createdAt: time.Now(),
	}
}

// ID returns the module id.
func (h *Handle) ID() string {
	return h.id
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Done returns a channel that is closed once the handle is Ready or Failed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the content or the load error.
// While the handle is Loading both are nil.
func (h *Handle) Result() (Content, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.content, h.err
}

// Wait blocks until the handle settles or ctx is done.
// Giving up on ctx does not cancel the fetch.
func (h *Handle) Wait(ctx context.Context) (Content, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LoadDuration returns how long the fetch took, or 0 while Loading.
func (h *Handle) LoadDuration() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.settledAt.IsZero() {
		return 0
	}
	return h.settledAt.Sub(h.createdAt)
}

// settle moves the handle to Ready or Failed. Only the first call has effect.
func (h *Handle) settle(content Content, err error) bool {
	h.mu.Lock()
	if h.state != Loading {
		h.mu.Unlock()
		return false
	}
	if err != nil {
		h.state = Failed
		h.err = err
	} else {
		h.state = Ready
		h.content = content
	}
	h.settledAt = time.Now()
	h.mu.Unlock()

	close(h.done)
	return true
}
