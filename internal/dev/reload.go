package dev

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/harborlight/siteshell/pkg/loader"
	"github.com/harborlight/siteshell/pkg/shell"
)

// Broadcaster tells connected clients to reload.
type Broadcaster interface {
	BroadcastReload() int
}

// LoaderFactory builds a fresh loader generation.
type LoaderFactory func() (*loader.Loader, error)

// Reloader swaps loader generations into a shell.
type Reloader struct {
	shell       *shell.Shell
	build       LoaderFactory
	broadcaster Broadcaster
	logger      *slog.Logger

	mu         sync.Mutex
	generation atomic.Uint64
}

// NewReloader creates a Reloader. broadcaster may be nil.
func NewReloader(sh *shell.Shell, build LoaderFactory, broadcaster Broadcaster, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{
		shell:       sh,
		build:       build,
		broadcaster: broadcaster,
		logger:      logger.With("component", "reload"),
	}
}

// Reload installs a new loader generation. Modules cached by the previous
// generation, including failed ones, are fetched again on next use.
func (r *Reloader) Reload(reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.build()
	if err != nil {
		r.logger.Error("reload failed", "reason", reason, "error", err)
		return err
	}
	old := r.shell.SwapLoader(l)
	if old != nil {
		old.Close()
	}
	gen := r.generation.Add(1)

	clients := 0
	if r.broadcaster != nil {
		clients = r.broadcaster.BroadcastReload()
	}
	r.logger.Info("modules reloaded", "reason", reason, "generation", gen, "clients", clients)
	return nil
}

// Generation returns the number of completed reloads.
func (r *Reloader) Generation() uint64 {
	return r.generation.Load()
}

// OnChange reloads for a batch of watcher changes.
func (r *Reloader) OnChange(changes []Change) {
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		r.logger.Debug("change", "path", c.Path, "type", c.Type)
	}
	reason := changes[0].Path
	if len(changes) > 1 {
		reason = changes[0].Type.String() + " changes"
	}
	r.Reload(reason)
}
