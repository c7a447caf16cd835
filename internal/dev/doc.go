// Package dev reloads content modules while the server runs.
//
// A Watcher reports debounced file changes under the module directory. A
// Reloader answers each batch by building a fresh loader, swapping it into
// the shell, closing the previous generation and telling every connected
// client to reload.
//
// # Usage
//
//	r := dev.NewReloader(sh, build, srv.Sessions(), logger)
//	w, err := dev.NewWatcher(dev.WatcherConfig{Paths: []string{"site/modules"}})
//	if err != nil {
//	    return err
//	}
//	w.OnChange(r.OnChange)
//	go w.Start(ctx)
package dev
