// Package server serves the shell over HTTP and holds one websocket session
// per browser tab.
//
// # Routes
//
//   - GET /healthz            liveness
//   - GET /metrics            Prometheus exposition
//   - GET /_shell/ws          websocket session
//   - GET /_shell/client.js   client script
//   - GET /static/*           optional static directory
//   - GET /*                  host document with chrome and placeholder
//
// # Session goroutines
//
// Each session runs three goroutines:
//   - ReadLoop: decodes client messages and queues them
//   - EventLoop: owns the shell.Instance; handles messages and dispatched callbacks
//   - WriteLoop: writes queued frames and sends heartbeat pings
//
// Only EventLoop touches the Instance. Module resolutions and scroll timers
// reach it through Session.Dispatch.
package server
