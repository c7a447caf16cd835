// Package gate guards the routed content area.
//
// A Gate combines a suspension placeholder with a failure boundary. While the
// current module is still loading it renders an accessible busy placeholder;
// once the module is ready it renders the content under recover. A load
// failure, a render error or a render panic moves the gate to Failed, reports
// the failure to a Reporter and shows a recovery view with a single reload
// action.
//
// Failed is sticky: later Render calls keep returning the recovery view until
// Reset is called by an explicit, user-initiated reload. Nothing is retried
// automatically.
package gate
