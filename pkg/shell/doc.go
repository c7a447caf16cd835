// Package shell glues routing, module loading, the render gate, scroll
// coordination and navigation chrome into one mounted application.
//
// A Shell is process-wide: it owns the route table, the current Loader
// generation and the chrome. Each browser tab gets an Instance. All Instance
// methods must run on one goroutine, the owner's event loop; asynchronous
// completions are marshalled back onto that loop through a Dispatcher.
//
// The document served to the browser is split around its mount point by
// Bootstrap. The mount point hosts three regions:
//
//	<header id="shell-header">   navigation chrome
//	<main id="shell-content">    routed content behind the render gate
//	<footer id="shell-footer">   footer chrome
//
// A failure inside shell-content never touches the header or footer.
package shell
