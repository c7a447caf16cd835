// Package scroll positions the viewport on every navigation.
//
// A Coordinator resets the viewport to the origin without animation, then,
// when the location carries a fragment, makes one best-effort attempt to
// scroll the matching element into view after a fixed delay. A later
// navigation cancels any attempt still pending.
//
// The page's ambient smooth-scroll styling is disabled only for the duration
// of the reset. The Coordinator is the sole writer of that flag and restores
// it on every exit path, including Close.
package scroll
