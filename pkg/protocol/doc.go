// Package protocol implements the JSON wire protocol spoken between the
// shell client script and a server session.
//
// Every websocket text frame carries one envelope:
//
//	{"type": "<message type>", "data": { ... }}
//
// # Client to server
//
//   - navigate: {"path": "/give#team"} the browser location changed
//   - reload: {} the user chose the recovery action
//
// # Server to client
//
//   - region: {"id": "...", "html": "..."} replace a region's contents
//   - scroll: {"x": 0, "y": 0, "behavior": "instant"} move the viewport
//   - scrollTo: {"id": "...", "behavior": "smooth"} reveal an element
//   - smooth: {"enabled": false} toggle ambient smooth scrolling
//   - reload: {} reload the whole document
//   - error: {"code": 1, "message": "..."} a request was rejected
//
// Error messages never carry internal error details.
package protocol
