package gate

import (
	"errors"
	"fmt"

	"github.com/harborlight/siteshell/pkg/loader"
)

// ErrRenderPanic is wrapped by RenderErrors caused by a panic.
var ErrRenderPanic = errors.New("gate: render panic")

// FailureKind distinguishes why the gate failed. The distinction is only
// used for diagnostics, never shown to the user.
type FailureKind string

const (
	// KindLoad means the module could not be fetched.
	KindLoad FailureKind = "load"
	// KindRender means the module failed while rendering.
	KindRender FailureKind = "render"
)

// RenderError wraps an error or panic raised by mounted content.
type RenderError struct {
	ModuleID string
	Err      error
	Panic    any
	Stack    []byte
}

// Error returns the error message.
func (e *RenderError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("gate: module %q: panic: %v", e.ModuleID, e.Panic)
	}
	return fmt.Sprintf("gate: module %q: %v", e.ModuleID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// KindOf classifies a gate failure error.
func KindOf(err error) FailureKind {
	var le *loader.LoadError
	if errors.As(err, &le) {
		return KindLoad
	}
	return KindRender
}
