package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound is returned by a Source that has no module with the id.
	ErrModuleNotFound = errors.New("loader: module not found")

	// ErrInvalidModuleID is returned for ids that cannot name a module.
	ErrInvalidModuleID = errors.New("loader: invalid module id")

	// ErrModuleTooLarge is returned when a module body exceeds the size limit.
	ErrModuleTooLarge = errors.New("loader: module too large")

	// ErrNilContent is returned when a Source reports success without content.
	ErrNilContent = errors.New("loader: source returned nil content")

	// ErrLoaderClosed is the failure of handles created after Close.
	ErrLoaderClosed = errors.New("loader: closed")
)

// LoadError is the cached failure of a module fetch.
type LoadError struct {
	ModuleID string
	Err      error

	// Panic and Stack are set when the source panicked.
	Panic any
	Stack []byte
}

// Error returns the error message.
func (e *LoadError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("loader: module %q: panic: %v", e.ModuleID, e.Panic)
	}
	return fmt.Sprintf("loader: module %q: %v", e.ModuleID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}
