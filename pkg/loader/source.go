package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxModuleBytes caps the size of a fetched module body.
const DefaultMaxModuleBytes = 4 << 20

// Source fetches the code of a content module.
// Implementations return an error wrapping ErrModuleNotFound for unknown ids.
type Source interface {
	Fetch(ctx context.Context, id string) (Content, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, id string) (Content, error)

// Fetch calls f(ctx, id).
func (f SourceFunc) Fetch(ctx context.Context, id string) (Content, error) {
	return f(ctx, id)
}

// Builtin serves modules compiled into the binary.
type Builtin map[string]Content

// Fetch returns the module or ErrModuleNotFound.
func (b Builtin) Fetch(_ context.Context, id string) (Content, error) {
	if c, ok := b[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, id)
}

// Chain tries each source in order and returns the first module found.
// Errors other than ErrModuleNotFound stop the search.
type Chain []Source

// Fetch implements Source.
func (c Chain) Fetch(ctx context.Context, id string) (Content, error) {
	for _, s := range c {
		content, err := s.Fetch(ctx, id)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, ErrModuleNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, id)
}

// ValidateID rejects ids that cannot safely name a module file or object.
// Ids are slash-separated segments of letters, digits, '.', '-' and '_'.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidModuleID)
	}
	for _, seg := range strings.Split(id, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidModuleID, id)
		}
		for _, r := range seg {
			ok := r == '.' || r == '-' || r == '_' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidModuleID, id)
			}
		}
	}
	return nil
}

// readLimited reads r fully, failing if it holds more than max bytes.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxModuleBytes
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if n > max {
		return nil, ErrModuleTooLarge
	}
	return buf.Bytes(), nil
}
