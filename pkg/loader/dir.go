package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSource loads modules from <Root>/<id><Ext> files.
type DirSource struct {
	// Root is the modules directory.
	Root string

	// Ext is the file extension (default ".html").
	Ext string

	// MaxBytes caps the file size (default DefaultMaxModuleBytes).
	MaxBytes int64
}

// Path returns the file path for id.
func (s *DirSource) Path(id string) string {
	ext := s.Ext
	if ext == "" {
		ext = ".html"
	}
	return filepath.Join(s.Root, filepath.FromSlash(id)+ext)
}

// Fetch reads and parses the module file.
func (s *DirSource) Fetch(ctx context.Context, id string) (Content, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, id)
		}
		return nil, err
	}
	defer f.Close()

	body, err := readLimited(f, s.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path(id), err)
	}
	return ParseTemplate(id, body)
}
