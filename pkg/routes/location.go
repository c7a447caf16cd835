package routes

import (
	"errors"
	"strings"
)

// Location is the current navigation target.
type Location struct {
	// Path is the canonical path ("/" for the root).
	Path string

	// Fragment is the in-page anchor without the leading "#", or "".
	Fragment string
}

// String returns the location as "path#fragment".
func (l Location) String() string {
	if l.Fragment == "" {
		return l.Path
	}
	return l.Path + "#" + l.Fragment
}

// HasFragment reports whether the location targets an in-page anchor.
func (l Location) HasFragment() bool {
	return l.Fragment != ""
}

// Path canonicalization errors.
var (
	ErrBackslashInPath      = errors.New("routes: path contains backslash")
	ErrNullByteInPath       = errors.New("routes: path contains null byte")
	ErrInvalidPercentEscape = errors.New("routes: invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("routes: path escapes root via ..")
)

// ParseLocation parses a browser location into a Location.
//
// Accepted forms are "/give", "/give#tiers", "#/give#tiers" (hash router)
// and "" (root). The query string is dropped. A path that cannot be
// canonicalized is kept verbatim, which routes it to the fallback.
func ParseLocation(raw string) Location {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "#/") || raw == "#" {
		raw = raw[1:]
	}

	path, fragment, _ := strings.Cut(raw, "#")
	path, _, _ = strings.Cut(path, "?")

	canonical, err := CanonicalizePath(path)
	if err != nil {
		canonical = path
	}
	return Location{Path: canonical, Fragment: fragment}
}

// CanonicalizePath normalizes a URL path:
//   - ensure a leading slash
//   - collapse repeated slashes
//   - drop "." segments and resolve ".."
//   - remove the trailing slash (except for root)
//
// Backslashes, NUL bytes, malformed percent escapes and ".." above the root
// are rejected.
func CanonicalizePath(path string) (string, error) {
	if path == "" {
		return "/", nil
	}
	if strings.Contains(path, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return "", err
		}
	}

	var result []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(result) == 0 {
				return "", ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}
	return "/" + strings.Join(result, "/"), nil
}

// validatePercentEscapes checks that every '%' starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
