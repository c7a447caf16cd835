package shell

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMountID is the id of the host element the shell mounts into.
const DefaultMountID = "root"

// ContentID is the id of the routed content region.
const ContentID = "shell-content"

// ClientScriptPath is where the client script is served.
const ClientScriptPath = "/_shell/client.js"

// ErrMountPointMissing is returned when the host document has no element
// with the mount id.
var ErrMountPointMissing = errors.New("shell: mount point missing")

// Document is a host document split around its mount point.
type Document struct {
	MountID string
	head    []byte
	tail    []byte
}

// Bootstrap locates the mount point in src. It fails with
// ErrMountPointMissing when no element carries the mount id.
func Bootstrap(src []byte, mountID string) (*Document, error) {
	if mountID == "" {
		mountID = DefaultMountID
	}

	z := html.NewTokenizer(bytes.NewReader(src))
	offset := 0
	openEnd, closeStart := -1, -1
	var tag []byte
	depth := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return nil, fmt.Errorf("shell: parse host document: %w", z.Err())
		}
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if openEnd >= 0 {
				if bytes.Equal(name, tag) {
					depth++
				}
				continue
			}
			if hasAttr && attrEquals(z, "id", mountID) {
				if isVoid(name) {
					return nil, fmt.Errorf("%w: <%s id=%q> cannot hold content", ErrMountPointMissing, name, mountID)
				}
				tag = append([]byte(nil), name...)
				openEnd = offset
				depth = 1
			}
		case html.SelfClosingTagToken:
			if openEnd >= 0 {
				continue
			}
			if _, hasAttr := z.TagName(); hasAttr && attrEquals(z, "id", mountID) {
				return nil, fmt.Errorf("%w: self-closing mount element %q", ErrMountPointMissing, mountID)
			}
		case html.EndTagToken:
			if openEnd < 0 {
				continue
			}
			if name, _ := z.TagName(); bytes.Equal(name, tag) {
				depth--
				if depth == 0 {
					closeStart = start
				}
			}
		}
		if closeStart >= 0 {
			break
		}
	}

	if openEnd < 0 {
		return nil, fmt.Errorf("%w: no element with id %q", ErrMountPointMissing, mountID)
	}
	if closeStart < 0 {
		closeStart = len(src)
	}

	return &Document{
		MountID: mountID,
		head:    append([]byte(nil), src[:openEnd]...),
		tail:    injectScript(src[closeStart:]),
	}, nil
}

// Render writes the document with the given regions inside the mount point.
func (d *Document) Render(w io.Writer, header, content, footer template.HTML) error {
	var buf bytes.Buffer
	buf.Grow(len(d.head) + len(d.tail) + len(header) + len(content) + len(footer) + 128)
	buf.Write(d.head)
	fmt.Fprintf(&buf, `<header id="%s">%s</header>`, HeaderRegion, header)
	fmt.Fprintf(&buf, `<main id="%s">%s</main>`, ContentID, content)
	fmt.Fprintf(&buf, `<footer id="%s">%s</footer>`, FooterRegion, footer)
	buf.Write(d.tail)
	_, err := w.Write(buf.Bytes())
	return err
}

var scriptTag = []byte(`<script src="` + ClientScriptPath + `" defer></script>`)

// injectScript places the client script before </body>, or at the end.
func injectScript(tail []byte) []byte {
	lower := bytes.ToLower(tail)
	i := bytes.LastIndex(lower, []byte("</body>"))
	out := make([]byte, 0, len(tail)+len(scriptTag))
	if i < 0 {
		out = append(out, tail...)
		return append(out, scriptTag...)
	}
	out = append(out, tail[:i]...)
	out = append(out, scriptTag...)
	return append(out, tail[i:]...)
}

func attrEquals(z *html.Tokenizer, key, want string) bool {
	for {
		k, v, more := z.TagAttr()
		if string(k) == key && string(v) == want {
			return true
		}
		if !more {
			return false
		}
	}
}

func isVoid(name []byte) bool {
	switch atom.Lookup(name) {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

// HasElement reports whether markup contains an element with the given id.
func HasElement(markup string, id string) bool {
	if id == "" {
		return false
	}
	z := html.NewTokenizer(bytes.NewReader([]byte(markup)))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			if _, hasAttr := z.TagName(); hasAttr && attrEquals(z, "id", id) {
				return true
			}
		}
	}
}
