package shell

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/harborlight/siteshell/pkg/loader"
	"github.com/harborlight/siteshell/pkg/routes"
)

const hostPage = `<!DOCTYPE html>
<html lang="en">
<head><title>Asymmetric.al</title></head>
<body>
<div id="root"><div class="boot"><div>Loading</div></div></div>
<div id="portal"></div>
</body>
</html>`

func TestBootstrap(t *testing.T) {
	doc, err := Bootstrap([]byte(hostPage), "")
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if doc.MountID != DefaultMountID {
		t.Errorf("MountID = %q, want %q", doc.MountID, DefaultMountID)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf, "H", "C", "F"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	want := `<div id="root"><header id="shell-header">H</header><main id="shell-content">C</main><footer id="shell-footer">F</footer></div>`
	if !strings.Contains(out, want) {
		t.Errorf("mount point not replaced:\n%s", out)
	}
	if strings.Contains(out, "boot") {
		t.Error("original mount point contents kept")
	}
	if !strings.Contains(out, `<div id="portal"></div>`) {
		t.Error("content after the mount point lost")
	}
	if !strings.Contains(out, `<script src="/_shell/client.js" defer></script></body>`) {
		t.Errorf("client script not injected before </body>:\n%s", out)
	}
}

func TestBootstrapMountPointMissing(t *testing.T) {
	tests := []struct {
		name string
		src  string
		id   string
	}{
		{"absent", `<html><body><div id="app"></div></body></html>`, "root"},
		{"empty document", ``, "root"},
		{"void element", `<body><img id="root"></body>`, "root"},
		{"self closing", `<body><div id="root"/></body>`, "root"},
		{"attribute on other key", `<body><div class="root"></div></body>`, "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bootstrap([]byte(tt.src), tt.id)
			if !errors.Is(err, ErrMountPointMissing) {
				t.Errorf("Bootstrap() error = %v, want ErrMountPointMissing", err)
			}
		})
	}
}

func TestBootstrapCustomMountAndNoBody(t *testing.T) {
	doc, err := Bootstrap([]byte(`<section id="app"><section>x</section></section><p>after</p>`), "app")
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	var buf bytes.Buffer
	doc.Render(&buf, "", "", "")
	out := buf.String()
	if !strings.HasPrefix(out, `<section id="app"><header`) {
		t.Errorf("output = %s", out)
	}
	if !strings.HasSuffix(out, `</footer></section><p>after</p><script src="/_shell/client.js" defer></script>`) {
		t.Errorf("output = %s", out)
	}
}

func TestHasElement(t *testing.T) {
	tests := []struct {
		markup string
		id     string
		want   bool
	}{
		{`<h2 id="team">Team</h2>`, "team", true},
		{`<div><span id="a"></span><img id="b"/></div>`, "b", true},
		{`<p class="team">Team</p>`, "team", false},
		{`<p>id="team"</p>`, "team", false},
		{`<!-- <div id="team"> -->`, "team", false},
		{``, "team", false},
		{`<p id="">x</p>`, "", false},
	}
	for _, tt := range tests {
		if got := HasElement(tt.markup, tt.id); got != tt.want {
			t.Errorf("HasElement(%q, %q) = %v, want %v", tt.markup, tt.id, got, tt.want)
		}
	}
}

func TestWriteDocument(t *testing.T) {
	l := loader.New(Builtins(), loader.WithLogger(quiet()))
	defer l.Close()
	s := New(routes.MustTable([]routes.RouteEntry{
		{Pattern: "/", ModuleID: "home"},
		{ModuleID: NotFoundModuleID, IsFallback: true},
	}), l, WithLogger(quiet()))

	doc, err := Bootstrap([]byte(hostPage), "root")
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	var buf bytes.Buffer
	if err := s.WriteDocument(&buf, doc, routes.Location{Path: "/give"}); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`aria-busy="true"`, `href="/give" data-shell-link class="active"`, "03 // Legal"} {
		if !strings.Contains(out, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if l.Fetches() != 0 {
		t.Errorf("document render fetched %d modules, want 0", l.Fetches())
	}
}
