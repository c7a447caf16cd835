package chrome

import (
	"strings"
	"testing"

	"github.com/harborlight/siteshell/pkg/routes"
)

func TestHeaderActiveState(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	html, err := c.Header(routes.Location{Path: "/give", Fragment: "team"})
	if err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	s := string(html)

	if got := strings.Count(s, `aria-current="page"`); got != 1 {
		t.Errorf("aria-current count = %d, want 1\n%s", got, s)
	}
	if !strings.Contains(s, `<a href="/give" data-shell-link class="active" aria-current="page">Give</a>`) {
		t.Errorf("Give link not active:\n%s", s)
	}
	if !strings.Contains(s, `<a href="/specs" data-shell-link>Specs</a>`) {
		t.Errorf("Specs link missing or active:\n%s", s)
	}
}

func TestHeaderHomeMarksBrand(t *testing.T) {
	c, _ := New(DefaultConfig())
	html, err := c.Header(routes.Location{Path: "/"})
	if err != nil {
		t.Fatalf("Header() error = %v", err)
	}
	if !strings.Contains(string(html), `data-shell-link aria-current="page">Asymmetric.al</a>`) {
		t.Errorf("brand not marked current:\n%s", html)
	}
}

func TestFooterGroups(t *testing.T) {
	c, _ := New(DefaultConfig())
	html, err := c.Footer(routes.Location{Path: "/terms"})
	if err != nil {
		t.Fatalf("Footer() error = %v", err)
	}
	s := string(html)
	for _, want := range []string{
		"01 // Platform",
		"02 // Involvement",
		"03 // Legal",
		`<a href="/terms" data-shell-link aria-current="page">Terms of Service</a>`,
		"Global Fellowship Inc.",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("footer missing %q", want)
		}
	}
}

func TestLabelsAreEscaped(t *testing.T) {
	c, err := New(Config{Brand: "<b>x</b>", Nav: []Link{{Label: "<script>", Path: "/x"}}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	html, _ := c.Header(routes.Location{Path: "/"})
	if strings.Contains(string(html), "<script>") || strings.Contains(string(html), "<b>") {
		t.Errorf("labels not escaped:\n%s", html)
	}
}

func TestNewRejectsRelativeLinks(t *testing.T) {
	tests := []Config{
		{Nav: []Link{{Label: "Give", Path: "give"}}},
		{Nav: []Link{{Label: "", Path: "/give"}}},
		{Footer: []Group{{Title: "Legal", Links: []Link{{Label: "Terms", Path: ""}}}}},
	}
	for i, cfg := range tests {
		if _, err := New(cfg); err == nil {
			t.Errorf("case %d: New() error = nil, want error", i)
		}
	}
}

func TestActive(t *testing.T) {
	c, _ := New(DefaultConfig())
	tests := []struct {
		path string
		want int
	}{
		{"/missions", 1},
		{"/missions/", 0},
		{"/contact", 0},
	}
	for _, tt := range tests {
		if got := len(c.Active(routes.Location{Path: tt.path})); got != tt.want {
			t.Errorf("Active(%q) = %d links, want %d", tt.path, got, tt.want)
		}
	}
}
