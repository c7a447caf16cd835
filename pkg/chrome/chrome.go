// Package chrome renders the header and footer that surround the routed
// content region.
//
// Chrome depends only on the current location. Links whose path equals the
// location path are marked active with aria-current="page".
package chrome

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/harborlight/siteshell/pkg/routes"
)

// Region ids used in the host document.
const (
	HeaderID = "shell-header"
	FooterID = "shell-footer"
)

// Link is one navigation entry.
type Link struct {
	Label string `mapstructure:"label" json:"label" yaml:"label" validate:"required"`
	Path  string `mapstructure:"path" json:"path" yaml:"path" validate:"required,startswith=/"`
}

// Group is a titled list of footer links.
type Group struct {
	Title string `mapstructure:"title" json:"title" yaml:"title" validate:"required"`
	Links []Link `mapstructure:"links" json:"links" yaml:"links" validate:"dive"`
}

// Config describes the chrome contents.
type Config struct {
	Brand  string  `mapstructure:"brand" json:"brand" yaml:"brand"`
	Nav    []Link  `mapstructure:"nav" json:"nav" yaml:"nav" validate:"dive"`
	Footer []Group `mapstructure:"footer" json:"footer" yaml:"footer" validate:"dive"`
	Note   string  `mapstructure:"note" json:"note" yaml:"note"`
}

// DefaultConfig returns the site's standard navigation.
func DefaultConfig() Config {
	return Config{
		Brand: "Asymmetric.al",
		Nav: []Link{
			{Label: "Platform", Path: "/product"},
			{Label: "Missions", Path: "/missions"},
			{Label: "Specs", Path: "/specs"},
			{Label: "Manifesto", Path: "/manifesto"},
			{Label: "Give", Path: "/give"},
		},
		Footer: []Group{
			{Title: "Platform", Links: []Link{
				{Label: "Mission Control", Path: "/product"},
				{Label: "System Specs", Path: "/specs"},
				{Label: "Philosophy", Path: "/manifesto"},
			}},
			{Title: "Involvement", Links: []Link{
				{Label: "For Missions", Path: "/missions"},
				{Label: "Give to Build", Path: "/give"},
				{Label: "Contact Us", Path: "/contact"},
			}},
			{Title: "Legal", Links: []Link{
				{Label: "Privacy Policy", Path: "/privacy"},
				{Label: "Terms of Service", Path: "/terms"},
				{Label: "501(c)(3) Disclosure", Path: "/disclosure"},
			}},
		},
		Note: "Operating as a project under Global Fellowship Inc.",
	}
}

var funcs = template.FuncMap{
	"active": func(l Link, loc routes.Location) bool { return l.Path == loc.Path },
	"inc":    func(i int) int { return i + 1 },
}

var (
	headerTemplate = template.Must(template.New("header").Funcs(funcs).Parse(
		`<nav class="shell-nav" aria-label="Primary">` +
			`<a class="shell-brand" href="/" data-shell-link{{if eq .Loc.Path "/"}} aria-current="page"{{end}}>{{.Brand}}</a>` +
			`<ul>{{range .Nav}}<li><a href="{{.Path}}" data-shell-link` +
			`{{if active . $.Loc}} class="active" aria-current="page"{{end}}>{{.Label}}</a></li>{{end}}</ul>` +
			`</nav>`))

	footerTemplate = template.Must(template.New("footer").Funcs(funcs).Parse(
		`<footer class="shell-footer">` +
			`{{range $i, $g := .Footer}}<div class="shell-footer-group">` +
			`<h4>{{printf "%02d" (inc $i)}} // {{$g.Title}}</h4><ul>` +
			`{{range $g.Links}}<li><a href="{{.Path}}" data-shell-link` +
			`{{if active . $.Loc}} aria-current="page"{{end}}>{{.Label}}</a></li>{{end}}` +
			`</ul></div>{{end}}` +
			`{{with .Note}}<p class="shell-note">{{.}}</p>{{end}}` +
			`</footer>`))
)

// Chrome renders header and footer markup.
type Chrome struct {
	cfg Config
}

// New creates a Chrome. Every link path must be absolute.
func New(cfg Config) (*Chrome, error) {
	for _, l := range cfg.Nav {
		if err := checkLink(l); err != nil {
			return nil, err
		}
	}
	for _, g := range cfg.Footer {
		for _, l := range g.Links {
			if err := checkLink(l); err != nil {
				return nil, err
			}
		}
	}
	return &Chrome{cfg: cfg}, nil
}

func checkLink(l Link) error {
	if l.Label == "" || len(l.Path) == 0 || l.Path[0] != '/' {
		return fmt.Errorf("chrome: invalid link %q -> %q", l.Label, l.Path)
	}
	return nil
}

// Config returns the chrome configuration.
func (c *Chrome) Config() Config {
	return c.cfg
}

type viewData struct {
	Config
	Loc routes.Location
}

// Header renders the header with active state for loc.
func (c *Chrome) Header(loc routes.Location) (template.HTML, error) {
	return execute(headerTemplate, viewData{Config: c.cfg, Loc: loc})
}

// Footer renders the footer with active state for loc.
func (c *Chrome) Footer(loc routes.Location) (template.HTML, error) {
	return execute(footerTemplate, viewData{Config: c.cfg, Loc: loc})
}

// Active returns the nav links that are active at loc.
func (c *Chrome) Active(loc routes.Location) []Link {
	var out []Link
	for _, l := range c.cfg.Nav {
		if l.Path == loc.Path {
			out = append(out, l)
		}
	}
	return out
}

func execute(t *template.Template, data viewData) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("chrome: %s: %w", t.Name(), err)
	}
	return template.HTML(buf.String()), nil
}
