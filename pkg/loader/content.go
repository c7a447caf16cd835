package loader

import (
	"html/template"
	"io"

	"github.com/harborlight/siteshell/pkg/routes"
)

// Content is a resolved content module.
// Render may fail by returning an error or by panicking; both are caught by
// the render gate.
type Content interface {
	Render(w io.Writer, loc routes.Location) error
}

// ContentFunc adapts a function to the Content interface.
type ContentFunc func(w io.Writer, loc routes.Location) error

// Render calls f(w, loc).
func (f ContentFunc) Render(w io.Writer, loc routes.Location) error {
	return f(w, loc)
}

// TemplateData is the value content templates are executed with.
type TemplateData struct {
	Module   string
	Path     string
	Fragment string
}

type templateContent struct {
	id  string
	tpl *template.Template
}

func (c *templateContent) Render(w io.Writer, loc routes.Location) error {
	return c.tpl.Execute(w, TemplateData{
		Module:   c.id,
		Path:     loc.Path,
		Fragment: loc.Fragment,
	})
}

// ParseTemplate parses an html/template module body.
// Missing keys are an execution error rather than silent empty output.
func ParseTemplate(id string, body []byte) (Content, error) {
	tpl, err := template.New(id).Option("missingkey=error").Parse(string(body))
	if err != nil {
		return nil, err
	}
	return &templateContent{id: id, tpl: tpl}, nil
}
