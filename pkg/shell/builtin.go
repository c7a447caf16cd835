package shell

import (
	"html/template"
	"io"

	"github.com/harborlight/siteshell/pkg/loader"
	"github.com/harborlight/siteshell/pkg/routes"
)

// NotFoundModuleID is the module id of the built-in fallback module.
const NotFoundModuleID = "not-found"

var notFoundTemplate = template.Must(template.New(NotFoundModuleID).Parse(`<section class="not-found">
<p class="badge">Coordinates Unknown</p>
<h1>Uncharted Territory.</h1>
<p>You've wandered off the map. The page you are looking for at <code>{{.Path}}</code> has either moved or never existed. Let's get you back to solid ground.</p>
<ul class="compass">
<li><a href="/" data-shell-link><h3>Mission Control</h3><p>Return to the dashboard homepage.</p></a></li>
<li><a href="/product" data-shell-link><h3>The Platform</h3><p>See the tools we are building.</p></a></li>
<li><a href="/contact" data-shell-link><h3>Support</h3><p>Reach out if you think this is an error.</p></a></li>
</ul>
<button type="button" data-shell-action="back">Go Back Previous Page</button>
</section>`))

// NotFound returns the built-in fallback module.
func NotFound() loader.Content {
	return loader.ContentFunc(func(w io.Writer, loc routes.Location) error {
		return notFoundTemplate.Execute(w, loc)
	})
}

// Builtins returns the modules compiled into the binary. Sources configured
// by the operator take precedence when chained before it.
func Builtins() loader.Builtin {
	return loader.Builtin{
		NotFoundModuleID: NotFound(),
	}
}
