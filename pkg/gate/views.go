package gate

import (
	"bytes"
	"html/template"
)

// Default region markup. Neither view carries error details.
var (
	placeholderTemplate = template.Must(template.New("placeholder").Parse(
		`<div class="shell-loading" role="status" aria-busy="true" aria-live="polite" aria-label="{{.Label}}">` +
			`<span class="shell-spinner" aria-hidden="true"></span>` +
			`</div>`))

	failureTemplate = template.Must(template.New("failure").Parse(
		`<section class="shell-failure" role="alert">` +
			`<h2>{{.Title}}</h2>` +
			`<p>{{.Message}}</p>` +
			`<button type="button" data-shell-action="reload">{{.Action}}</button>` +
			`</section>`))
)

// ViewText holds the copy used by the placeholder and failure views.
type ViewText struct {
	LoadingLabel   string
	FailureTitle   string
	FailureMessage string
	ReloadAction   string
}

// DefaultViewText returns the standard copy.
func DefaultViewText() ViewText {
	return ViewText{
		LoadingLabel:   "Loading content...",
		FailureTitle:   "System anomaly detected",
		FailureMessage: "An unexpected error occurred while displaying this page.",
		ReloadAction:   "Reload",
	}
}

func (t ViewText) placeholderHTML() template.HTML {
	var buf bytes.Buffer
	_ = placeholderTemplate.Execute(&buf, struct{ Label string }{t.LoadingLabel})
	return template.HTML(buf.String())
}

func (t ViewText) failureHTML() template.HTML {
	var buf bytes.Buffer
	_ = failureTemplate.Execute(&buf, struct{ Title, Message, Action string }{
		t.FailureTitle, t.FailureMessage, t.ReloadAction,
	})
	return template.HTML(buf.String())
}
