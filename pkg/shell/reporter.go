package shell

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/harborlight/siteshell/pkg/gate"
)

// Reporters fans a failure out to every non-nil reporter. A panic in one
// reporter does not stop the others.
func Reporters(rs ...gate.Reporter) gate.Reporter {
	var list []gate.Reporter
	for _, r := range rs {
		if r != nil {
			list = append(list, r)
		}
	}
	return gate.ReporterFunc(func(ctx context.Context, f gate.Failure) {
		for _, r := range list {
			reportOne(ctx, r, f)
		}
	})
}

func reportOne(ctx context.Context, r gate.Reporter, f gate.Failure) {
	defer func() { _ = recover() }()
	r.Report(ctx, f)
}

// spanReporter records failures as an event on the navigation span.
var spanReporter = gate.ReporterFunc(func(ctx context.Context, f gate.Failure) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(f.Err, trace.WithAttributes(
		attribute.String("siteshell.module", f.ModuleID),
		attribute.String("siteshell.failure_kind", string(f.Kind)),
	))
})
