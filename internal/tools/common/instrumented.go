package common

import (
	"context"
	"time"

	"github.com/teemow/voicecal/internal/instrumentation"
)

// Call is one tool invocation as seen by a handler.
type Call struct {
	ID     string
	Tool   string
	Source string
	Args   map[string]any
}

// Outcome is what a handler reports. Err marks a failed call; a negative
// answer (slot taken, booking refused) is Success false with a nil Err.
type Outcome struct {
	Text    string
	Success bool
	Err     error
}

// Handler runs a single tool call.
type Handler func(ctx context.Context, call Call) Outcome

// Instruments groups the recorders a handler reports to. Any field may be nil.
type Instruments struct {
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	// Model is attached to tool metrics when detailed labels are enabled.
	Model string
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging.
//
// Usage:
//
//	h := common.InstrumentedToolHandler(in, checkAvailability)
func InstrumentedToolHandler(in Instruments, handler Handler) Handler {
	return func(ctx context.Context, call Call) Outcome {
		attrs := instrumentation.NewSpanAttributeBuilder().
			WithToolCallID(call.ID).
			WithSource(call.Source).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, call.Tool, attrs...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(call.Tool, call.ID, call.Source).
			WithSpanContext(ctx).
			WithAttendee(StringArg(call.Args, "attendee_email")).
			WithWindow(
				StringArg(call.Args, "date"),
				StringArg(call.Args, "start_time"),
				StringArg(call.Args, "end_time"),
			)

		out := handler(ctx, call)
		duration := time.Since(start)

		invocation.Complete(out.Err == nil, out.Err)
		if out.Err != nil {
			instrumentation.SetSpanError(span, out.Err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		in.Metrics.RecordToolInvocationWithModel(ctx, call.Tool, call.Source, invocation.Status(), in.Model, duration)
		in.Audit.LogToolInvocation(invocation)

		return out
	}
}
