package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/scheduling"
	"github.com/teemow/voicecal/internal/tools/batch"
	"github.com/teemow/voicecal/internal/tools/common"
)

// Engine answers the scheduling tools.
type Engine interface {
	CheckAvailability(ctx context.Context, date, startTime, endTime string) scheduling.Availability
	BookAppointment(ctx context.Context, req scheduling.BookingRequest) scheduling.Booking
}

var _ Engine = (*scheduling.Service)(nil)

// Dispatcher routes tool invocations to the engine. It never returns an
// error; every failure is folded into the Result text.
type Dispatcher struct {
	handlers    map[string]common.Handler
	unknown     common.Handler
	instruments common.Instruments
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*dispatcherOptions)

type dispatcherOptions struct {
	instruments common.Instruments
	logger      *slog.Logger
}

// WithMetrics records tool metrics on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *dispatcherOptions) { o.instruments.Metrics = m }
}

// WithAuditLogger writes one audit line per invocation.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(o *dispatcherOptions) { o.instruments.Audit = a }
}

// WithModel labels tool metrics with the model that requested them.
func WithModel(model string) Option {
	return func(o *dispatcherOptions) { o.instruments.Model = model }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *dispatcherOptions) { o.logger = l }
}

// NewDispatcher creates a Dispatcher over engine.
func NewDispatcher(engine Engine, opts ...Option) *Dispatcher {
	if engine == nil {
		panic("tools: nil engine")
	}
	o := dispatcherOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	h := &handlers{engine: engine}
	wrap := func(fn common.Handler) common.Handler {
		return common.InstrumentedToolHandler(o.instruments, fn)
	}

	return &Dispatcher{
		handlers: map[string]common.Handler{
			CheckAvailability: wrap(h.checkAvailability),
			BookAppointment:   wrap(h.bookAppointment),
		},
		unknown:     wrap(unknownTool),
		instruments: o.instruments,
		logger:      o.logger,
	}
}

// Dispatch runs one invocation. The returned Result always carries inv.ID.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation, source string) Result {
	out := d.run(ctx, inv, source)
	return Result{
		ToolCallID: inv.ID,
		Result:     out.Text,
		IsError:    out.Err != nil,
	}
}

// DispatchBatch runs every invocation in order and returns one Result per
// invocation, in the same order.
func (d *Dispatcher) DispatchBatch(ctx context.Context, invs []Invocation, source string) []Result {
	// the handlers never fail; batch only guards against panics in them
	runs := batch.ProcessBatch(invs,
		func(inv Invocation) string { return inv.ID },
		func(inv Invocation) (string, error) {
			out := d.run(ctx, inv, source)
			if out.Err != nil {
				return out.Text, &dispatchError{text: out.Text, err: out.Err}
			}
			return out.Text, nil
		},
	)

	results := make([]Result, len(runs))
	for i, r := range runs {
		results[i] = Result{ToolCallID: r.ID, Result: r.Result}
		if r.Failed() {
			results[i].Result = errorText(r.Error)
			results[i].IsError = true
		}
	}

	if len(runs) > 0 {
		s := batch.Summarize(runs)
		d.logger.Debug("tool batch finished",
			slog.String("source", source),
			slog.Int("total", s.Total),
			slog.Int("failed", s.Failed),
		)
	}
	return results
}

func (d *Dispatcher) run(ctx context.Context, inv Invocation, source string) common.Outcome {
	call := common.Call{ID: inv.ID, Tool: inv.Name, Source: source}

	logger := d.logger.With(
		logging.Tool(inv.Name),
		logging.ToolCallID(inv.ID),
		slog.String("source", source),
	)

	handler, ok := d.handlers[inv.Name]
	if !ok {
		out := d.unknown(ctx, call)
		logger.Warn("unknown tool requested")
		return out
	}

	args, err := ParseArguments(inv.Arguments)
	if err == nil {
		call.Args = args
		required, _ := requiredArgs(inv.Name)
		if missing := common.MissingArgs(args, required); len(missing) > 0 {
			err = fmt.Errorf("%w: missing required argument(s): %s", ErrInvalidArguments, strings.Join(missing, ", "))
		}
	}
	if err != nil {
		logger.Warn("tool arguments rejected", logging.Err(err))
		return d.reject(ctx, call, err)
	}

	out := handler(ctx, call)
	logger.Debug("tool executed", slog.Bool("success", out.Success))
	return out
}

// reject reports a call that never reached its handler.
func (d *Dispatcher) reject(ctx context.Context, call common.Call, err error) common.Outcome {
	return common.InstrumentedToolHandler(d.instruments, func(context.Context, common.Call) common.Outcome {
		return failed(err)
	})(ctx, call)
}

type handlers struct {
	engine Engine
}

func (h *handlers) checkAvailability(ctx context.Context, call common.Call) common.Outcome {
	res := h.engine.CheckAvailability(ctx,
		common.StringArg(call.Args, ArgDate),
		common.StringArg(call.Args, ArgStartTime),
		common.StringArg(call.Args, ArgEndTime),
	)
	return common.Outcome{Text: res.Message, Success: res.Available}
}

func (h *handlers) bookAppointment(ctx context.Context, call common.Call) common.Outcome {
	res := h.engine.BookAppointment(ctx, scheduling.BookingRequest{
		Summary:       common.StringArg(call.Args, ArgSummary),
		Date:          common.StringArg(call.Args, ArgDate),
		StartTime:     common.StringArg(call.Args, ArgStartTime),
		EndTime:       common.StringArg(call.Args, ArgEndTime),
		Description:   common.StringArg(call.Args, ArgDescription),
		AttendeeEmail: common.StringArg(call.Args, ArgAttendeeEmail),
	})
	return common.Outcome{Text: res.Message, Success: res.Success}
}

func unknownTool(_ context.Context, call common.Call) common.Outcome {
	return failed(fmt.Errorf("%w: %q is not a recognized tool", ErrUnknownTool, call.Tool))
}

func failed(err error) common.Outcome {
	return common.Outcome{Text: errorText(err.Error()), Err: err}
}

func errorText(msg string) string {
	if strings.HasPrefix(msg, "Error: ") {
		return msg
	}
	return "Error: " + msg
}

// dispatchError carries an already formatted result text through batch.
type dispatchError struct {
	text string
	err  error
}

func (e *dispatchError) Error() string { return e.text }

func (e *dispatchError) Unwrap() error { return e.err }
