package instrumentation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one scheduling tool call for the audit trail.
//
// # Privacy Considerations
//
// Attendee is the caller's email address and counts as PII. LogAttrs only
// emits its domain and a short hash; LogAuditAttrs emits it verbatim.
type ToolInvocation struct {
	Tool       string
	ToolCallID string
	Source     string // llm, webhook, mcp

	// Attendee is the requester email for bookings, empty otherwise.
	Attendee string

	// Date and window the tool was asked about, as received.
	Date      string
	StartTime string
	EndTime   string

	Started  time.Time
	Duration time.Duration
	Success  bool
	Error    string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a ToolInvocation with timing started.
// Call Complete when the tool finishes.
func NewToolInvocation(tool, callID, source string) *ToolInvocation {
	return &ToolInvocation{
		Tool:       tool,
		ToolCallID: callID,
		Source:     source,
		Started:    time.Now(),
	}
}

// WithAttendee sets the requester email.
func (ti *ToolInvocation) WithAttendee(email string) *ToolInvocation {
	ti.Attendee = email
	return ti
}

// WithWindow records the requested date and wall-clock window.
func (ti *ToolInvocation) WithWindow(date, start, end string) *ToolInvocation {
	ti.Date = date
	ti.StartTime = start
	ti.EndTime = end
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as finished. A tool that reports a failure
// in its result text is still a completed call; pass the failure as err.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.Started)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the anonymized attribute set.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if ti.Attendee != "" {
		attrs = append(attrs,
			slog.String("attendee_domain", ExtractUserDomain(ti.Attendee)),
			slog.String("attendee_hash", hashEmail(ti.Attendee)),
		)
	}
	return ti.appendTail(attrs, false)
}

// LogAuditAttrs returns the full attribute set including the attendee email.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if ti.Attendee != "" {
		attrs = append(attrs, slog.String("attendee", ti.Attendee))
	}
	return ti.appendTail(attrs, true)
}

func (ti *ToolInvocation) baseAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("source", ti.Source),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.ToolCallID != "" {
		attrs = append(attrs, slog.String("tool_call_id", ti.ToolCallID))
	}
	if ti.Date != "" {
		attrs = append(attrs, slog.String("date", ti.Date))
	}
	if ti.StartTime != "" || ti.EndTime != "" {
		attrs = append(attrs, slog.String("window", ti.StartTime+"-"+ti.EndTime))
	}
	return attrs
}

func (ti *ToolInvocation) appendTail(attrs []slog.Attr, withSpan bool) []slog.Attr {
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if withSpan && ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:6])
}

// AuditLogger writes structured audit records for tool invocations.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger without PII.
// A nil logger resolves to slog.Default() at log time.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger, enabled: true}
}

// NewAuditLoggerWithConfig creates an AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs a completed invocation. Successful calls log at
// info, failed ones at warn.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled || ti == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}

	logger := al.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
