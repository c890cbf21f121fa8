package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/llm"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/tools"
	"github.com/teemow/voicecal/internal/wallclock"
)

const (
	// DefaultPersona is the system prompt used when a request carries none.
	DefaultPersona = "You are a friendly receptionist answering the phone for a small business. " +
		"You help callers check availability and book appointments in the business calendar. " +
		"Keep replies short and conversational since they are spoken aloud. " +
		"Always check availability before booking, and only book after the caller confirms."

	// DefaultFallbackReply is spoken when the model answers without text.
	DefaultFallbackReply = "Sorry, I didn't quite get that. Could you say it again?"

	// DefaultToolFallbackReply is spoken when the model has no text after
	// running tools.
	DefaultToolFallbackReply = "Okay, I've checked the calendar for you."

	// DefaultModelName is reported in chat envelopes when no model is configured.
	DefaultModelName = "voicecal"
)

// Dispatcher runs tool invocations.
type Dispatcher interface {
	DispatchBatch(ctx context.Context, invs []tools.Invocation, source string) []tools.Result
}

// Config holds the orchestrator settings.
type Config struct {
	// Persona is the system prompt for requests without a system turn.
	Persona string
	// Zone resolves the date line appended to the system prompt.
	Zone wallclock.Zone
	// Model is reported in chat envelopes.
	Model string

	FallbackReply     string
	ToolFallbackReply string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Persona) == "" {
		c.Persona = DefaultPersona
	}
	if c.Zone.Location == nil {
		c.Zone = wallclock.Zone{Name: "UTC", Location: time.UTC}
	}
	if c.Model == "" {
		c.Model = DefaultModelName
	}
	if c.FallbackReply == "" {
		c.FallbackReply = DefaultFallbackReply
	}
	if c.ToolFallbackReply == "" {
		c.ToolFallbackReply = DefaultToolFallbackReply
	}
	return c
}

// Orchestrator answers canonical requests.
type Orchestrator struct {
	llm        llm.Client
	dispatcher Dispatcher
	tools      []llm.Tool
	config     Config
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records conversation turns on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the clock used for the date line and envelopes.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTools replaces the tool list offered to the model.
func WithTools(t []llm.Tool) Option {
	return func(o *Orchestrator) { o.tools = t }
}

// NewOrchestrator creates an Orchestrator. The model is offered the
// scheduling tools unless WithTools says otherwise.
func NewOrchestrator(client llm.Client, dispatcher Dispatcher, cfg Config, opts ...Option) *Orchestrator {
	if client == nil || dispatcher == nil {
		panic("conversation: nil llm client or dispatcher")
	}
	o := &Orchestrator{
		llm:        client,
		dispatcher: dispatcher,
		tools:      tools.MustLLMTools(),
		config:     cfg.withDefaults(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.config
}

// Handle canonicalizes body and answers it. The returned value is one of
// *ChatCompletion, *ToolResults or *Ack and is ready to be encoded as JSON.
func (o *Orchestrator) Handle(ctx context.Context, body []byte) (any, error) {
	req, err := Canonicalize(body)
	if err != nil {
		o.metrics.RecordConversationTurn(ctx, "unknown", instrumentation.OutcomeRejected)
		return nil, err
	}
	return o.Answer(ctx, req)
}

// Answer answers a canonical request.
func (o *Orchestrator) Answer(ctx context.Context, req *Request) (any, error) {
	ctx, span := instrumentation.StartConversationSpan(ctx, string(req.Kind))
	defer span.End()

	logger := o.logger.With(logging.Envelope(string(req.Kind)))

	switch req.Kind {
	case KindPing:
		logger.Debug("webhook event acknowledged", slog.String("event_type", req.EventType))
		o.metrics.RecordConversationTurn(ctx, string(req.Kind), instrumentation.OutcomeIgnored)
		instrumentation.SetSpanSuccess(span)
		return &Ack{}, nil

	case KindToolCalls:
		results := o.dispatcher.DispatchBatch(ctx, req.ToolCalls, instrumentation.SourceWebhook)
		logger.Info("tool calls answered", slog.Int("count", len(results)))
		o.metrics.RecordConversationTurn(ctx, string(req.Kind), instrumentation.OutcomeToolResults)
		instrumentation.SetSpanSuccess(span)
		return newToolResults(results), nil

	case KindChat:
		reply, outcome, err := o.reply(ctx, req, logger)
		if err != nil {
			o.metrics.RecordConversationTurn(ctx, string(req.Kind), instrumentation.OutcomeFailed)
			instrumentation.SetSpanError(span, err)
			return nil, err
		}
		o.metrics.RecordConversationTurn(ctx, string(req.Kind), outcome)
		instrumentation.SetSpanSuccess(span)
		return newChatCompletion(o.config.Model, reply, o.now()), nil

	default:
		return nil, fmt.Errorf("%w: unsupported request kind %q", ErrInvalidPayload, req.Kind)
	}
}

func (o *Orchestrator) reply(ctx context.Context, req *Request, logger *slog.Logger) (string, string, error) {
	if req == nil || len(req.Turns) == 0 {
		return "", "", ErrEmptyConversation
	}

	request := llm.Request{
		System:   o.systemPrompt(req.System),
		Messages: messages(req.Turns),
		Tools:    o.tools,
	}

	first, err := o.llm.Complete(ctx, request)
	if err != nil {
		logger.Error("model call failed", logging.Err(err))
		return "", "", fmt.Errorf("%w: %v", ErrModelFailure, err)
	}

	if !first.WantsTools() {
		return o.text(first, o.config.FallbackReply), instrumentation.OutcomeDirectReply, nil
	}

	uses := first.ToolUses()
	invs := make([]tools.Invocation, len(uses))
	for i, u := range uses {
		invs[i] = tools.Invocation{ID: u.ID, Name: u.Name, Arguments: u.Input}
	}
	results := o.dispatcher.DispatchBatch(ctx, invs, instrumentation.SourceLLM)

	blocks := make([]llm.Block, len(results))
	for i, r := range results {
		blocks[i] = llm.ToolResultBlock(r.ToolCallID, r.Result, r.IsError)
	}
	request.Messages = appendAssistant(request.Messages, first.Content)
	request.Messages = append(request.Messages, llm.Message{Role: llm.RoleUser, Content: blocks})

	logger.Info("tools executed for model", slog.Int("count", len(results)))

	second, err := o.llm.Complete(ctx, request)
	if err != nil {
		logger.Error("model call after tools failed", logging.Err(err))
		return "", "", fmt.Errorf("%w: %v", ErrModelFailure, err)
	}

	return o.text(second, o.config.ToolFallbackReply), instrumentation.OutcomeToolReply, nil
}

func (o *Orchestrator) text(c *llm.Completion, fallback string) string {
	text, _ := c.FirstText()
	if text = strings.TrimSpace(text); text == "" {
		return fallback
	}
	return text
}

// systemPrompt returns the request's system text, or the persona, followed
// by the current date in the service zone.
func (o *Orchestrator) systemPrompt(system string) string {
	if strings.TrimSpace(system) == "" {
		system = o.config.Persona
	}
	today := o.now().In(o.config.Zone.Location)
	return fmt.Sprintf("%s\n\nToday is %s, %s. Times are in the %s time zone.",
		system, today.Weekday(), today.Format(wallclock.DateLayout), o.config.Zone.Name)
}

// messages converts turns to model messages, merging consecutive turns of
// the same role.
func messages(turns []Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		if n := len(out); n > 0 && out[n-1].Role == t.Role {
			prev := &out[n-1].Content[0]
			prev.Text += "\n" + t.Content
			continue
		}
		out = append(out, llm.Message{Role: t.Role, Content: []llm.Block{llm.TextBlock(t.Content)}})
	}
	return out
}

// appendAssistant adds the model's content as an assistant turn, joining a
// trailing assistant turn so roles keep alternating. Empty text blocks are
// dropped since the API rejects them.
func appendAssistant(msgs []llm.Message, content []llm.Block) []llm.Message {
	kept := make([]llm.Block, 0, len(content))
	for _, b := range content {
		if b.Type == llm.BlockText && strings.TrimSpace(b.Text) == "" {
			continue
		}
		kept = append(kept, b)
	}

	if n := len(msgs); n > 0 && msgs[n-1].Role == llm.RoleAssistant {
		msgs = slices.Clone(msgs)
		msgs[n-1].Content = append(slices.Clone(msgs[n-1].Content), kept...)
		return msgs
	}
	return append(msgs, llm.Message{Role: llm.RoleAssistant, Content: kept})
}
