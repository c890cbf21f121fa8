package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/config"
	"github.com/teemow/voicecal/internal/conversation"
	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/llm"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/scheduling"
	"github.com/teemow/voicecal/internal/server"
	"github.com/teemow/voicecal/internal/tools"
	"github.com/teemow/voicecal/internal/wallclock"
)

// app is the wired object graph behind the serve command.
type app struct {
	config        config.Config
	logger        *slog.Logger
	provider      *instrumentation.Provider
	service       *scheduling.Service
	dispatcher    *tools.Dispatcher
	orchestrator  *conversation.Orchestrator
	serverContext *server.ServerContext
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	opts := cfg.LoggingOptions(debugMode)
	opts.Output = w
	return logging.New(opts)
}

func newProvider(ctx context.Context) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, nil
}

// newSchedulingService connects to Google Calendar and returns the engine
// behind both tools. metrics may be nil.
func newSchedulingService(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*scheduling.Service, error) {
	zone, err := cfg.Zone()
	if err != nil {
		return nil, err
	}

	strategy, err := google.NewCredentialStrategy(cfg.StrategyConfig())
	if err != nil {
		return nil, err
	}
	client, err := calendar.NewClient(ctx, strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client (%s): %w", strategy.Name(), err)
	}
	client.SetMetrics(metrics)
	client.SetLocation(zone.Location)

	return scheduling.NewService(client, scheduling.Config{
		CalendarID:           cfg.Calendar.ID,
		Zone:                 zone,
		OperatorEmail:        cfg.Calendar.OperatorEmail,
		RecheckBeforeBooking: cfg.Calendar.RecheckBeforeBooking,
	}, scheduling.WithLogger(logging.NewSlogAdapter(logger))), nil
}

// newApp wires everything the webhook and MCP surfaces need. Without
// withConversation only the scheduling tools are built, which is all the stdio
// transport serves.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, provider *instrumentation.Provider, withConversation bool) (*app, error) {
	metrics := provider.Metrics()

	service, err := newSchedulingService(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:   cfg,
		logger:   logger,
		provider: provider,
		service:  service,
	}
	if !withConversation {
		a.dispatcher = tools.NewDispatcher(service,
			tools.WithMetrics(metrics),
			tools.WithAuditLogger(provider.Audit()),
			tools.WithLogger(logger),
		)
		return a, nil
	}

	client, err := llm.NewAnthropic(cfg.AnthropicConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	client.SetMetrics(metrics)

	a.dispatcher = tools.NewDispatcher(service,
		tools.WithMetrics(metrics),
		tools.WithAuditLogger(provider.Audit()),
		tools.WithModel(client.Model()),
		tools.WithLogger(logger),
	)

	llmTools, err := tools.LLMTools()
	if err != nil {
		return nil, fmt.Errorf("failed to build tool schema: %w", err)
	}

	a.orchestrator = newOrchestrator(client, a.dispatcher, cfg, service.Config().Zone, metrics, logger, llmTools)

	a.serverContext, err = server.NewServerContext(server.Dependencies{
		Responder: a.orchestrator,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	return a, nil
}

func newOrchestrator(client *llm.AnthropicClient, d *tools.Dispatcher, cfg config.Config, zone wallclock.Zone, metrics *instrumentation.Metrics, logger *slog.Logger, llmTools []llm.Tool) *conversation.Orchestrator {
	return conversation.NewOrchestrator(client, d, conversation.Config{
		Persona:           cfg.Conversation.Persona,
		Zone:              zone,
		Model:             client.Model(),
		FallbackReply:     cfg.Conversation.FallbackReply,
		ToolFallbackReply: cfg.Conversation.ToolFallbackReply,
	},
		conversation.WithMetrics(metrics),
		conversation.WithLogger(logger),
		conversation.WithTools(llmTools),
	)
}

// close releases the server context, if one was built.
func (a *app) close() {
	if a.serverContext != nil {
		_ = a.serverContext.Shutdown()
	}
}
