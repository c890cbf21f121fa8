package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/voicecal/internal/config"
	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/resources"
	"github.com/teemow/voicecal/internal/server"
	"github.com/teemow/voicecal/internal/tools/calendar_tools"
)

const (
	transportHTTP  = "http"
	transportStdio = "stdio"

	serverStartupTimeout = 5 * time.Second
)

// serveFlags holds the serve command line; only flags the user set
// override the loaded configuration.
type serveFlags struct {
	transport        string
	httpAddr         string
	disableMCP       bool
	disableStreaming bool
	metricsEnabled   bool
	metricsAddr      string
	calendarID       string
	timeZone         string
	model            string
	recheck          bool
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer voice-assistant webhooks",
		Long: `Start the voicecal server.

Supports two transports:
  - http: Serves POST /webhook and POST /chat/completions for the voice
    platform, the scheduling tools over MCP streamable HTTP at /mcp, and
    health checks at /healthz, /readyz and /healthz/detailed (default)
  - stdio: Serves only the scheduling tools over MCP on standard input/output

Configuration is read from defaults, then the YAML file given with --config
(or $VOICECAL_CONFIG), then the environment and a .env file. Flags override
all of them.

Prometheus metrics are served on a separate port (default :9090) when the
prometheus exporter is active. Set METRICS_EXPORTER to choose the exporter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd.Flags().Changed, &cfg); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, flags)
		},
	}

	cmd.Flags().StringVar(&flags.transport, "transport", transportHTTP, "Transport type: http or stdio")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", ":8080", "HTTP server address (for http transport)")
	cmd.Flags().BoolVar(&flags.disableMCP, "disable-mcp", false, "Do not mount the MCP endpoint on the HTTP server")
	cmd.Flags().BoolVar(&flags.disableStreaming, "disable-streaming", false, "Disable SSE streaming on the MCP endpoint")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics on a dedicated port")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", ":9090", "Metrics server address")
	cmd.Flags().StringVar(&flags.calendarID, "calendar-id", "primary", "Google Calendar to check and book")
	cmd.Flags().StringVar(&flags.timeZone, "timezone", "UTC", "IANA time zone of the business, e.g. Europe/Berlin")
	cmd.Flags().StringVar(&flags.model, "model", "", "Anthropic model name")
	cmd.Flags().BoolVar(&flags.recheck, "recheck-before-booking", false, "Check the slot again before booking it")

	return cmd
}

// apply copies every flag the user set into cfg.
func (f serveFlags) apply(changed func(name string) bool, cfg *config.Config) error {
	switch f.transport {
	case transportHTTP, transportStdio:
	default:
		return fmt.Errorf("unsupported transport %q (supported: %s, %s)", f.transport, transportHTTP, transportStdio)
	}

	if changed("http-addr") {
		cfg.Server.Addr = f.httpAddr
	}
	if changed("disable-mcp") {
		cfg.Server.MCPEnabled = !f.disableMCP
	}
	if changed("metrics-enabled") {
		cfg.Metrics.Enabled = f.metricsEnabled
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if changed("calendar-id") {
		cfg.Calendar.ID = f.calendarID
	}
	if changed("timezone") {
		cfg.Calendar.TimeZone = f.timeZone
	}
	if changed("model") {
		cfg.LLM.Model = f.model
	}
	if changed("recheck-before-booking") {
		cfg.Calendar.RecheckBeforeBooking = f.recheck
	}
	return nil
}

func runServe(ctx context.Context, cfg config.Config, flags serveFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdio := flags.transport == transportStdio

	// The stdio transport serves only the tools and never calls the model.
	validate := cfg.Validate
	if stdio {
		validate = cfg.ValidateCalendar
	}
	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// stdout belongs to the MCP protocol in stdio mode, so logs always go
	// to stderr.
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	provider, err := newProvider(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg, logger, provider, !stdio)
	if err != nil {
		return err
	}
	defer a.close()

	mcpSrv := mcpserver.NewMCPServer("voicecal", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, a.dispatcher); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}
	if err := resources.RegisterScheduleResources(mcpSrv, resources.Settings{
		CalendarID: cfg.Calendar.ID,
		Zone:       a.service.Config().Zone,
	}); err != nil {
		return fmt.Errorf("failed to register schedule resources: %w", err)
	}

	if stdio {
		logger.Info("serving scheduling tools over stdio",
			"calendar_id", cfg.Calendar.ID, "timezone", cfg.Calendar.TimeZone)
		return runStdioServer(mcpSrv)
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.ServesPrometheus() {
		metricsServer, err = startMetricsServer(cfg, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error shutting down metrics server", "error", err)
			}
		}()
	} else if cfg.Metrics.Enabled {
		logger.Info("metrics server disabled: exporter does not use a scrape endpoint")
	}

	var mcpHandler http.Handler
	if cfg.Server.MCPEnabled {
		mcpHandler = mcpserver.NewStreamableHTTPServer(mcpSrv,
			mcpserver.WithEndpointPath("/mcp"),
			mcpserver.WithDisableStreaming(flags.disableStreaming),
		)
	}

	return runHTTPServer(ctx, a, mcpHandler)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func startMetricsServer(cfg config.Config, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Metrics.Addr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(serverStartupTimeout):
		return nil, errors.New("metrics server startup timed out")
	}
}

func runHTTPServer(ctx context.Context, a *app, mcpHandler http.Handler) error {
	cfg := a.config

	health := server.NewHealthChecker(a.serverContext, server.HealthInfo{
		Version:    version,
		CalendarID: cfg.Calendar.ID,
		TimeZone:   cfg.Calendar.TimeZone,
		MCP:        mcpHandler != nil,
	})

	httpServer := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewRouter(a.serverContext, server.RouterConfig{
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			MCPHandler:   mcpHandler,
			Health:       health,
			Logger:       a.logger,
		}),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := server.ListenAndServe(httpServer, ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
	case err := <-serverDone:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(serverStartupTimeout):
		return errors.New("HTTP server startup timed out")
	}

	a.logger.Info("voicecal server started",
		"addr", cfg.Server.Addr,
		"calendar_id", cfg.Calendar.ID,
		"timezone", cfg.Calendar.TimeZone,
		"model", a.orchestrator.Config().Model,
		"mcp", mcpHandler != nil,
	)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		a.logger.Info("HTTP server stopped normally")
	}

	a.logger.Info("HTTP server gracefully stopped")
	return nil
}
