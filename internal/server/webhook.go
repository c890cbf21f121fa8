package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/teemow/voicecal/internal/conversation"
	"github.com/teemow/voicecal/internal/logging"
)

// DefaultMaxBodyBytes caps webhook request bodies.
const DefaultMaxBodyBytes = 1 << 20

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// MaxBodyBytes caps request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
	// Health registers the health endpoints when set.
	Health *HealthChecker
	Logger *slog.Logger
}

// ErrorResponse is the body of every non-2xx webhook reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewRouter builds the webhook server routes.
func NewRouter(sc *ServerContext, cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics(sc))

	h := &webhookHandler{sc: sc, maxBody: cfg.MaxBodyBytes, logger: cfg.Logger}
	r.Post("/webhook", h.ServeHTTP)
	r.Post("/chat/completions", h.ServeHTTP)

	if cfg.MCPHandler != nil {
		r.Handle("/mcp", cfg.MCPHandler)
	}
	if cfg.Health != nil {
		cfg.Health.RegisterHealthEndpoints(r)
	}
	return r
}

type webhookHandler struct {
	sc      *ServerContext
	maxBody int64
	logger  *slog.Logger
}

func (h *webhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "failed to read request body")
		return
	}

	reply, err := h.sc.Responder().Handle(r.Context(), body)
	if err != nil {
		status, kind := classify(err)
		logger := h.logger.With(
			slog.String("request_id", middleware.GetReqID(r.Context())),
			logging.Status(http.StatusText(status)),
			logging.Err(err),
		)
		if status >= http.StatusInternalServerError {
			logger.Error("webhook request failed")
		} else {
			logger.Warn("webhook request rejected")
		}
		writeError(w, status, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// classify maps a responder error to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, conversation.ErrEmptyConversation):
		return http.StatusBadRequest, "empty_conversation"
	case errors.Is(err, conversation.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, conversation.ErrModelFailure):
		return http.StatusBadGateway, "model_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: kind, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration(logging.KeyDuration, time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// httpMetrics records one request metric per call, labelled with the
// matched route pattern rather than the raw path.
func httpMetrics(sc *ServerContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, route, status, time.Since(start))
		})
	}
}
