package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/voicecal/internal/instrumentation"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultMaxTokens = 1024
	DefaultTimeout   = 60 * time.Second

	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"
	userAgent        = "voicecal"
)

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
	// HTTPClient overrides the default client; Timeout is then ignored.
	HTTPClient *http.Client
}

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	metrics    *instrumentation.Metrics
}

var _ Client = (*AnthropicClient)(nil)

type messageRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Tools     []Tool    `json:"tools,omitempty"`
	MaxTokens int       `json:"max_tokens"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropic creates an AnthropicClient.
func NewAnthropic(cfg AnthropicConfig) (*AnthropicClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &AnthropicClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxTokens,
	}, nil
}

// SetMetrics sets the metrics recorder for completion calls.
func (c *AnthropicClient) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

// Model returns the model name sent with every request.
func (c *AnthropicClient) Model() string {
	return c.model
}

// Complete performs one blocking Messages API call. Errors are not retried.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	ctx, span := instrumentation.StartLLMSpan(ctx, c.model, len(req.Messages))
	defer span.End()

	start := time.Now()
	completion, err := c.complete(ctx, req)

	status := instrumentation.StatusSuccess
	stopReason := ""
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		stopReason = completion.StopReason
		span.SetAttributes(attribute.String(instrumentation.SpanAttrStopReason, stopReason))
		instrumentation.SetSpanSuccess(span)
		c.metrics.RecordLLMTokens(ctx, c.model, completion.Usage.InputTokens, completion.Usage.OutputTokens)
	}
	c.metrics.RecordLLMRequest(ctx, c.model, stopReason, status, time.Since(start))

	return completion, err
}

func (c *AnthropicClient) complete(ctx context.Context, req Request) (*Completion, error) {
	payload := messageRequest{
		Model:     c.model,
		System:    req.System,
		Messages:  req.Messages,
		Tools:     req.Tools,
		MaxTokens: c.maxTokens,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("user-agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var completion Completion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}
	return &completion, nil
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("anthropic api status %d: %w", resp.StatusCode, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Type: apiErr.Error.Type, Message: apiErr.Error.Message}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
}
