// Package instrumentation provides OpenTelemetry instrumentation for the
// voicecal webhook server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, route, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of calendar operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of calendar operation durations
//
// LLM Metrics:
//   - llm_requests_total: Counter of completion calls by model, stop reason and status
//   - llm_request_duration_seconds: Histogram of completion call durations
//   - llm_tokens_total: Counter of input/output tokens by model and direction
//
// Tool Metrics:
//   - tool_invocations_total: Counter of tool invocations by tool, source and status
//   - tool_duration_seconds: Histogram of tool execution durations
//
// Conversation Metrics:
//   - conversation_turns_total: Counter of handled webhook turns by envelope and outcome
//
// # Tracing
//
// Spans are created for conversation turns (conversation.<envelope>), LLM calls
// (llm.complete), tool dispatch (tool.<name>) and calendar calls
// (google.calendar.<operation>).
//
// # Configuration
//
// Instrumentation is configured through environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: voicecal)
package instrumentation
