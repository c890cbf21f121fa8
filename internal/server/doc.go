// Package server provides the HTTP surface of voicecal.
//
// # Key Components
//
// ServerContext carries the process-lifetime collaborators shared by all
// requests: the conversation responder, the tool dispatcher and the
// instrumentation recorders. Requests only read from it.
//
// NewRouter builds the chi router for the webhook server:
//   - POST /webhook and POST /chat/completions answer voice platform webhooks
//   - /mcp serves the scheduling tools over streamable HTTP (optional)
//   - /healthz, /readyz and /healthz/detailed serve health checks
//
// MetricsServer serves Prometheus metrics on a dedicated port, separate from
// webhook traffic.
package server
