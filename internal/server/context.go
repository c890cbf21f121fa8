package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/voicecal/internal/instrumentation"
)

// Responder answers a raw webhook body with a JSON-encodable reply.
type Responder interface {
	Handle(ctx context.Context, body []byte) (any, error)
}

// Dependencies are the collaborators a ServerContext is built from.
type Dependencies struct {
	Responder Responder
	Metrics   *instrumentation.Metrics
}

// ServerContext holds the collaborators shared by every request
type ServerContext struct {
	responder Responder
	metrics   *instrumentation.Metrics
	mu        sync.RWMutex
	shutdown  bool
}

// NewServerContext creates a new server context
func NewServerContext(deps Dependencies) (*ServerContext, error) {
	if deps.Responder == nil {
		return nil, fmt.Errorf("a responder is required")
	}
	return &ServerContext{
		responder: deps.Responder,
		metrics:   deps.Metrics,
	}, nil
}

// Responder returns the webhook responder
func (sc *ServerContext) Responder() Responder {
	return sc.responder
}

// Metrics returns the metrics recorder, which may be nil
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown marks the server context as shut down. Readiness checks fail
// from then on.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.shutdown = true
	return nil
}
