package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teemow/voicecal/internal/llm"
	"github.com/teemow/voicecal/internal/scheduling"
)

type responderFunc func(ctx context.Context, body []byte) (any, error)

func (f responderFunc) Handle(ctx context.Context, body []byte) (any, error) {
	return f(ctx, body)
}

type nopEngine struct{}

func (nopEngine) CheckAvailability(context.Context, string, string, string) scheduling.Availability {
	return scheduling.Availability{Available: true, Message: "free"}
}

func (nopEngine) BookAppointment(context.Context, scheduling.BookingRequest) scheduling.Booking {
	return scheduling.Booking{Success: true, Message: "booked"}
}

func newTestServerContext(t *testing.T, r Responder) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(Dependencies{Responder: r})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

type failingLLM struct{}

func (failingLLM) Complete(context.Context, llm.Request) (*llm.Completion, error) {
	return nil, errors.New("upstream unavailable")
}
