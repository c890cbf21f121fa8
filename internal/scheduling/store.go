package scheduling

import (
	"context"
	"time"

	"github.com/teemow/voicecal/internal/calendar"
)

// EventStore is the calendar backend the engines read and write.
// *calendar.Client satisfies it.
type EventStore interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendar.EventSummary, error)
	InsertEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.EventSummary, error)
}

var _ EventStore = (*calendar.Client)(nil)
