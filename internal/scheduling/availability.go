package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/wallclock"
)

// Availability is the outcome of an availability check.
type Availability struct {
	Available bool       `json:"available"`
	Message   string     `json:"message"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Conflict is an existing event overlapping the requested window. Titles are
// left out so one caller never hears about another caller's appointment.
type Conflict struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CheckAvailability reports whether [start, end) on date is free.
//
// The store is queried with the window itself as bounds, and overlap is then
// recomputed locally with half-open semantics: an event ending exactly when
// the window starts does not conflict.
func (s *Service) CheckAvailability(ctx context.Context, date, start, end string) Availability {
	from, to, normStart, normEnd, err := s.window(date, start, end)
	if err != nil {
		s.logger.Debug("availability request rejected", logging.KeyError, err.Error())
		return Availability{Message: fmt.Sprintf("Could not check availability: %v.", err)}
	}

	events, err := s.store.ListEvents(ctx, s.config.CalendarID, from, to)
	if err != nil {
		s.logger.Warn("failed to list calendar events",
			logging.KeyError, err.Error())
		return Availability{Message: "Sorry, I could not reach the calendar to check availability right now."}
	}

	conflicts := overlapping(events, from, to)
	window := describeWindow(date, normStart, normEnd)
	if len(conflicts) == 0 {
		return Availability{
			Available: true,
			Message:   fmt.Sprintf("The slot on %s is available.", window),
		}
	}

	return Availability{
		Message:   fmt.Sprintf("The slot on %s is not available; it overlaps %s.", window, s.describeConflicts(conflicts)),
		Conflicts: conflicts,
	}
}

// window normalizes the inputs and composes the instants in the zone.
func (s *Service) window(date, start, end string) (from, to time.Time, normStart, normEnd string, err error) {
	if normStart, err = wallclock.Normalize(start); err != nil {
		return
	}
	if normEnd, err = wallclock.Normalize(end); err != nil {
		return
	}
	from, to, err = s.config.Zone.Window(date, normStart, normEnd)
	return
}

func overlapping(events []calendar.EventSummary, from, to time.Time) []Conflict {
	var conflicts []Conflict
	for _, e := range events {
		if !e.Blocks() || e.Start.IsZero() || e.End.IsZero() {
			continue
		}
		if wallclock.Overlaps(e.Start, e.End, from, to) {
			conflicts = append(conflicts, Conflict{Start: e.Start, End: e.End})
		}
	}
	return conflicts
}

func (s *Service) describeConflicts(conflicts []Conflict) string {
	loc := s.config.Zone.Location
	if loc == nil {
		loc = time.UTC
	}

	spans := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		spans = append(spans, c.Start.In(loc).Format("15:04")+"-"+c.End.In(loc).Format("15:04"))
	}

	noun := "existing event"
	if len(conflicts) > 1 {
		noun = "existing events"
	}
	return fmt.Sprintf("%d %s (%s)", len(conflicts), noun, strings.Join(spans, ", "))
}
