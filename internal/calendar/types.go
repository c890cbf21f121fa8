package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/voicecal/internal/wallclock"
)

// Event status and transparency values reported by the Calendar API.
const (
	StatusCancelled         = "cancelled"
	TransparencyTransparent = "transparent"
)

const (
	sendUpdatesAll  = "all"
	sendUpdatesNone = "none"
)

// EventInput describes an event to insert.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// TimeZone is the IANA name written next to the start and end times.
	TimeZone  string
	Attendees []string
}

// EventSummary is the subset of a calendar event the engines look at.
type EventSummary struct {
	ID           string
	Summary      string
	Description  string
	Start        time.Time
	End          time.Time
	AllDay       bool
	Status       string
	Transparency string
	HTMLLink     string
	Organizer    string
	Attendees    []AttendeeInfo
}

// AttendeeInfo represents information about an event attendee
type AttendeeInfo struct {
	Email          string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
}

// Blocks reports whether the event occupies its time range. Cancelled
// events and events marked "show as available" do not.
func (e EventSummary) Blocks() bool {
	return e.Status != StatusCancelled && e.Transparency != TransparencyTransparent
}

// toEventSummary converts a Google Calendar event to an EventSummary.
// All-day dates are read as midnight in loc.
func toEventSummary(event *calendar.Event, loc *time.Location) EventSummary {
	if event == nil {
		return EventSummary{}
	}
	if loc == nil {
		loc = time.UTC
	}

	summary := EventSummary{
		ID:           event.Id,
		Summary:      event.Summary,
		Description:  event.Description,
		Status:       event.Status,
		Transparency: event.Transparency,
		HTMLLink:     event.HtmlLink,
	}

	var startAllDay, endAllDay bool
	summary.Start, startAllDay = parseEventTime(event.Start, loc)
	summary.End, endAllDay = parseEventTime(event.End, loc)
	summary.AllDay = startAllDay || endAllDay

	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}

	for _, att := range event.Attendees {
		if att == nil {
			continue
		}
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			ResponseStatus: att.ResponseStatus,
		})
	}

	return summary
}

func parseEventTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t, false
		}
		return time.Time{}, false
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation(wallclock.DateLayout, edt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
