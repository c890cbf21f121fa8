package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/logging"
)

// BookingRequest holds the booking arguments as received.
type BookingRequest struct {
	Summary       string
	Date          string
	StartTime     string
	EndTime       string
	Description   string
	AttendeeEmail string
}

// Booking is the outcome of a booking attempt.
type Booking struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EventID string `json:"eventId,omitempty"`
	Link    string `json:"link,omitempty"`
}

// BookAppointment inserts an event for the requested window.
//
// Unless RecheckBeforeBooking is set, no availability check happens here;
// callers are expected to check first.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) Booking {
	from, to, normStart, normEnd, err := s.window(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		s.logger.Debug("booking request rejected", logging.KeyError, err.Error())
		return Booking{Message: fmt.Sprintf("Could not book the appointment: %v.", err)}
	}

	window := describeWindow(req.Date, normStart, normEnd)

	if s.config.RecheckBeforeBooking {
		avail := s.CheckAvailability(ctx, req.Date, normStart, normEnd)
		if !avail.Available {
			return Booking{Message: "Could not book the appointment. " + avail.Message}
		}
	}

	summary := strings.TrimSpace(req.Summary)
	if summary == "" {
		summary = DefaultSummary
	}

	input := calendar.EventInput{
		Summary:     summary,
		Description: req.Description,
		Start:       from,
		End:         to,
		TimeZone:    s.config.Zone.Name,
		Attendees:   s.attendees(req.AttendeeEmail),
	}

	created, err := s.store.InsertEvent(ctx, s.config.CalendarID, input)
	if err != nil {
		s.logger.Warn("failed to insert calendar event",
			logging.KeyError, err.Error())
		return Booking{Message: fmt.Sprintf("Sorry, I could not book %q on %s right now.", summary, window)}
	}

	s.logger.Info("appointment booked",
		"event_id", created.ID,
		logging.KeyUserHash, logging.AnonymizeEmail(req.AttendeeEmail))

	return Booking{
		Success: true,
		Message: fmt.Sprintf("Booked %q on %s.", summary, window),
		EventID: created.ID,
		Link:    created.HTMLLink,
	}
}

// attendees returns the requester plus the operator, or nothing when the
// requester gave no address.
func (s *Service) attendees(requester string) []string {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return nil
	}

	list := []string{requester}
	if op := strings.TrimSpace(s.config.OperatorEmail); op != "" && !strings.EqualFold(op, requester) {
		list = append(list, op)
	}
	return list
}
