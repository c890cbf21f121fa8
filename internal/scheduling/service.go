package scheduling

import (
	"fmt"

	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/wallclock"
)

// DefaultCalendarID is used when Config.CalendarID is empty.
const DefaultCalendarID = "primary"

// DefaultSummary titles bookings made without one.
const DefaultSummary = "Appointment"

// Config holds the engine settings.
type Config struct {
	CalendarID string
	Zone       wallclock.Zone

	// OperatorEmail is added as a second attendee whenever the caller
	// supplies their own address.
	OperatorEmail string

	// RecheckBeforeBooking runs an availability check right before insert
	// and refuses conflicting slots. It narrows but does not close the race
	// between concurrent bookings.
	RecheckBeforeBooking bool
}

// Service runs the availability and booking engines against one calendar.
type Service struct {
	store  EventStore
	config Config
	logger logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default is logging.DefaultLogger().
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service. It panics if store is nil.
func NewService(store EventStore, config Config, opts ...Option) *Service {
	if store == nil {
		panic("scheduling: nil event store")
	}
	if config.CalendarID == "" {
		config.CalendarID = DefaultCalendarID
	}

	s := &Service{
		store:  store,
		config: config,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.KeyService, "scheduling", logging.KeyCalendar, config.CalendarID)
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.config
}

func describeWindow(date, start, end string) string {
	return fmt.Sprintf("%s from %s to %s", date, start, end)
}
