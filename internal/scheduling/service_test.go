package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/wallclock"
)

// memoryStore is an in-memory EventStore. Its list filter is inclusive at
// both ends, like a remote filter that returns near-boundary events.
type memoryStore struct {
	mu        sync.Mutex
	events    []calendar.EventSummary
	inserted  []calendar.EventInput
	listErr   error
	insertErr error
	lists     int
}

func (m *memoryStore) ListEvents(_ context.Context, _ string, timeMin, timeMax time.Time) ([]calendar.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []calendar.EventSummary
	for _, e := range m.events {
		if !e.End.Before(timeMin) && !e.Start.After(timeMax) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) InsertEvent(_ context.Context, _ string, input calendar.EventInput) (*calendar.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.inserted = append(m.inserted, input)
	e := calendar.EventSummary{
		ID:       fmt.Sprintf("evt%d", len(m.inserted)),
		Summary:  input.Summary,
		Start:    input.Start,
		End:      input.End,
		Status:   "confirmed",
		HTMLLink: fmt.Sprintf("https://calendar.example/evt%d", len(m.inserted)),
	}
	m.events = append(m.events, e)
	return &e, nil
}

var newYork = wallclock.MustLoadZone("America/New_York")

func at(hhmm string) time.Time {
	t, err := newYork.Compose("2025-01-15", hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func event(start, end string) calendar.EventSummary {
	return calendar.EventSummary{ID: start, Start: at(start), End: at(end), Status: "confirmed"}
}

func newTestService(store *memoryStore, mutate ...func(*Config)) *Service {
	cfg := Config{Zone: newYork, OperatorEmail: "owner@example.com"}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewService(store, cfg)
}

func TestCheckAvailability_Overlap(t *testing.T) {
	tests := []struct {
		name      string
		events    []calendar.EventSummary
		start     string
		end       string
		available bool
	}{
		{name: "empty calendar", start: "14:00", end: "15:00", available: true},
		{name: "overlaps start", events: []calendar.EventSummary{event("13:30", "14:30")}, start: "2pm", end: "3pm"},
		{name: "overlaps end", events: []calendar.EventSummary{event("14:30", "16:00")}, start: "14:00", end: "15:00"},
		{name: "contains window", events: []calendar.EventSummary{event("09:00", "17:00")}, start: "14:00", end: "15:00"},
		{name: "inside window", events: []calendar.EventSummary{event("14:15", "14:45")}, start: "14:00", end: "15:00"},
		{name: "ends at window start", events: []calendar.EventSummary{event("13:00", "14:00")}, start: "14:00", end: "15:00", available: true},
		{name: "starts at window end", events: []calendar.EventSummary{event("15:00", "16:00")}, start: "14:00", end: "15:00", available: true},
		{
			name:      "back to back on both sides",
			events:    []calendar.EventSummary{event("13:00", "14:00"), event("15:00", "16:00")},
			start:     "14:00",
			end:       "15:00",
			available: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&memoryStore{events: tt.events})
			got := svc.CheckAvailability(context.Background(), "2025-01-15", tt.start, tt.end)
			assert.Equal(t, tt.available, got.Available, got.Message)
			assert.Equal(t, !tt.available, len(got.Conflicts) > 0)
		})
	}
}

func TestCheckAvailability_IgnoresNonBlockingEvents(t *testing.T) {
	cancelled := event("14:00", "15:00")
	cancelled.Status = calendar.StatusCancelled
	free := event("14:00", "15:00")
	free.Transparency = calendar.TransparencyTransparent

	svc := newTestService(&memoryStore{events: []calendar.EventSummary{cancelled, free}})
	got := svc.CheckAvailability(context.Background(), "2025-01-15", "14:00", "15:00")
	assert.True(t, got.Available)
}

func TestCheckAvailability_Messages(t *testing.T) {
	svc := newTestService(&memoryStore{events: []calendar.EventSummary{event("13:30", "14:30")}})

	got := svc.CheckAvailability(context.Background(), "2025-01-15", "2 PM", "3 PM")
	assert.Equal(t, "The slot on 2025-01-15 from 14:00 to 15:00 is not available; it overlaps 1 existing event (13:30-14:30).", got.Message)

	got = svc.CheckAvailability(context.Background(), "2025-01-15", "16:00", "17:00")
	assert.Equal(t, "The slot on 2025-01-15 from 16:00 to 17:00 is available.", got.Message)
}

func TestCheckAvailability_Failures(t *testing.T) {
	tests := []struct {
		name     string
		store    *memoryStore
		date     string
		start    string
		end      string
		contains string
		noLookup bool
	}{
		{name: "invalid time", store: &memoryStore{}, date: "2025-01-15", start: "25:00", end: "26:00", contains: `"25:00"`, noLookup: true},
		{name: "start after end", store: &memoryStore{}, date: "2025-01-15", start: "15:00", end: "14:00", contains: "must be before", noLookup: true},
		{name: "empty window", store: &memoryStore{}, date: "2025-01-15", start: "14:00", end: "2pm", contains: "must be before", noLookup: true},
		{name: "bad date", store: &memoryStore{}, date: "tomorrow", start: "14:00", end: "15:00", contains: "invalid date", noLookup: true},
		{name: "calendar down", store: &memoryStore{listErr: errors.New("503")}, date: "2025-01-15", start: "14:00", end: "15:00", contains: "could not reach the calendar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.store)
			got := svc.CheckAvailability(context.Background(), tt.date, tt.start, tt.end)
			assert.False(t, got.Available)
			assert.Contains(t, got.Message, tt.contains)
			if tt.noLookup {
				assert.Zero(t, tt.store.lists, "calendar must not be queried for invalid input")
			}
		})
	}
}

func TestCheckAvailability_DSTAwareOffsets(t *testing.T) {
	// 2025-03-09 is the US spring-forward date; 10:00 local is UTC-4.
	store := &memoryStore{events: []calendar.EventSummary{{
		Start:  time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC),
		Status: "confirmed",
	}}}
	svc := newTestService(store)

	assert.False(t, svc.CheckAvailability(context.Background(), "2025-03-09", "10:00", "11:00").Available)
	assert.True(t, svc.CheckAvailability(context.Background(), "2025-03-09", "09:00", "10:00").Available)
}

func TestBookAppointment(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store)

	got := svc.BookAppointment(context.Background(), BookingRequest{
		Summary:       "Haircut",
		Date:          "2025-01-15",
		StartTime:     "2pm",
		EndTime:       "3:00 PM",
		Description:   "Trim",
		AttendeeEmail: "jane@example.com",
	})

	require.True(t, got.Success, got.Message)
	assert.Equal(t, "evt1", got.EventID)
	assert.Equal(t, "https://calendar.example/evt1", got.Link)
	assert.Equal(t, `Booked "Haircut" on 2025-01-15 from 14:00 to 15:00.`, got.Message)

	require.Len(t, store.inserted, 1)
	in := store.inserted[0]
	assert.True(t, in.Start.Equal(at("14:00")))
	assert.True(t, in.End.Equal(at("15:00")))
	assert.Equal(t, "America/New_York", in.TimeZone)
	assert.Equal(t, []string{"jane@example.com", "owner@example.com"}, in.Attendees)
	assert.Equal(t, "Trim", in.Description)
}

func TestBookAppointment_Attendees(t *testing.T) {
	tests := []struct {
		name      string
		operator  string
		requester string
		want      []string
	}{
		{name: "no requester", operator: "owner@example.com", requester: "", want: nil},
		{name: "no operator", operator: "", requester: "jane@example.com", want: []string{"jane@example.com"}},
		{name: "requester is operator", operator: "Owner@Example.com", requester: "owner@example.com", want: []string{"owner@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			svc := newTestService(store, func(c *Config) { c.OperatorEmail = tt.operator })
			got := svc.BookAppointment(context.Background(), BookingRequest{
				Summary: "Haircut", Date: "2025-01-15", StartTime: "14:00", EndTime: "15:00", AttendeeEmail: tt.requester,
			})
			require.True(t, got.Success)
			assert.Equal(t, tt.want, store.inserted[0].Attendees)
		})
	}
}

func TestBookAppointment_DefaultSummary(t *testing.T) {
	store := &memoryStore{}
	got := newTestService(store).BookAppointment(context.Background(), BookingRequest{
		Summary: "  ", Date: "2025-01-15", StartTime: "14:00", EndTime: "15:00",
	})
	require.True(t, got.Success)
	assert.Equal(t, DefaultSummary, store.inserted[0].Summary)
}

func TestBookAppointment_Failures(t *testing.T) {
	store := &memoryStore{insertErr: errors.New("quota exceeded")}
	svc := newTestService(store)

	got := svc.BookAppointment(context.Background(), BookingRequest{Summary: "Haircut", Date: "2025-01-15", StartTime: "14:00", EndTime: "15:00"})
	assert.False(t, got.Success)
	assert.Contains(t, got.Message, "could not book")
	assert.NotContains(t, got.Message, "quota")

	got = svc.BookAppointment(context.Background(), BookingRequest{Summary: "Haircut", Date: "2025-01-15", StartTime: "noonish", EndTime: "15:00"})
	assert.False(t, got.Success)
	assert.Contains(t, got.Message, `"noonish"`)
}

func TestBookAppointment_NoImplicitRecheck(t *testing.T) {
	store := &memoryStore{events: []calendar.EventSummary{event("14:00", "15:00")}}
	got := newTestService(store).BookAppointment(context.Background(), BookingRequest{
		Summary: "Double", Date: "2025-01-15", StartTime: "14:00", EndTime: "15:00",
	})
	assert.True(t, got.Success)
	assert.Zero(t, store.lists)
}

func TestBookAppointment_RecheckRefusesConflict(t *testing.T) {
	store := &memoryStore{events: []calendar.EventSummary{event("14:30", "15:30")}}
	svc := newTestService(store, func(c *Config) { c.RecheckBeforeBooking = true })

	got := svc.BookAppointment(context.Background(), BookingRequest{Summary: "Haircut", Date: "2025-01-15", StartTime: "14:00", EndTime: "15:00"})
	assert.False(t, got.Success)
	assert.Contains(t, got.Message, "not available")
	assert.Empty(t, store.inserted)

	got = svc.BookAppointment(context.Background(), BookingRequest{Summary: "Haircut", Date: "2025-01-15", StartTime: "13:00", EndTime: "14:00"})
	assert.True(t, got.Success)
}

func TestBookThenCheckSameWindow(t *testing.T) {
	svc := newTestService(&memoryStore{})
	ctx := context.Background()

	require.True(t, svc.CheckAvailability(ctx, "2025-01-15", "14:00", "15:00").Available)
	require.True(t, svc.BookAppointment(ctx, BookingRequest{Summary: "Haircut", Date: "2025-01-15", StartTime: "14:00", EndTime: "15:00"}).Success)
	assert.False(t, svc.CheckAvailability(ctx, "2025-01-15", "14:00", "15:00").Available)
	assert.True(t, svc.CheckAvailability(ctx, "2025-01-15", "15:00", "16:00").Available)
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(&memoryStore{}, Config{})
	assert.Equal(t, DefaultCalendarID, svc.Config().CalendarID)
	assert.Panics(t, func() { NewService(nil, Config{}) })
}
