package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/instrumentation"
)

// Client wraps the Google Calendar service
type Client struct {
	svc      *calendar.Service
	location *time.Location
	metrics  *instrumentation.Metrics
}

// NewClient creates a Calendar client authenticated by strategy.
func NewClient(ctx context.Context, strategy google.CredentialStrategy) (*Client, error) {
	if strategy == nil {
		return nil, fmt.Errorf("credential strategy cannot be nil")
	}

	ts, err := strategy.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google token source (%s): %w", strategy.Name(), err)
	}

	return NewClientWithTokenSource(ctx, ts)
}

// NewClientWithTokenSource creates a Calendar client from an oauth2 token source.
func NewClientWithTokenSource(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	return NewClientWithOptions(ctx, option.WithHTTPClient(client))
}

// NewClientWithOptions creates a Calendar client from raw API options.
// Tests point it at a local server with option.WithEndpoint.
func NewClientWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, location: time.UTC}, nil
}

// SetMetrics sets the metrics recorder for calendar operations.
func (c *Client) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

// SetLocation sets the zone all-day event dates are read in.
func (c *Client) SetLocation(loc *time.Location) {
	if loc != nil {
		c.location = loc
	}
}

// ListEvents lists the single events of a calendar that intersect
// [timeMin, timeMax], following every result page.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) (summaries []EventSummary, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(calendarID).Build()...)
	defer span.End()

	start := time.Now()
	defer func() { c.record(ctx, instrumentation.OperationList, start, err) }()

	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, event := range page.Items {
			summaries = append(summaries, toEventSummary(event, c.location))
		}
		return nil
	})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	return summaries, nil
}

// InsertEvent creates an event. Attendees receive invitations.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, input EventInput) (summary *EventSummary, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationInsert,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(calendarID).Build()...)
	defer span.End()

	start := time.Now()
	defer func() { c.record(ctx, instrumentation.OperationInsert, start, err) }()

	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: tz,
		},
	}

	for _, email := range input.Attendees {
		if email == "" {
			continue
		}
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	sendUpdates := sendUpdatesNone
	if len(event.Attendees) > 0 {
		sendUpdates = sendUpdatesAll
	}

	created, err := c.svc.Events.Insert(calendarID, event).
		SendUpdates(sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	s := toEventSummary(created, c.location)
	return &s, nil
}

func (c *Client) record(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, time.Since(start))
}
