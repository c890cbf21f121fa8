package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/voicecal/internal/wallclock"
)

// SettingsURI is the URI of the schedule settings resource.
const SettingsURI = "schedule://settings"

// Settings describes the calendar the tools operate on.
type Settings struct {
	CalendarID string
	Zone       wallclock.Zone
	// Now defaults to time.Now.
	Now func() time.Time
}

type settingsDocument struct {
	CalendarID string `json:"calendarId"`
	TimeZone   string `json:"timeZone"`
	Today      string `json:"today"`
	Weekday    string `json:"weekday"`
	LocalTime  string `json:"localTime"`
	TimeFormat string `json:"timeFormat"`
}

// RegisterScheduleResources registers the schedule settings resource.
func RegisterScheduleResources(s *mcpserver.MCPServer, settings Settings) error {
	if settings.Zone.Location == nil {
		return fmt.Errorf("schedule resources need a time zone")
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}

	settingsResource := mcp.NewResource(
		SettingsURI,
		"Schedule Settings",
		mcp.WithResourceDescription("Business calendar, time zone and today's date for the scheduling tools"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSettings(request, settings)
	})

	return nil
}

func handleSettings(request mcp.ReadResourceRequest, settings Settings) ([]mcp.ResourceContents, error) {
	now := settings.Now().In(settings.Zone.Location)

	jsonData, err := json.MarshalIndent(settingsDocument{
		CalendarID: settings.CalendarID,
		TimeZone:   settings.Zone.Name,
		Today:      now.Format(wallclock.DateLayout),
		Weekday:    now.Weekday().String(),
		LocalTime:  now.Format("15:04"),
		TimeFormat: "HH:MM (24-hour)",
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
